package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scotow/dropit/internal/admin"
	"github.com/scotow/dropit/internal/apierr"
	"github.com/scotow/dropit/internal/blobstore"
	"github.com/scotow/dropit/internal/download"
	"github.com/scotow/dropit/internal/infoendpoint"
	"github.com/scotow/dropit/internal/logger"
	"github.com/scotow/dropit/internal/metastore"
	"github.com/scotow/dropit/internal/metrics"
	"github.com/scotow/dropit/internal/origin"
	"github.com/scotow/dropit/internal/response"
	"github.com/scotow/dropit/internal/upload"
)

// Handlers wires the pipelines into chi-compatible HTTP handlers.
type Handlers struct {
	meta      metastore.Store
	blobs     *blobstore.Store
	uploads   *upload.Pipeline
	downloads *download.Pipeline
	admin     *admin.Mutator
	origin    *origin.Resolver
	linkBase  string
	metrics   *metrics.Metrics
}

// Deps collects the Handlers constructor's collaborators.
type Deps struct {
	Meta      metastore.Store
	Blobs     *blobstore.Store
	Uploads   *upload.Pipeline
	Downloads *download.Pipeline
	Admin     *admin.Mutator
	Origin    *origin.Resolver
	LinkBase  string
	Metrics   *metrics.Metrics
}

// NewHandlers builds a Handlers from Deps.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		meta:      d.Meta,
		blobs:     d.Blobs,
		uploads:   d.Uploads,
		downloads: d.Downloads,
		admin:     d.Admin,
		origin:    d.Origin,
		linkBase:  d.LinkBase,
		metrics:   d.Metrics,
	}
}

// Upload handles POST / and POST /upload (spec §6).
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	originID, err := h.origin.Resolve(r)
	if err != nil {
		h.writeError(w, r, apierr.New(apierr.CodeOriginUnresolved))
		return
	}

	name := r.Header.Get("X-Filename")
	if r.ContentLength <= 0 {
		h.writeError(w, r, apierr.New(apierr.CodeFilenameHeader))
		return
	}

	result, err := h.uploads.Run(ctx, upload.Request{
		Origin:   originID,
		Name:     name,
		Size:     r.ContentLength,
		Body:     r.Body,
		LinkBase: h.linkBase,
	})
	if err != nil {
		h.metrics.UploadRejected()
		if apierr.Is(err, apierr.CodeQuotaExceeded) {
			h.metrics.QuotaRejected("chain")
		}
		h.writeError(w, r, err)
		return
	}

	h.metrics.UploadAccepted(result.Size)
	response.Write(w, r, uploadPayload{result: result})
}

// Download handles GET /<alias>[+<alias>...] (spec §6).
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	group := download.ParseGroup(chi.URLParam(r, "alias"))
	if err := h.downloads.Serve(r.Context(), w, r, group); err != nil {
		h.writeError(w, r, err)
	}
}

// Revoke handles DELETE /<alias>.
func (h *Handlers) Revoke(w http.ResponseWriter, r *http.Request) {
	a := chi.URLParam(r, "alias")
	token, ok := admin.Token(r)
	if !ok {
		h.writeError(w, r, apierr.New(apierr.CodeMissingAuthorization))
		return
	}
	if err := h.admin.Revoke(r.Context(), a, token); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Write(w, r, response.Empty{})
}

// RegenerateAlias handles PATCH /<alias>/alias/{short,long,""}.
func (h *Handlers) RegenerateAlias(w http.ResponseWriter, r *http.Request) {
	a := chi.URLParam(r, "alias")
	token, ok := admin.Token(r)
	if !ok {
		h.writeError(w, r, apierr.New(apierr.CodeMissingAuthorization))
		return
	}

	var target admin.AliasTarget
	switch chi.URLParam(r, "which") {
	case "short":
		target = admin.TargetShort
	case "long":
		target = admin.TargetLong
	case "":
		target = admin.TargetBoth
	default:
		h.writeError(w, r, apierr.New(apierr.CodeInvalidAlias))
		return
	}

	short, long, err := h.admin.RegenerateAliases(r.Context(), a, token, target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Write(w, r, aliasesPayload{short: short, long: long})
}

// SetExpiration handles PATCH /<alias>/expiration/<spec>.
func (h *Handlers) SetExpiration(w http.ResponseWriter, r *http.Request) {
	a := chi.URLParam(r, "alias")
	token, ok := admin.Token(r)
	if !ok {
		h.writeError(w, r, apierr.New(apierr.CodeMissingAuthorization))
		return
	}

	raw := chi.URLParam(r, "spec")
	spec := admin.ExpirationSpec{}
	switch raw {
	case "initial":
		spec.Initial = true
	case "maximum":
		spec.Maximum = true
	default:
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seconds <= 0 {
			h.writeError(w, r, apierr.New(apierr.CodeExpirationTooHigh))
			return
		}
		d := time.Duration(seconds) * time.Second
		spec.Custom = &d
	}

	current, allowed, err := h.admin.SetExpiration(r.Context(), a, token, spec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Write(w, r, expirationPayload{current: current, allowed: allowed})
}

// SetDownloads handles PATCH /<alias>/downloads/<n>.
func (h *Handlers) SetDownloads(w http.ResponseWriter, r *http.Request) {
	a := chi.URLParam(r, "alias")
	token, ok := admin.Token(r)
	if !ok {
		h.writeError(w, r, apierr.New(apierr.CodeMissingAuthorization))
		return
	}

	count, err := strconv.ParseInt(chi.URLParam(r, "count"), 10, 64)
	if err != nil {
		h.writeError(w, r, apierr.New(apierr.CodeInvalidDownloadsCount))
		return
	}

	if err := h.admin.SetDownloads(r.Context(), a, token, count); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Write(w, r, response.Empty{})
}

// Info handles GET /valid/<alias>[+...] (spec §4.12).
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	group := download.ParseGroup(chi.URLParam(r, "alias"))
	results, err := infoendpoint.CheckGroup(r.Context(), h.meta, group)
	if err != nil {
		h.writeError(w, r, apierr.Wrap(apierr.CodeDatabase, err))
		return
	}
	response.Write(w, r, validityPayload{results: results})
}

// Health handles GET /health: a liveness probe that also checks the
// metadata store connection and the blob directory are still reachable,
// trimmed down from the teacher's multi-tier liveness/readiness/store
// health split to one combined check.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.meta.SumGlobal(r.Context()); err != nil {
		logger.ErrorCtx(r.Context(), "health check: metadata store unreachable", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unhealthy: metadata store"))
		return
	}
	if err := h.blobs.Healthcheck(); err != nil {
		logger.ErrorCtx(r.Context(), "health check: blob store unreachable", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unhealthy: blob store"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		apiErr = apierr.Wrap(apierr.CodeGeneric, err)
	}
	if apiErr.StatusCode() >= http.StatusInternalServerError {
		logger.ErrorCtx(r.Context(), "request failed", "code", apiErr.Code, "error", apiErr.Error())
	}
	response.Write(w, r, apiErr)
}
