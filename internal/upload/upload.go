// Package upload implements the admission → mint → insert → stream →
// rollback pipeline for new files (spec §4.7).
package upload

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scotow/dropit/internal/alias"
	"github.com/scotow/dropit/internal/apierr"
	"github.com/scotow/dropit/internal/blobstore"
	"github.com/scotow/dropit/internal/expiration"
	"github.com/scotow/dropit/internal/metastore"
	"github.com/scotow/dropit/internal/quota"
)

// Request is the input collected from an HTTP request before admission.
type Request struct {
	Origin   string
	Name     string // raw X-Filename header value, percent-encoded
	Size     int64
	Body     io.Reader
	LinkBase string // scheme://host used to build share links
}

// Result is returned on success, matching the spec §4.7 step 9 payload.
type Result struct {
	AdminToken string
	Name       string
	Size       int64
	AliasShort string
	AliasLong  string
	LinkShort  string
	LinkLong   string
	Current    time.Duration
	Allowed    time.Duration
}

// Pipeline wires the collaborators an upload needs.
type Pipeline struct {
	meta       metastore.Store
	blobs      *blobstore.Store
	predicates []quota.Predicate
	expiry     *expiration.Policy
}

// New builds a Pipeline. predicates are evaluated in order against the
// usage snapshot read inside the admission transaction (spec §4.5).
func New(meta metastore.Store, blobs *blobstore.Store, predicates []quota.Predicate, expiry *expiration.Policy) *Pipeline {
	return &Pipeline{meta: meta, blobs: blobs, predicates: predicates, expiry: expiry}
}

// SanitizeFilename percent-decodes name, then strips path separators and
// control characters. An empty result after sanitization means no name
// (spec §4.7 step 2).
func SanitizeFilename(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}

	var b strings.Builder
	for _, r := range decoded {
		if r == '/' || r == '\\' || r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Run executes the full admission→mint→insert→stream pipeline.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Origin == "" {
		return nil, apierr.New(apierr.CodeOriginUnresolved)
	}
	if req.LinkBase == "" {
		return nil, apierr.New(apierr.CodeTargetUnresolved)
	}

	name := SanitizeFilename(req.Name)

	def, allowed, ok := p.expiry.Determine(req.Size)
	if !ok {
		return nil, apierr.New(apierr.CodeTooLarge)
	}

	id := uuid.NewString()
	adminToken := uuid.NewString()
	now := time.Now()
	expiresAt := now.Add(def)

	var (
		short, long string
		file        metastore.File
	)

	err := p.meta.WithinAdmissionTransaction(ctx, func(tx metastore.Store) error {
		usage, err := tx.SumOrigin(ctx, req.Origin)
		if err != nil {
			return apierr.Wrap(apierr.CodeDatabase, err)
		}
		global, err := tx.SumGlobal(ctx)
		if err != nil {
			return apierr.Wrap(apierr.CodeDatabase, err)
		}

		source := func(context.Context) (quota.Usage, error) {
			return quota.Usage{OriginSize: usage.TotalSize, OriginCount: usage.Count, GlobalSize: global}, nil
		}
		chain := quota.New(source, p.predicates...)
		if err := chain.Evaluate(ctx, req.Size); err != nil {
			if err == quota.ErrRejected {
				return apierr.New(apierr.CodeQuotaExceeded)
			}
			return apierr.Wrap(apierr.CodeDatabase, err)
		}

		short, long, err = alias.Mint(func(candidate string, kind alias.Kind) (bool, error) {
			mk := metastore.AliasShort
			if kind == alias.Long {
				mk = metastore.AliasLong
			}
			return tx.AliasExists(ctx, candidate, mk)
		})
		if err != nil {
			return apierr.Wrap(apierr.CodeAliasGenerationFailed, err)
		}

		file = metastore.File{
			ID:         id,
			AdminToken: adminToken,
			Origin:     req.Origin,
			ExpiresAt:  expiresAt,
			Name:       name,
			Size:       req.Size,
			AliasShort: short,
			AliasLong:  long,
			CreatedAt:  now,
		}
		if err := tx.Insert(ctx, &file); err != nil {
			return apierr.Wrap(apierr.CodeDatabase, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := p.writeBlob(ctx, id, req.Size, req.Body); err != nil {
		p.rollback(ctx, id)
		return nil, err
	}

	displayName := name
	if displayName == "" {
		displayName = long
	}

	return &Result{
		AdminToken: adminToken,
		Name:       displayName,
		Size:       req.Size,
		AliasShort: short,
		AliasLong:  long,
		LinkShort:  req.LinkBase + "/" + short,
		LinkLong:   req.LinkBase + "/" + long,
		Current:    def,
		Allowed:    allowedOrDefault(allowed, def),
	}, nil
}

func allowedOrDefault(allowed *time.Duration, def time.Duration) time.Duration {
	if allowed == nil {
		return def
	}
	return *allowed
}

// writeBlob streams req's body into the blobstore, enforcing that the
// running byte count never exceeds the declared size and matches it
// exactly on completion (spec §4.7 step 8).
func (p *Pipeline) writeBlob(ctx context.Context, id string, size int64, body io.Reader) error {
	w, err := p.blobs.Create(id)
	if err != nil {
		return apierr.Wrap(apierr.CodeCreateFile, err)
	}

	limited := &countingReader{r: body, limit: size}
	_, copyErr := io.Copy(w, limited)
	if copyErr == nil && limited.exceeded {
		copyErr = apierr.New(apierr.CodeSizeMismatch)
	}
	if copyErr != nil {
		w.Abort()
		return wrapCopyErr(copyErr)
	}

	if limited.total != size {
		w.Abort()
		return apierr.New(apierr.CodeSizeMismatch)
	}

	if err := w.Commit(); err != nil {
		return apierr.Wrap(apierr.CodeCreateFile, err)
	}
	return nil
}

func wrapCopyErr(err error) error {
	if apierr.Is(err, apierr.CodeSizeMismatch) {
		return err
	}
	return apierr.Wrap(apierr.CodeCopyFile, err)
}

// countingReader enforces the declared size limit while streaming,
// without buffering more than one chunk at a time.
type countingReader struct {
	r        io.Reader
	total    int64
	limit    int64
	exceeded bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.total += int64(n)
		if c.total > c.limit {
			c.exceeded = true
			return n, io.EOF
		}
	}
	return n, err
}

// rollback deletes the blob (best-effort) then the metadata row, matching
// the single documented rollback path (spec §4.7).
func (p *Pipeline) rollback(ctx context.Context, id string) {
	p.blobs.Delete(id)
	p.meta.Delete(ctx, id)
}
