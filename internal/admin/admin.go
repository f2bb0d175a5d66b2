// Package admin implements the admin-token-gated mutation operations:
// revoke, alias regeneration, expiration changes and downloads-remaining
// changes (spec §4.9).
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/scotow/dropit/internal/alias"
	"github.com/scotow/dropit/internal/apierr"
	"github.com/scotow/dropit/internal/blobstore"
	"github.com/scotow/dropit/internal/expiration"
	"github.com/scotow/dropit/internal/metastore"
)

// Recorder observes a file leaving the store via revocation.
// *metrics.Metrics implements it; a nil Recorder is fine to pass through.
type Recorder interface {
	FileRemoved(size int64)
}

// Mutator wires the collaborators admin operations need.
type Mutator struct {
	meta    metastore.Store
	blobs   *blobstore.Store
	expiry  *expiration.Policy
	metrics Recorder
}

// New builds a Mutator. metrics may be nil.
func New(meta metastore.Store, blobs *blobstore.Store, expiry *expiration.Policy, metrics Recorder) *Mutator {
	return &Mutator{meta: meta, blobs: blobs, expiry: expiry, metrics: metrics}
}

// Token extracts the admin token from r, preferring X-Authorization over
// Authorization because some user agents won't let scripts override the
// latter (spec §4.9).
func Token(r *http.Request) (string, bool) {
	if v := r.Header.Get("X-Authorization"); v != "" {
		return v, true
	}
	if v := r.Header.Get("Authorization"); v != "" {
		return v, true
	}
	return "", false
}

// authorize resolves alias to (id, size), rejecting a mismatched token or
// missing file.
func (m *Mutator) authorize(ctx context.Context, a, token string) (string, int64, error) {
	if !alias.IsValid(a) {
		return "", 0, apierr.New(apierr.CodeInvalidAlias)
	}
	id, size, err := m.meta.Authorize(ctx, a, token)
	if err != nil {
		switch err {
		case metastore.ErrNotFound:
			return "", 0, apierr.New(apierr.CodeFileNotFound)
		case metastore.ErrTokenMismatch:
			return "", 0, apierr.New(apierr.CodeInvalidAdminToken)
		default:
			return "", 0, apierr.Wrap(apierr.CodeDatabase, err)
		}
	}
	return id, size, nil
}

// Revoke deletes the blob then the metadata row for alias.
func (m *Mutator) Revoke(ctx context.Context, a, token string) error {
	id, size, err := m.authorize(ctx, a, token)
	if err != nil {
		return err
	}
	if err := m.blobs.Delete(id); err != nil {
		return apierr.Wrap(apierr.CodeRemoveFile, err)
	}
	if err := m.meta.Delete(ctx, id); err != nil {
		return apierr.Wrap(apierr.CodePartialRemove, err)
	}
	if m.metrics != nil {
		m.metrics.FileRemoved(size)
	}
	return nil
}

// AliasTarget selects which alias column(s) RegenerateAliases mutates.
type AliasTarget int

const (
	TargetShort AliasTarget = iota
	TargetLong
	TargetBoth
)

// RegenerateAliases mints fresh alias(es) for the file addressed by a and
// updates the row; exactly one row must be affected.
func (m *Mutator) RegenerateAliases(ctx context.Context, a, token string, target AliasTarget) (short, long string, err error) {
	id, _, err := m.authorize(ctx, a, token)
	if err != nil {
		return "", "", err
	}

	exists := func(candidate string, kind alias.Kind) (bool, error) {
		mk := metastore.AliasShort
		if kind == alias.Long {
			mk = metastore.AliasLong
		}
		return m.meta.AliasExists(ctx, candidate, mk)
	}

	switch target {
	case TargetShort:
		short, err = mintOne(exists, alias.Short, alias.RandomShort)
		if err != nil {
			return "", "", apierr.Wrap(apierr.CodeAliasGenerationFailed, err)
		}
	case TargetLong:
		long, err = mintOne(exists, alias.Long, alias.RandomLong)
		if err != nil {
			return "", "", apierr.Wrap(apierr.CodeAliasGenerationFailed, err)
		}
	case TargetBoth:
		short, long, err = alias.Mint(exists)
		if err != nil {
			return "", "", apierr.Wrap(apierr.CodeAliasGenerationFailed, err)
		}
	}

	if err := m.meta.UpdateAliases(ctx, id, short, long); err != nil {
		return "", "", apierr.Wrap(apierr.CodeUnexpectedFileModification, err)
	}
	return short, long, nil
}

func mintOne(exists alias.Checker, kind alias.Kind, gen func() (string, error)) (string, error) {
	const maxAttempts = 20
	for i := 0; i < maxAttempts; i++ {
		candidate, err := gen()
		if err != nil {
			return "", err
		}
		taken, err := exists(candidate, kind)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", alias.ErrGenerationFailed
}

// ExpirationSpec selects the target duration for SetExpiration.
type ExpirationSpec struct {
	Initial bool
	Maximum bool
	// Custom, when neither Initial nor Maximum is set, is the requested
	// duration in seconds.
	Custom *time.Duration
}

// SetExpiration moves the file's expiration to the policy default
// ("initial"), the policy's allowed maximum ("maximum"), or a custom
// duration of at most the allowed maximum (or the default, absent one); a
// longer custom duration is rejected with expiration_too_high, not
// shortened. Returns the resulting (current, allowed) durations.
func (m *Mutator) SetExpiration(ctx context.Context, a, token string, spec ExpirationSpec) (current, allowed time.Duration, err error) {
	id, size, err := m.authorize(ctx, a, token)
	if err != nil {
		return 0, 0, err
	}

	def, allowedPtr, ok := m.expiry.Determine(size)
	if !ok {
		return 0, 0, apierr.New(apierr.CodeTooLarge)
	}
	ceiling := def
	if allowedPtr != nil {
		ceiling = *allowedPtr
	}

	switch {
	case spec.Initial:
		current = def
	case spec.Maximum:
		if allowedPtr == nil {
			return 0, 0, apierr.New(apierr.CodeExpirationTooHigh)
		}
		current = *allowedPtr
	case spec.Custom != nil:
		if *spec.Custom > ceiling {
			return 0, 0, apierr.New(apierr.CodeExpirationTooHigh)
		}
		current = *spec.Custom
	default:
		current = def
	}

	if err := m.meta.UpdateExpiration(ctx, id, time.Now().Add(current)); err != nil {
		return 0, 0, apierr.Wrap(apierr.CodeUnexpectedFileModification, err)
	}
	return current, ceiling, nil
}

// SetDownloads sets the downloads-remaining counter to count. A count of
// 0 or less is rejected with invalid_downloads_count: a caller who writes
// 0 almost certainly means "no more downloads", not "unlimited", so 0 is
// not accepted as a synonym for unlimited. This operation never stores
// null (unlimited).
func (m *Mutator) SetDownloads(ctx context.Context, a, token string, count int64) error {
	id, _, err := m.authorize(ctx, a, token)
	if err != nil {
		return err
	}
	if count == 0 {
		return apierr.New(apierr.CodeInvalidDownloadsCount)
	}
	if count < 0 {
		return apierr.New(apierr.CodeInvalidDownloadsCount)
	}
	if err := m.meta.UpdateDownloads(ctx, id, &count); err != nil {
		return apierr.Wrap(apierr.CodeUnexpectedFileModification, err)
	}
	return nil
}
