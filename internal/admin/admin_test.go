package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scotow/dropit/internal/apierr"
	"github.com/scotow/dropit/internal/blobstore"
	"github.com/scotow/dropit/internal/expiration"
	"github.com/scotow/dropit/internal/metastore"
	"github.com/scotow/dropit/internal/metastore/gormstore"
)

func TestTokenPrefersXAuthorization(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "/abc", nil)
	r.Header.Set("X-Authorization", "x-token")
	r.Header.Set("Authorization", "auth-token")

	token, ok := Token(r)
	require.True(t, ok)
	require.Equal(t, "x-token", token)
}

func TestTokenFallsBackToAuthorization(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "/abc", nil)
	r.Header.Set("Authorization", "auth-token")

	token, ok := Token(r)
	require.True(t, ok)
	require.Equal(t, "auth-token", token)
}

func TestTokenMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "/abc", nil)
	_, ok := Token(r)
	require.False(t, ok)
}

type fakeRecorder struct {
	removedSize int64
	calls       int
}

func (f *fakeRecorder) FileRemoved(size int64) {
	f.calls++
	f.removedSize += size
}

func newTestMutator(t *testing.T, metrics Recorder) (*Mutator, *gormstore.GORMStore, *blobstore.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dropit.db")
	meta, err := gormstore.New(&gormstore.Config{Backend: gormstore.BackendSQLite, SQLite: gormstore.SQLiteConfig{Path: dbPath}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })

	blobs, err := blobstore.New(blobstore.Config{Dir: t.TempDir()})
	require.NoError(t, err)

	expiry, err := expiration.New([]expiration.Threshold{
		{SizeMax: 1 << 20, Default: time.Hour, Allowed: durationPtr(2 * time.Hour)},
		{SizeMax: 1 << 30, Default: 30 * time.Minute, Allowed: durationPtr(time.Hour)},
	})
	require.NoError(t, err)

	return New(meta, blobs, expiry, metrics), meta, blobs
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func seedFile(t *testing.T, meta *gormstore.GORMStore, blobs *blobstore.Store, id, adminToken string, size int64) *metastore.File {
	t.Helper()
	f := &metastore.File{
		ID:         id,
		AdminToken: adminToken,
		Origin:     "127.0.0.1",
		ExpiresAt:  time.Now().Add(time.Hour),
		Size:       size,
		AliasShort: "aBcDeF",
		AliasLong:  "one-two-" + id,
	}
	require.NoError(t, meta.Insert(context.Background(), f))

	w, err := blobs.Create(id)
	require.NoError(t, err)
	_, err = w.Write(make([]byte, size))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	return f
}

func TestRevokeDeletesBlobRowAndRecordsMetrics(t *testing.T) {
	rec := &fakeRecorder{}
	m, meta, blobs := newTestMutator(t, rec)
	seedFile(t, meta, blobs, "id1", "admin-token", 42)

	err := m.Revoke(context.Background(), "aBcDeF", "admin-token")
	require.NoError(t, err)
	require.Equal(t, 1, rec.calls)
	require.Equal(t, int64(42), rec.removedSize)

	_, err = meta.FindByAlias(context.Background(), "aBcDeF")
	require.ErrorIs(t, err, metastore.ErrNotFound)
}

func TestRevokeRejectsMismatchedToken(t *testing.T) {
	rec := &fakeRecorder{}
	m, meta, blobs := newTestMutator(t, rec)
	seedFile(t, meta, blobs, "id1", "admin-token", 10)

	err := m.Revoke(context.Background(), "aBcDeF", "wrong-token")
	require.True(t, apierr.Is(err, apierr.CodeInvalidAdminToken))
	require.Equal(t, 0, rec.calls)
}

func TestRevokeRejectsUnknownAlias(t *testing.T) {
	m, _, _ := newTestMutator(t, nil)
	err := m.Revoke(context.Background(), "zzzzzz", "admin-token")
	require.True(t, apierr.Is(err, apierr.CodeFileNotFound))
}

func TestRegenerateAliasesTargetShort(t *testing.T) {
	m, meta, blobs := newTestMutator(t, nil)
	seedFile(t, meta, blobs, "id1", "admin-token", 10)

	short, long, err := m.RegenerateAliases(context.Background(), "aBcDeF", "admin-token", TargetShort)
	require.NoError(t, err)
	require.NotEmpty(t, short)
	require.Empty(t, long)

	f, err := meta.FindByAlias(context.Background(), short)
	require.NoError(t, err)
	require.Equal(t, "one-two-id1", f.AliasLong)
}

func TestRegenerateAliasesTargetBoth(t *testing.T) {
	m, meta, blobs := newTestMutator(t, nil)
	seedFile(t, meta, blobs, "id1", "admin-token", 10)

	short, long, err := m.RegenerateAliases(context.Background(), "aBcDeF", "admin-token", TargetBoth)
	require.NoError(t, err)
	require.NotEmpty(t, short)
	require.NotEmpty(t, long)
}

func TestSetExpirationInitialUsesPolicyDefault(t *testing.T) {
	m, meta, blobs := newTestMutator(t, nil)
	seedFile(t, meta, blobs, "id1", "admin-token", 10)

	current, allowed, err := m.SetExpiration(context.Background(), "aBcDeF", "admin-token", ExpirationSpec{Initial: true})
	require.NoError(t, err)
	require.Equal(t, time.Hour, current)
	require.Equal(t, 2*time.Hour, allowed)
}

func TestSetExpirationMaximumUsesPolicyCeiling(t *testing.T) {
	m, meta, blobs := newTestMutator(t, nil)
	seedFile(t, meta, blobs, "id1", "admin-token", 10)

	current, _, err := m.SetExpiration(context.Background(), "aBcDeF", "admin-token", ExpirationSpec{Maximum: true})
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, current)
}

func TestSetExpirationCustomWithinCeilingSucceeds(t *testing.T) {
	m, meta, blobs := newTestMutator(t, nil)
	seedFile(t, meta, blobs, "id1", "admin-token", 10)

	custom := 90 * time.Minute
	current, _, err := m.SetExpiration(context.Background(), "aBcDeF", "admin-token", ExpirationSpec{Custom: &custom})
	require.NoError(t, err)
	require.Equal(t, custom, current)
}

func TestSetExpirationCustomAboveCeilingIsRejected(t *testing.T) {
	m, meta, blobs := newTestMutator(t, nil)
	seedFile(t, meta, blobs, "id1", "admin-token", 10)

	custom := 3 * time.Hour
	_, _, err := m.SetExpiration(context.Background(), "aBcDeF", "admin-token", ExpirationSpec{Custom: &custom})
	require.True(t, apierr.Is(err, apierr.CodeExpirationTooHigh))
}

func TestSetDownloadsAcceptsPositiveCount(t *testing.T) {
	m, meta, blobs := newTestMutator(t, nil)
	seedFile(t, meta, blobs, "id1", "admin-token", 10)

	err := m.SetDownloads(context.Background(), "aBcDeF", "admin-token", 3)
	require.NoError(t, err)

	remaining, err := meta.FetchDownloads(context.Background(), "id1")
	require.NoError(t, err)
	require.Equal(t, int64(3), *remaining)
}

func TestSetDownloadsRejectsZeroAndNegative(t *testing.T) {
	m, meta, blobs := newTestMutator(t, nil)
	seedFile(t, meta, blobs, "id1", "admin-token", 10)

	err := m.SetDownloads(context.Background(), "aBcDeF", "admin-token", 0)
	require.True(t, apierr.Is(err, apierr.CodeInvalidDownloadsCount))

	err = m.SetDownloads(context.Background(), "aBcDeF", "admin-token", -1)
	require.True(t, apierr.Is(err, apierr.CodeInvalidDownloadsCount))
}
