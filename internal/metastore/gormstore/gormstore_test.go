package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scotow/dropit/internal/metastore"
)

func newTestStore(t *testing.T) *GORMStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dropit.db")
	store, err := New(&Config{Backend: BackendSQLite, SQLite: SQLiteConfig{Path: path}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleFile(id string) *metastore.File {
	return &metastore.File{
		ID:         id,
		AdminToken: "admin-" + id,
		Origin:     "127.0.0.1",
		ExpiresAt:  time.Now().Add(time.Hour),
		Name:       "hello.txt",
		Size:       1024,
		AliasShort: "aBcDeF",
		AliasLong:  "one-two-" + id,
	}
}

func TestInsertThenFindByEitherAlias(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	f := sampleFile("id1")
	require.NoError(t, store.Insert(ctx, f))

	byShort, err := store.FindByAlias(ctx, f.AliasShort)
	require.NoError(t, err)
	require.Equal(t, f.ID, byShort.ID)

	byLong, err := store.FindByAlias(ctx, f.AliasLong)
	require.NoError(t, err)
	require.Equal(t, f.ID, byLong.ID)
}

func TestInsertRejectsDuplicateAlias(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	f1 := sampleFile("id1")
	require.NoError(t, store.Insert(ctx, f1))

	f2 := sampleFile("id2")
	f2.AliasShort = f1.AliasShort
	err := store.Insert(ctx, f2)
	require.ErrorIs(t, err, metastore.ErrAliasTaken)
}

func TestAuthorizeMismatchAndMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	f := sampleFile("id1")
	require.NoError(t, store.Insert(ctx, f))

	id, size, err := store.Authorize(ctx, f.AliasShort, f.AdminToken)
	require.NoError(t, err)
	require.Equal(t, f.ID, id)
	require.Equal(t, f.Size, size)

	_, _, err = store.Authorize(ctx, f.AliasShort, "wrong-token")
	require.ErrorIs(t, err, metastore.ErrTokenMismatch)

	_, _, err = store.Authorize(ctx, "zZzZzZ", f.AdminToken)
	require.ErrorIs(t, err, metastore.ErrNotFound)
}

func TestDownloadsDecrementAndFetch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	f := sampleFile("id1")
	remaining := int64(3)
	f.DownloadsRemaining = &remaining
	require.NoError(t, store.Insert(ctx, f))

	got, err := store.FetchDownloads(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), *got)

	next := int64(2)
	require.NoError(t, store.UpdateDownloads(ctx, f.ID, &next))

	got, err = store.FetchDownloads(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), *got)
}

func TestSumOriginAndSumGlobal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := sampleFile("id1")
	a.Origin = "10.0.0.1"
	a.Size = 100
	require.NoError(t, store.Insert(ctx, a))

	b := sampleFile("id2")
	b.Origin = "10.0.0.1"
	b.Size = 200
	b.AliasShort = "gGhHiI"
	b.AliasLong = "three-four-id2"
	require.NoError(t, store.Insert(ctx, b))

	c := sampleFile("id3")
	c.Origin = "10.0.0.2"
	c.Size = 50
	c.AliasShort = "jJkKlL"
	c.AliasLong = "five-six-id3"
	require.NoError(t, store.Insert(ctx, c))

	usage, err := store.SumOrigin(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, int64(300), usage.TotalSize)
	require.Equal(t, int64(2), usage.Count)

	total, err := store.SumGlobal(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(350), total)
}

func TestSelectExpiredAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	expired := sampleFile("id1")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Insert(ctx, expired))

	live := sampleFile("id2")
	live.AliasShort = "gGhHiI"
	live.AliasLong = "three-four-id2"
	require.NoError(t, store.Insert(ctx, live))

	expiredRows, err := store.SelectExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, []metastore.ExpiredFile{{ID: "id1", Size: expired.Size}}, expiredRows)

	require.NoError(t, store.Delete(ctx, "id1"))
	_, err = store.FindByAlias(ctx, expired.AliasShort)
	require.ErrorIs(t, err, metastore.ErrNotFound)
}

func TestWithinAdmissionTransactionRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	f := sampleFile("id1")
	err := store.WithinAdmissionTransaction(ctx, func(tx metastore.Store) error {
		if err := tx.Insert(ctx, f); err != nil {
			return err
		}
		return context.DeadlineExceeded
	})
	require.Error(t, err)

	_, err = store.FindByAlias(ctx, f.AliasShort)
	require.ErrorIs(t, err, metastore.ErrNotFound)
}

func TestUpdateAliasesAffectsExactlyOneRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	f := sampleFile("id1")
	require.NoError(t, store.Insert(ctx, f))

	require.NoError(t, store.UpdateAliases(ctx, f.ID, "zZxXcCv", ""))

	got, err := store.FindByAlias(ctx, "zZxXcCv")
	require.NoError(t, err)
	require.Equal(t, f.ID, got.ID)

	err = store.UpdateAliases(ctx, "missing-id", "bBnNmMq", "")
	require.ErrorIs(t, err, metastore.ErrNotFound)
}
