package blobstore

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateCommitOpen(t *testing.T) {
	store, err := New(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	w, err := store.Create("abc123")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	r, err := store.Open("abc123")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestAbortLeavesNoBlob(t *testing.T) {
	store, err := New(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	w, err := store.Create("aborted")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	_, err = store.Open("aborted")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenMissing(t *testing.T) {
	store, err := New(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.Open("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, err := New(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, store.Delete("never-existed"))

	w, err := store.Create("to-delete")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	require.NoError(t, store.Delete("to-delete"))
	require.NoError(t, store.Delete("to-delete"))

	_, err = store.Open("to-delete")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewRejectsMissingDir(t *testing.T) {
	_, err := New(Config{Dir: "/nonexistent/path/for/sure"})
	require.Error(t, err)
}
