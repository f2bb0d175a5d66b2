package infoendpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scotow/dropit/internal/metastore"
)

type fakeStore struct {
	metastore.Store
	shortTaken map[string]bool
	longTaken  map[string]bool
}

func (f fakeStore) AliasExists(_ context.Context, a string, kind metastore.AliasKind) (bool, error) {
	if kind == metastore.AliasLong {
		return f.longTaken[a], nil
	}
	return f.shortTaken[a], nil
}

func TestCheckGroupMixedResults(t *testing.T) {
	store := fakeStore{
		shortTaken: map[string]bool{"aBc23F": true},
		longTaken:  map[string]bool{"one-two-three": true},
	}

	results, err := CheckGroup(context.Background(), store, []string{"aBc23F", "one-two-three", "zZz999", "not valid!!"})
	require.NoError(t, err)
	require.True(t, results["aBc23F"])
	require.True(t, results["one-two-three"])
	require.False(t, results["zZz999"])
	require.False(t, results["not valid!!"])
}
