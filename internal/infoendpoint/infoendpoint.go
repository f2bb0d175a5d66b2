// Package infoendpoint implements the alias-existence probe (spec §4.12):
// for each alias in a `+`-joined group, report true/false without
// revealing any other file detail.
package infoendpoint

import (
	"context"

	"github.com/scotow/dropit/internal/alias"
	"github.com/scotow/dropit/internal/metastore"
)

// Check probes a single alias, using whichever column matches its format.
// An alias that matches neither format is simply reported as not found,
// rather than surfacing invalid_alias — the probe never leaks why.
func Check(ctx context.Context, meta metastore.Store, a string) (bool, error) {
	var kind metastore.AliasKind
	switch {
	case alias.IsShort(a):
		kind = metastore.AliasShort
	case alias.IsLong(a):
		kind = metastore.AliasLong
	default:
		return false, nil
	}
	return meta.AliasExists(ctx, a, kind)
}

// CheckGroup probes every alias in aliases and returns the results keyed by
// alias; the map does not preserve the input order.
func CheckGroup(ctx context.Context, meta metastore.Store, aliases []string) (map[string]bool, error) {
	results := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		ok, err := Check(ctx, meta, a)
		if err != nil {
			return nil, err
		}
		results[a] = ok
	}
	return results, nil
}
