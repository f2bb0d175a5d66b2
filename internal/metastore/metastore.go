// Package metastore defines the transactional metadata store: the files
// table and the operations pipelines need to create, resolve, mutate and
// reap file records. Implementations live in sibling packages (gormstore).
package metastore

import (
	"context"
	"errors"
	"time"
)

// File is the central metadata entity (spec §3).
type File struct {
	ID                 string    // opaque id, also the blobstore filename
	AdminToken         string    // opaque secret, lower-case hex
	Origin             string    // quota key: IP literal or username
	ExpiresAt          time.Time // absolute expiration
	Name               string    // sanitized, optional
	Size               int64     // declared/actual byte length
	AliasShort         string    // unique, ^[A-HJ-NP-Za-hjkmnp-z2-9]{6}$
	AliasLong          string    // unique, ^[a-z]{3,}(-[a-z]{3,}){2}$
	DownloadsRemaining *int64    // nil means unlimited
	CreatedAt          time.Time
}

// AliasKind discriminates which alias column a probe addresses.
type AliasKind int

const (
	AliasShort AliasKind = iota
	AliasLong
)

var (
	// ErrNotFound is returned when a lookup finds no matching row.
	ErrNotFound = errors.New("metastore: not found")
	// ErrAliasTaken is returned by Insert/UpdateAliases on a unique violation.
	ErrAliasTaken = errors.New("metastore: alias already in use")
	// ErrTokenMismatch is returned by Authorize when the admin token doesn't match.
	ErrTokenMismatch = errors.New("metastore: admin token mismatch")
)

// OriginUsage is the result of a per-origin quota probe.
type OriginUsage struct {
	TotalSize int64
	Count     int64
}

// ExpiredFile is one row returned by SelectExpired: enough to delete the
// blob and account for it in metrics without a second lookup.
type ExpiredFile struct {
	ID   string
	Size int64
}

// Store is the MetaStore interface consumed by the pipelines (spec §4.2).
// Every method is one logical statement. Mutating methods are expected to
// be serialized through a single writer connection by the implementation.
type Store interface {
	// Insert stores a new file row. Returns ErrAliasTaken on a unique
	// constraint violation of either alias column.
	Insert(ctx context.Context, f *File) error

	// FindByAlias returns the row whose short or long alias equals alias.
	FindByAlias(ctx context.Context, alias string) (*File, error)

	// AliasExists probes whether alias is already used as the given kind.
	AliasExists(ctx context.Context, alias string, kind AliasKind) (bool, error)

	// Authorize returns the id and size of the file referenced by alias if
	// adminToken (compared case-insensitively) matches. Returns
	// ErrNotFound or ErrTokenMismatch otherwise.
	Authorize(ctx context.Context, alias, adminToken string) (id string, size int64, err error)

	// Delete removes the row for id. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// UpdateAliases sets one or both alias columns for id. Either argument
	// may be empty to leave that column untouched.
	UpdateAliases(ctx context.Context, id, short, long string) error

	// UpdateExpiration sets expires_at for id.
	UpdateExpiration(ctx context.Context, id string, expiresAt time.Time) error

	// UpdateDownloads sets downloads_remaining for id; nil means unlimited.
	UpdateDownloads(ctx context.Context, id string, remaining *int64) error

	// FetchDownloads returns the current downloads_remaining for id.
	FetchDownloads(ctx context.Context, id string) (*int64, error)

	// SumOrigin returns the aggregate size and count of live files for origin.
	SumOrigin(ctx context.Context, origin string) (OriginUsage, error)

	// SumGlobal returns the aggregate size of all live files.
	SumGlobal(ctx context.Context) (int64, error)

	// SelectExpired returns the id and size of all files whose expiration
	// has passed as of now.
	SelectExpired(ctx context.Context, now time.Time) ([]ExpiredFile, error)

	// WithinAdmissionTransaction runs fn inside the same transactional
	// snapshot used for quota evaluation and insertion (spec §4.5): quota
	// predicates and the insert must observe a consistent view so two
	// concurrent uploads cannot both pass the boundary check.
	WithinAdmissionTransaction(ctx context.Context, fn func(tx Store) error) error

	// WithinDownloadTransaction runs fn with a store bound to one
	// transaction, for the fetch-then-decrement-or-delete sequence in the
	// download pipeline's counter accounting.
	WithinDownloadTransaction(ctx context.Context, fn func(tx Store) error) error

	// Close releases underlying resources.
	Close() error
}
