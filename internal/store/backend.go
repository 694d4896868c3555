// Package store holds the generic entity collection and its backends.
//
// A Collection persists one entity kind as JSON documents addressed by id,
// with an index that keeps ids in insertion order for listing.
package store

import (
	"context"

	xerrors "loyalty-service/internal/pkg/errors"
)

// Kind names the storage for one entity type and its id index.
type Kind struct {
	Entity string
	Index  string
}

// Record is one raw document.
type Record struct {
	ID   string
	Data []byte
}

// Backend stores raw documents per kind. Implementations must make Update
// atomic per (kind, id) and SeedIfEmpty atomic per kind.
type Backend interface {
	Exists(ctx context.Context, k Kind, id string) (bool, error)
	Get(ctx context.Context, k Kind, id string) ([]byte, error)
	// Insert fails with ErrConflict when the id is already present.
	Insert(ctx context.Context, k Kind, id string, data []byte) error
	// Update reads, transforms and writes one document without interleaving
	// with any other Update of the same id.
	Update(ctx context.Context, k Kind, id string, fn func([]byte) ([]byte, error)) ([]byte, error)
	Delete(ctx context.Context, k Kind, id string) (bool, error)
	// List returns documents in index order.
	List(ctx context.Context, k Kind) ([][]byte, error)
	Count(ctx context.Context, k Kind) (int, error)
	// SeedIfEmpty inserts records only when the kind holds nothing.
	SeedIfEmpty(ctx context.Context, k Kind, records []Record) (bool, error)
	Close() error
}

var (
	ErrNotFound = xerrors.ErrNotFound
	ErrConflict = xerrors.ErrConflict
)
