package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	xerrors "loyalty-service/internal/pkg/errors"

	"github.com/google/uuid"
)

// Descriptor ties an entity type to its storage kind, default shape and
// fixture rows. Zero is decoded into before every read, so fields missing from
// a stored document keep their default.
type Descriptor[T any] struct {
	Kind     Kind
	Zero     T
	ID       func(T) string
	SetID    func(*T, string)
	Fixtures []T
}

// Collection is the typed view of one entity kind over a Backend.
type Collection[T any] struct {
	backend Backend
	desc    Descriptor[T]
}

func NewCollection[T any](b Backend, d Descriptor[T]) *Collection[T] {
	return &Collection[T]{backend: b, desc: d}
}

func (c *Collection[T]) Name() string { return c.desc.Kind.Entity }

func (c *Collection[T]) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := c.backend.Exists(ctx, c.desc.Kind, id)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", c.Name(), err)
	}
	return ok, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	raw, err := c.backend.Get(ctx, c.desc.Kind, id)
	if err != nil {
		var zero T
		return zero, c.mapErr(err, id)
	}
	return c.decode(raw)
}

// Create assigns an id when v has none and inserts it at the end of the index.
func (c *Collection[T]) Create(ctx context.Context, v T) (T, error) {
	id := c.desc.ID(v)
	if id == "" {
		id = uuid.NewString()
		c.desc.SetID(&v, id)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("failed to encode %s: %w", c.Name(), err)
	}
	if err := c.backend.Insert(ctx, c.desc.Kind, id, data); err != nil {
		return v, c.mapErr(err, id)
	}
	return v, nil
}

// Mutate applies fn to the current state and stores the result. Calls for the
// same id are linearized. An error from fn aborts the write; untyped errors
// come back as Rejected.
func (c *Collection[T]) Mutate(ctx context.Context, id string, fn func(T) (T, error)) (T, error) {
	var fnErr error
	raw, err := c.backend.Update(ctx, c.desc.Kind, id, func(cur []byte) ([]byte, error) {
		v, err := c.decode(cur)
		if err != nil {
			return nil, err
		}
		next, err := fn(v)
		if err != nil {
			fnErr = err
			return nil, err
		}
		c.desc.SetID(&next, id)
		return json.Marshal(next)
	})
	if fnErr != nil {
		var zero T
		var xe *xerrors.Error
		if errors.As(fnErr, &xe) {
			return zero, fnErr
		}
		return zero, xerrors.Rejected(fnErr.Error())
	}
	if err != nil {
		var zero T
		return zero, c.mapErr(err, id)
	}
	return c.decode(raw)
}

// Delete reports false when id was absent.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := c.backend.Delete(ctx, c.desc.Kind, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", c.Name(), err)
	}
	return ok, nil
}

// List returns every entity in insertion order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	raws, err := c.backend.List(ctx, c.desc.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.desc.Kind.Index, err)
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		v, err := c.decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Filter lists the entities matching keep, preserving order.
func (c *Collection[T]) Filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, v := range all {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Find returns the first entity matching match.
func (c *Collection[T]) Find(ctx context.Context, match func(T) bool) (T, bool, error) {
	all, err := c.List(ctx)
	var zero T
	if err != nil {
		return zero, false, err
	}
	for _, v := range all {
		if match(v) {
			return v, true, nil
		}
	}
	return zero, false, nil
}

func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	return c.backend.Count(ctx, c.desc.Kind)
}

// EnsureSeed inserts the fixtures when the kind is empty. Concurrent first
// calls insert them once.
func (c *Collection[T]) EnsureSeed(ctx context.Context) (bool, error) {
	records := make([]Record, 0, len(c.desc.Fixtures))
	for _, f := range c.desc.Fixtures {
		id := c.desc.ID(f)
		if id == "" {
			id = uuid.NewString()
			c.desc.SetID(&f, id)
		}
		data, err := json.Marshal(f)
		if err != nil {
			return false, fmt.Errorf("failed to encode %s fixture: %w", c.Name(), err)
		}
		records = append(records, Record{ID: id, Data: data})
	}
	seeded, err := c.backend.SeedIfEmpty(ctx, c.desc.Kind, records)
	if err != nil {
		return false, fmt.Errorf("failed to seed %s: %w", c.desc.Kind.Index, err)
	}
	return seeded, nil
}

func (c *Collection[T]) decode(raw []byte) (T, error) {
	v := c.desc.Zero
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s: %w", c.Name(), err)
	}
	return v, nil
}

func (c *Collection[T]) mapErr(err error, id string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return xerrors.NotFound(fmt.Sprintf("%s not found", c.Name()))
	case errors.Is(err, ErrConflict):
		return xerrors.New(xerrors.ErrConflict, fmt.Sprintf("%s %s already exists", c.Name(), id))
	default:
		return fmt.Errorf("%s %s: %w", c.Name(), id, err)
	}
}
