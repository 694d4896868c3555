// Package storetest runs the same behavioural checks against any store.Backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"loyalty-service/internal/store"
)

type doc struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func collection(b store.Backend, entity string, fixtures ...doc) *store.Collection[doc] {
	return store.NewCollection(b, store.Descriptor[doc]{
		Kind:     store.Kind{Entity: entity, Index: entity + "s"},
		ID:       func(d doc) string { return d.ID },
		SetID:    func(d *doc, id string) { d.ID = id },
		Fixtures: fixtures,
	})
}

// Run exercises b through a Collection. newBackend must return an empty backend.
func Run(t *testing.T, newBackend func(t *testing.T) store.Backend) {
	t.Run("CreateGetList", func(t *testing.T) {
		c := collection(newBackend(t), "doc")
		ctx := context.Background()

		for _, name := range []string{"a", "b", "c"} {
			if _, err := c.Create(ctx, doc{ID: name, Name: name}); err != nil {
				t.Fatalf("create %s: %v", name, err)
			}
		}
		got, err := c.Get(ctx, "b")
		if err != nil || got.Name != "b" {
			t.Fatalf("get b = %+v, %v", got, err)
		}
		all, err := c.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
			t.Errorf("list order = %+v", all)
		}
	})

	t.Run("CreateAssignsID", func(t *testing.T) {
		c := collection(newBackend(t), "doc")
		v, err := c.Create(context.Background(), doc{Name: "x"})
		if err != nil {
			t.Fatal(err)
		}
		if v.ID == "" {
			t.Fatal("expected generated id")
		}
		if ok, _ := c.Exists(context.Background(), v.ID); !ok {
			t.Error("expected created doc to exist")
		}
	})

	t.Run("CreateConflict", func(t *testing.T) {
		c := collection(newBackend(t), "doc")
		ctx := context.Background()
		if _, err := c.Create(ctx, doc{ID: "dup"}); err != nil {
			t.Fatal(err)
		}
		_, err := c.Create(ctx, doc{ID: "dup"})
		if !errors.Is(err, store.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		c := collection(newBackend(t), "doc")
		_, err := c.Get(context.Background(), "nope")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("MutateAbortsOnError", func(t *testing.T) {
		c := collection(newBackend(t), "doc")
		ctx := context.Background()
		c.Create(ctx, doc{ID: "m", Count: 1})

		_, err := c.Mutate(ctx, "m", func(d doc) (doc, error) {
			d.Count = 99
			return d, fmt.Errorf("nope")
		})
		if err == nil {
			t.Fatal("expected error")
		}
		got, _ := c.Get(ctx, "m")
		if got.Count != 1 {
			t.Errorf("count = %d, want 1", got.Count)
		}
	})

	t.Run("MutateMissing", func(t *testing.T) {
		c := collection(newBackend(t), "doc")
		_, err := c.Mutate(context.Background(), "ghost", func(d doc) (doc, error) { return d, nil })
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("ConcurrentMutateNoLostUpdates", func(t *testing.T) {
		c := collection(newBackend(t), "doc")
		ctx := context.Background()
		c.Create(ctx, doc{ID: "ctr"})

		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := c.Mutate(ctx, "ctr", func(d doc) (doc, error) {
					d.Count++
					return d, nil
				}); err != nil {
					t.Error(err)
				}
			}()
		}
		wg.Wait()

		got, _ := c.Get(ctx, "ctr")
		if got.Count != n {
			t.Errorf("count = %d, want %d", got.Count, n)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c := collection(newBackend(t), "doc")
		ctx := context.Background()
		c.Create(ctx, doc{ID: "a"})
		c.Create(ctx, doc{ID: "b"})

		ok, err := c.Delete(ctx, "a")
		if err != nil || !ok {
			t.Fatalf("delete = %v, %v", ok, err)
		}
		ok, _ = c.Delete(ctx, "a")
		if ok {
			t.Error("second delete should report false")
		}
		all, _ := c.List(ctx)
		if len(all) != 1 || all[0].ID != "b" {
			t.Errorf("list after delete = %+v", all)
		}
	})

	t.Run("SeedOnce", func(t *testing.T) {
		c := collection(newBackend(t), "doc", doc{ID: "f1"}, doc{ID: "f2"}, doc{ID: "f3"})
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := c.EnsureSeed(ctx); err != nil {
					t.Error(err)
				}
			}()
		}
		wg.Wait()

		n, err := c.Count(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n != 3 {
			t.Errorf("count = %d, want 3", n)
		}
		seeded, _ := c.EnsureSeed(ctx)
		if seeded {
			t.Error("seed should be a no-op once data exists")
		}
	})

	t.Run("SeedSkipsNonEmpty", func(t *testing.T) {
		c := collection(newBackend(t), "doc", doc{ID: "f1"})
		ctx := context.Background()
		c.Create(ctx, doc{ID: "live"})

		seeded, err := c.EnsureSeed(ctx)
		if err != nil || seeded {
			t.Fatalf("seed = %v, %v", seeded, err)
		}
		if ok, _ := c.Exists(ctx, "f1"); ok {
			t.Error("fixture inserted into non-empty kind")
		}
	})

	t.Run("KindsAreIsolated", func(t *testing.T) {
		b := newBackend(t)
		a, other := collection(b, "alpha"), collection(b, "beta")
		ctx := context.Background()
		a.Create(ctx, doc{ID: "same"})
		if _, err := other.Create(ctx, doc{ID: "same"}); err != nil {
			t.Fatalf("same id in another kind: %v", err)
		}
		n, _ := a.Count(ctx)
		if n != 1 {
			t.Errorf("alpha count = %d", n)
		}
	})
}
