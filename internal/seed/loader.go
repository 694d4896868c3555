package seed

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Seeder is one collection that can populate itself from fixtures.
type Seeder interface {
	Name() string
	EnsureSeed(ctx context.Context) (bool, error)
}

// Loader seeds every collection once per process. A failed run does not
// latch, so the next caller retries.
type Loader struct {
	seeders []Seeder
	logger  *zap.Logger

	mu   sync.Mutex
	done bool
}

func NewLoader(logger *zap.Logger, seeders ...Seeder) *Loader {
	return &Loader{seeders: seeders, logger: logger}
}

// Ensure returns once every collection has been seeded or found non-empty.
func (l *Loader) Ensure(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range l.seeders {
		g.Go(func() error {
			seeded, err := s.EnsureSeed(gctx)
			if err != nil {
				return fmt.Errorf("seed %s: %w", s.Name(), err)
			}
			if seeded {
				l.logger.Info("collection seeded", zap.String("collection", s.Name()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.logger.Error("seeding failed", zap.Error(err))
		return err
	}

	l.done = true
	return nil
}

func (l *Loader) Done() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}
