package seed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

type fakeSeeder struct {
	name  string
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *fakeSeeder) Name() string { return f.name }

func (f *fakeSeeder) EnsureSeed(context.Context) (bool, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return false, errors.New("backend down")
	}
	return true, nil
}

func TestLoaderRunsOnce(t *testing.T) {
	a, b := &fakeSeeder{name: "a"}, &fakeSeeder{name: "b"}
	l := NewLoader(zap.NewNop(), a, b)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Ensure(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Errorf("calls a=%d b=%d, want 1 each", a.calls.Load(), b.calls.Load())
	}
	if !l.Done() {
		t.Error("expected loader to be done")
	}
}

func TestLoaderRetriesAfterFailure(t *testing.T) {
	s := &fakeSeeder{name: "flaky"}
	s.fail.Store(true)
	l := NewLoader(zap.NewNop(), s)

	if err := l.Ensure(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if l.Done() {
		t.Fatal("failed run must not latch")
	}

	s.fail.Store(false)
	if err := l.Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", s.calls.Load())
	}
}

func TestDefaultFixtures(t *testing.T) {
	fx, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if len(fx.Customers) == 0 || len(fx.Promos) == 0 || len(fx.Transactions) == 0 {
		t.Fatalf("fixtures look empty: %+v", fx)
	}

	seen := map[string]bool{}
	for _, c := range fx.Customers {
		if seen[c.PhoneNumber] {
			t.Errorf("duplicate phone %s", c.PhoneNumber)
		}
		seen[c.PhoneNumber] = true
		if c.LoyaltyPoints < 0 {
			t.Errorf("%s has negative points", c.ID)
		}
	}
	if fx.Transactions[0].TransactionDate.IsZero() {
		t.Error("transaction date not parsed")
	}
	if fx.Promos[2].Tier != "Gold" {
		t.Errorf("promo tier = %q", fx.Promos[2].Tier)
	}
}
