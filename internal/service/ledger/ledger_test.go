package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/transaction"
	"loyalty-service/internal/metrics"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/seed"
	"loyalty-service/internal/store"

	"go.uber.org/zap"
)

func newLedger(t *testing.T) (*LedgerService, *repository.Collections) {
	t.Helper()
	fx, err := seed.Default()
	if err != nil {
		t.Fatal(err)
	}
	cols := repository.NewCollections(store.NewMemoryBackend(), fx)
	for _, s := range cols.Seeders() {
		if _, err := s.EnsureSeed(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return NewLedgerService(cols, 10000, metrics.New(), zap.NewNop()), cols
}

func register(t *testing.T, cols *repository.Collections, phone, name string) customer.Customer {
	t.Helper()
	c, err := cols.Customers.Create(context.Background(), customer.Customer{
		PhoneNumber:      phone,
		Name:             name,
		MembershipLevel:  customer.LevelBronze,
		RegistrationDate: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSyncCreditsCustomerOnce(t *testing.T) {
	svc, cols := newLedger(t)
	ctx := context.Background()
	ani := register(t, cols, "+6281111111111", "Ani")

	req := &transaction.SyncRequest{PosTransactionID: "pos_1", CustomerID: ani.ID, TotalAmount: 120000}
	txn, replayed, err := svc.Sync(ctx, req)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if replayed || txn.LoyaltyPointsEarned != 12 || txn.PaymentMethod != transaction.PaymentCash {
		t.Fatalf("got %+v replayed=%v", txn, replayed)
	}

	again, replayed, err := svc.Sync(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !replayed || again.ID != txn.ID {
		t.Fatalf("replay returned %+v replayed=%v", again, replayed)
	}

	got, _ := cols.Customers.Get(ctx, ani.ID)
	if got.LoyaltyPoints != 12 || got.TotalVisits != 1 || got.TotalSpent != 120000 {
		t.Fatalf("customer = %+v, want 12 points, 1 visit", got)
	}
}

func TestSyncReplaysFixtureTransaction(t *testing.T) {
	svc, cols := newLedger(t)
	ctx := context.Background()
	before, _ := cols.Customers.Get(ctx, "cust_1")

	txn, replayed, err := svc.Sync(ctx, &transaction.SyncRequest{PosTransactionID: "pos_1001", CustomerID: "cust_1", TotalAmount: 999999})
	if err != nil {
		t.Fatal(err)
	}
	if !replayed || txn.ID != "txn_1" {
		t.Fatalf("got %+v replayed=%v, want txn_1 replayed", txn, replayed)
	}
	after, _ := cols.Customers.Get(ctx, "cust_1")
	if after.LoyaltyPoints != before.LoyaltyPoints {
		t.Fatalf("points changed %d -> %d", before.LoyaltyPoints, after.LoyaltyPoints)
	}
}

func TestConcurrentDuplicateSyncCreditsOnce(t *testing.T) {
	svc, cols := newLedger(t)
	ctx := context.Background()
	c := register(t, cols, "+620001", "Budi")

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, replayed, err := svc.Sync(ctx, &transaction.SyncRequest{PosTransactionID: "pos_dup", CustomerID: c.ID, TotalAmount: 50000})
			if err != nil {
				t.Error(err)
				return
			}
			if !replayed {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("created %d transactions, want 1", created)
	}
	got, _ := cols.Customers.Get(ctx, c.ID)
	if got.LoyaltyPoints != 5 || got.TotalVisits != 1 {
		t.Fatalf("customer = %+v, want 5 points and 1 visit", got)
	}
}

func TestConcurrentSyncsNoLostUpdates(t *testing.T) {
	svc, cols := newLedger(t)
	ctx := context.Background()
	before, _ := cols.Customers.Get(ctx, "cust_3")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, _, err := svc.Sync(ctx, &transaction.SyncRequest{
				PosTransactionID: fmt.Sprintf("pos_burst_%d", i),
				CustomerID:       "cust_3",
				TotalAmount:      30000,
			}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	after, _ := cols.Customers.Get(ctx, "cust_3")
	if want := before.LoyaltyPoints + n*3; after.LoyaltyPoints != want {
		t.Fatalf("points = %d, want %d", after.LoyaltyPoints, want)
	}
	if want := before.TotalVisits + n; after.TotalVisits != want {
		t.Fatalf("visits = %d, want %d", after.TotalVisits, want)
	}
}

func TestSyncAnonymous(t *testing.T) {
	svc, cols := newLedger(t)
	ctx := context.Background()

	txn, _, err := svc.Sync(ctx, &transaction.SyncRequest{PosTransactionID: "pos_anon", TotalAmount: 20000})
	if err != nil {
		t.Fatal(err)
	}
	if txn.CustomerID != customer.AnonymousID {
		t.Fatalf("customer_id = %q", txn.CustomerID)
	}

	txn, _, err = svc.Sync(ctx, &transaction.SyncRequest{PosTransactionID: "pos_ghost", CustomerID: "cust_missing", TotalAmount: 20000})
	if err != nil {
		t.Fatalf("unknown customer: %v", err)
	}
	if ok, _ := cols.Customers.Exists(ctx, "cust_missing"); ok {
		t.Fatal("unknown customer must not be created")
	}
	if txn.CustomerID != "cust_missing" {
		t.Fatalf("customer_id = %q", txn.CustomerID)
	}
}

func TestSyncValidation(t *testing.T) {
	svc, _ := newLedger(t)
	tests := []struct {
		name string
		req  *transaction.SyncRequest
	}{
		{"nil", nil},
		{"missing pos id", &transaction.SyncRequest{TotalAmount: 1}},
		{"negative amount", &transaction.SyncRequest{PosTransactionID: "p", TotalAmount: -1}},
		{"bad payment", &transaction.SyncRequest{PosTransactionID: "p", PaymentMethod: "Barter"}},
		{"negative item", &transaction.SyncRequest{PosTransactionID: "p", Items: []transaction.Item{{Name: "tea", Quantity: -1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Sync(context.Background(), tt.req); !xerrors.Is(err, xerrors.ErrInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
		})
	}
}

func TestCustomerTransactionsNewestFirst(t *testing.T) {
	svc, _ := newLedger(t)
	list, err := svc.CustomerTransactions(context.Background(), "cust_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d transactions, want 2", len(list))
	}
	if list[0].TransactionDate.Before(list[1].TransactionDate) {
		t.Fatal("expected newest first")
	}
}

func TestCalculate(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	resp, err := svc.Calculate(ctx, 125000, "")
	if err != nil || resp.PointsEarned != 12 || resp.Multiplier != 1 {
		t.Fatalf("got %+v, %v", resp, err)
	}

	resp, err = svc.Calculate(ctx, 125000, "evt_1")
	if err != nil || resp.PointsEarned != 25 || resp.BasePoints != 12 {
		t.Fatalf("with event got %+v, %v", resp, err)
	}

	if _, err := svc.Calculate(ctx, 125000, "evt_2"); !xerrors.Is(err, xerrors.ErrRejected) {
		t.Fatalf("inactive event err = %v", err)
	}
	if _, err := svc.Calculate(ctx, 1, "evt_missing"); !xerrors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("missing event err = %v", err)
	}
}
