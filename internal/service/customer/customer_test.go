package customer

import (
	"context"
	"sync"
	"testing"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/notification"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/seed"
	"loyalty-service/internal/store"

	"go.uber.org/zap"
)

type countingNotifier struct {
	mu    sync.Mutex
	types []notification.NotificationType
}

func (n *countingNotifier) Enqueue(_ context.Context, id string, typ notification.NotificationType, msg string) (notification.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, typ)
	return notification.Notification{CustomerID: id, Type: typ, Message: msg}, nil
}

func newCustomerService(t *testing.T, seeded bool) (*CustomerService, *countingNotifier) {
	t.Helper()
	var fx *seed.Fixtures
	if seeded {
		var err error
		if fx, err = seed.Default(); err != nil {
			t.Fatal(err)
		}
	}
	cols := repository.NewCollections(store.NewMemoryBackend(), fx)
	if _, err := cols.Customers.EnsureSeed(context.Background()); err != nil {
		t.Fatal(err)
	}
	n := &countingNotifier{}
	return NewCustomerService(cols.Customers, n, zap.NewNop()), n
}

func TestRegisterIsIdempotentOnPhone(t *testing.T) {
	svc, n := newCustomerService(t, false)
	ctx := context.Background()

	first, err := svc.Register(ctx, &customer.RegisterRequest{PhoneNumber: "+6281111111111", Name: "Ani Wijaya"})
	if err != nil {
		t.Fatal(err)
	}
	if first.Existed || first.MembershipLevel != customer.LevelBronze || first.LoyaltyPoints != 0 || first.TotalVisits != 0 {
		t.Fatalf("got %+v", first)
	}
	if first.AvatarURL != customer.AvatarFor("Ani") {
		t.Fatalf("avatar = %q", first.AvatarURL)
	}

	again, err := svc.Register(ctx, &customer.RegisterRequest{PhoneNumber: "+62 811-1111-1111", Name: "Someone Else"})
	if err != nil {
		t.Fatal(err)
	}
	if !again.Existed || again.ID != first.ID || again.Name != "Ani Wijaya" {
		t.Fatalf("got %+v", again)
	}
	if len(n.types) != 1 || n.types[0] != notification.TypeRegistration {
		t.Fatalf("notifications = %v", n.types)
	}
}

func TestConcurrentRegisterCreatesOne(t *testing.T) {
	svc, _ := newCustomerService(t, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Register(ctx, &customer.RegisterRequest{PhoneNumber: "+628222", Name: "Dewi"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	all, _ := svc.List(ctx)
	if len(all) != 1 {
		t.Fatalf("got %d customers, want 1", len(all))
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newCustomerService(t, false)
	for _, req := range []*customer.RegisterRequest{
		nil,
		{PhoneNumber: "+6281", Name: ""},
		{PhoneNumber: "12ab5678", Name: "Eko"},
		{PhoneNumber: "123", Name: "Eko"},
	} {
		if _, err := svc.Register(context.Background(), req); !xerrors.Is(err, xerrors.ErrInvalidInput) {
			t.Errorf("%+v: err = %v", req, err)
		}
	}
}

func TestGetObfuscated(t *testing.T) {
	svc, _ := newCustomerService(t, true)
	ctx := context.Background()

	plain, _ := svc.Get(ctx, "cust_1")
	o, err := svc.GetObfuscated(ctx, "cust_1")
	if err != nil {
		t.Fatal(err)
	}
	if o.PhoneNumber == plain.PhoneNumber || o.PhoneNumber == "" {
		t.Fatalf("phone not obfuscated: %q", o.PhoneNumber)
	}
	if _, err := svc.GetObfuscated(ctx, "cust_x"); !xerrors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestGroups(t *testing.T) {
	svc, _ := newCustomerService(t, true)
	groups, err := svc.Groups(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 4 {
		t.Fatalf("got %d groups", len(groups))
	}
	for i, l := range customer.Levels {
		if groups[i].Level != l || groups[i].Count != 1 {
			t.Errorf("group %d = %+v", i, groups[i])
		}
	}
	if groups[2].TotalSpent != 12500000 {
		t.Errorf("gold spend = %v", groups[2].TotalSpent)
	}
}
