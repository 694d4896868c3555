package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"loyalty-service/internal/domain/notification"
	"loyalty-service/internal/metrics"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recorder struct {
	mu       sync.Mutex
	seen     []notification.Status
	failWith error
}

func (r *recorder) PublishNotification(n notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n.Status)
}

func (r *recorder) Publish(_ context.Context, n notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, "published")
	return r.failWith
}

func newService(t *testing.T, pub Publisher, b Broadcaster) (*NotificationService, *repository.Collections, *metrics.Metrics) {
	t.Helper()
	cols := repository.NewCollections(store.NewMemoryBackend(), nil)
	m := metrics.New()
	return NewNotificationService(Options{
		Store:       cols.Notifications,
		Publisher:   pub,
		Broadcaster: b,
		Metrics:     m,
	}), cols, m
}

func TestEnqueueThenDeliver(t *testing.T) {
	rec := &recorder{}
	svc, cols, m := newService(t, rec, rec)
	ctx := context.Background()

	n, err := svc.Enqueue(ctx, "cust_1", notification.TypePromo, "You redeemed a promo")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if n.Status != notification.StatusQueued || n.SentAt != nil {
		t.Fatalf("got %+v, want queued without sent_at", n)
	}

	svc.Wait()

	got, err := cols.Notifications.Get(ctx, n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != notification.StatusSent || got.SentAt == nil {
		t.Fatalf("got %+v, want sent with sent_at", got)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []notification.Status{notification.StatusQueued, "published", notification.StatusSent}
	if len(rec.seen) != len(want) {
		t.Fatalf("events %v, want %v", rec.seen, want)
	}
	for i := range want {
		if rec.seen[i] != want[i] {
			t.Fatalf("events %v, want %v", rec.seen, want)
		}
	}
	if v := testutil.ToFloat64(m.Notifications.WithLabelValues("sent")); v != 1 {
		t.Errorf("sent counter = %v, want 1", v)
	}
}

func TestPublishFailureStillSends(t *testing.T) {
	rec := &recorder{failWith: errors.New("broker down")}
	svc, cols, _ := newService(t, rec, nil)
	ctx := context.Background()

	n, err := svc.Enqueue(ctx, "cust_2", notification.TypeReservation, "Booked")
	if err != nil {
		t.Fatal(err)
	}
	svc.Wait()

	got, _ := cols.Notifications.Get(ctx, n.ID)
	if got.Status != notification.StatusSent {
		t.Fatalf("status = %s, want sent", got.Status)
	}
}

func TestEnqueueValidation(t *testing.T) {
	svc, _, _ := newService(t, nil, nil)
	tests := []struct {
		name       string
		customerID string
		typ        notification.NotificationType
		message    string
	}{
		{"missing customer", "", notification.TypePromo, "hi"},
		{"unknown type", "cust_1", "sms", "hi"},
		{"blank message", "cust_1", notification.TypePromo, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Enqueue(context.Background(), tt.customerID, tt.typ, tt.message)
			if !xerrors.Is(err, xerrors.ErrInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
		})
	}
}

func TestListForCustomerNewestFirst(t *testing.T) {
	svc, _, _ := newService(t, nil, nil)
	ctx := context.Background()

	first, _ := svc.Enqueue(ctx, "cust_1", notification.TypePromo, "one")
	_, _ = svc.Enqueue(ctx, "cust_2", notification.TypePromo, "other")
	second, _ := svc.Enqueue(ctx, "cust_1", notification.TypeBirthday, "two")
	svc.Wait()

	list, err := svc.ListForCustomer(ctx, "cust_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("got %+v", list)
	}
}
