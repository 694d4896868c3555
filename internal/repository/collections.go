// Package repository wires each entity kind to a typed store collection.
package repository

import (
	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/feedback"
	"loyalty-service/internal/domain/loyalty"
	"loyalty-service/internal/domain/notification"
	"loyalty-service/internal/domain/promo"
	"loyalty-service/internal/domain/reservation"
	"loyalty-service/internal/domain/transaction"
	"loyalty-service/internal/seed"
	"loyalty-service/internal/store"
)

type (
	CustomerStore     = store.Collection[customer.Customer]
	TransactionStore  = store.Collection[transaction.Transaction]
	PromoStore        = store.Collection[promo.Promo]
	ReservationStore  = store.Collection[reservation.Reservation]
	FeedbackStore     = store.Collection[feedback.Feedback]
	LoyaltyEventStore = store.Collection[loyalty.Event]
	NotificationStore = store.Collection[notification.Notification]
)

// Collections is the store lifecycle object handed to services.
type Collections struct {
	Customers     *CustomerStore
	Transactions  *TransactionStore
	Promos        *PromoStore
	Reservations  *ReservationStore
	Feedback      *FeedbackStore
	LoyaltyEvents *LoyaltyEventStore
	Notifications *NotificationStore

	backend store.Backend
}

// NewCollections binds every kind to b. fx may be nil, in which case seeding
// is a no-op.
func NewCollections(b store.Backend, fx *seed.Fixtures) *Collections {
	if fx == nil {
		fx = &seed.Fixtures{}
	}
	return &Collections{
		backend: b,
		Customers: store.NewCollection(b, store.Descriptor[customer.Customer]{
			Kind:     store.Kind{Entity: "customer", Index: "customers"},
			Zero:     customer.Customer{MembershipLevel: customer.LevelBronze},
			ID:       func(c customer.Customer) string { return c.ID },
			SetID:    func(c *customer.Customer, id string) { c.ID = id },
			Fixtures: fx.Customers,
		}),
		Transactions: store.NewCollection(b, store.Descriptor[transaction.Transaction]{
			Kind:     store.Kind{Entity: "transaction", Index: "transactions"},
			Zero:     transaction.Transaction{PaymentMethod: transaction.PaymentCash},
			ID:       func(t transaction.Transaction) string { return t.ID },
			SetID:    func(t *transaction.Transaction, id string) { t.ID = id },
			Fixtures: fx.Transactions,
		}),
		Promos: store.NewCollection(b, store.Descriptor[promo.Promo]{
			Kind:     store.Kind{Entity: "promo", Index: "promos"},
			Zero:     promo.Promo{PromoType: promo.TypeEvent},
			ID:       func(p promo.Promo) string { return p.ID },
			SetID:    func(p *promo.Promo, id string) { p.ID = id },
			Fixtures: fx.Promos,
		}),
		Reservations: store.NewCollection(b, store.Descriptor[reservation.Reservation]{
			Kind:     store.Kind{Entity: "reservation", Index: "reservations"},
			Zero:     reservation.Reservation{Status: reservation.StatusConfirmed},
			ID:       func(r reservation.Reservation) string { return r.ID },
			SetID:    func(r *reservation.Reservation, id string) { r.ID = id },
			Fixtures: fx.Reservations,
		}),
		Feedback: store.NewCollection(b, store.Descriptor[feedback.Feedback]{
			Kind:     store.Kind{Entity: "feedback", Index: "feedbacks"},
			ID:       func(f feedback.Feedback) string { return f.ID },
			SetID:    func(f *feedback.Feedback, id string) { f.ID = id },
			Fixtures: fx.Feedback,
		}),
		LoyaltyEvents: store.NewCollection(b, store.Descriptor[loyalty.Event]{
			Kind:     store.Kind{Entity: "loyalty_event", Index: "loyalty_events"},
			Zero:     loyalty.Event{PointsMultiplier: 1},
			ID:       func(e loyalty.Event) string { return e.ID },
			SetID:    func(e *loyalty.Event, id string) { e.ID = id },
			Fixtures: fx.LoyaltyEvents,
		}),
		Notifications: store.NewCollection(b, store.Descriptor[notification.Notification]{
			Kind:     store.Kind{Entity: "notification", Index: "notifications"},
			Zero:     notification.Notification{Status: notification.StatusQueued},
			ID:       func(n notification.Notification) string { return n.ID },
			SetID:    func(n *notification.Notification, id string) { n.ID = id },
			Fixtures: fx.Notifications,
		}),
	}
}

// Seeders lists every collection for the seed loader.
func (c *Collections) Seeders() []seed.Seeder {
	return []seed.Seeder{
		c.Customers, c.Transactions, c.Promos, c.Reservations,
		c.Feedback, c.LoyaltyEvents, c.Notifications,
	}
}

func (c *Collections) Close() error {
	return c.backend.Close()
}
