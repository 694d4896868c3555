// internal/service/customer/customer.go
package customer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/notification"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/store"

	"go.uber.org/zap"
)

// Notifier queues the welcome message for newly registered customers.
type Notifier interface {
	Enqueue(ctx context.Context, customerID string, typ notification.NotificationType, message string) (notification.Notification, error)
}

type CustomerService struct {
	customers *repository.CustomerStore
	phones    *store.KeyedMutex
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewCustomerService builds the service. notifier may be nil.
func NewCustomerService(customers *repository.CustomerStore, notifier Notifier, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customers: customers,
		phones:    store.NewKeyedMutex(),
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register returns the customer already holding the phone number, or creates
// a Bronze customer with zero stats.
func (s *CustomerService) Register(ctx context.Context, req *customer.RegisterRequest) (*customer.RegisterResponse, error) {
	if req == nil {
		return nil, xerrors.Validation("request body is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, xerrors.Validation("name is required")
	}
	c, existed, err := s.UpsertByPhone(ctx, req.PhoneNumber, name, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, err
	}
	if !existed && s.notifier != nil {
		msg := fmt.Sprintf("Welcome %s! You are now a %s member.", c.Name, c.MembershipLevel)
		if _, err := s.notifier.Enqueue(ctx, c.ID, notification.TypeRegistration, msg); err != nil {
			s.logger.Warn("failed to queue welcome notification", zap.Error(err))
		}
	}
	return &customer.RegisterResponse{Customer: c, Existed: existed}, nil
}

// UpsertByPhone finds the customer by phone or creates a placeholder. Calls
// for one phone number are serialized so a number is registered once.
func (s *CustomerService) UpsertByPhone(ctx context.Context, phone, name, email string) (customer.Customer, bool, error) {
	phone, err := customer.NormalizePhone(phone)
	if err != nil {
		return customer.Customer{}, false, err
	}

	unlock := s.phones.Lock(phone)
	defer unlock()

	existing, ok, err := s.FindByPhone(ctx, phone)
	if err != nil {
		return customer.Customer{}, false, err
	}
	if ok {
		return existing, true, nil
	}

	if name == "" {
		name = "Guest " + phone[max(0, len(phone)-4):]
	}
	now := s.now()
	c, err := s.customers.Create(ctx, customer.Customer{
		PhoneNumber:      phone,
		Name:             name,
		Email:            email,
		MembershipLevel:  customer.LevelBronze,
		RegistrationDate: now,
		LastVisit:        now,
		AvatarURL:        customer.AvatarFor(name),
	})
	if err != nil {
		return customer.Customer{}, false, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("customer registered",
		zap.String("customer_id", c.ID),
		zap.String("membership_level", string(c.MembershipLevel)),
	)
	return c, false, nil
}

func (s *CustomerService) FindByPhone(ctx context.Context, phone string) (customer.Customer, bool, error) {
	return s.customers.Find(ctx, func(c customer.Customer) bool {
		return c.PhoneNumber == phone
	})
}

// Find is the lookup used by customer login.
func (s *CustomerService) Find(ctx context.Context, match func(customer.Customer) bool) (customer.Customer, bool, error) {
	return s.customers.Find(ctx, match)
}

func (s *CustomerService) Get(ctx context.Context, id string) (customer.Customer, error) {
	return s.customers.Get(ctx, id)
}

// GetObfuscated returns the customer with contact details encoded.
func (s *CustomerService) GetObfuscated(ctx context.Context, id string) (customer.Obfuscated, error) {
	c, err := s.customers.Get(ctx, id)
	if err != nil {
		return customer.Obfuscated{}, err
	}
	return c.Obfuscate(), nil
}

func (s *CustomerService) List(ctx context.Context) ([]customer.Customer, error) {
	return s.customers.List(ctx)
}

// Groups counts customers and sums their spend per membership level, lowest
// tier first. Levels without customers are included.
func (s *CustomerService) Groups(ctx context.Context) ([]customer.Group, error) {
	all, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[customer.MembershipLevel]int, len(customer.Levels))
	groups := make([]customer.Group, 0, len(customer.Levels))
	for _, l := range customer.Levels {
		index[l] = len(groups)
		groups = append(groups, customer.Group{Level: l})
	}
	for _, c := range all {
		i, ok := index[c.MembershipLevel]
		if !ok {
			// Unknown levels from imported data sort after the known tiers.
			i = len(groups)
			index[c.MembershipLevel] = i
			groups = append(groups, customer.Group{Level: c.MembershipLevel})
		}
		groups[i].Count++
		groups[i].TotalSpent += c.TotalSpent
	}
	return groups, nil
}
