// Package promo evaluates promo eligibility and redeems promos for points.
package promo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/notification"
	"loyalty-service/internal/domain/promo"
	"loyalty-service/internal/metrics"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"

	"go.uber.org/zap"
)

// TierPolicy decides which membership levels qualify for a membership promo.
type TierPolicy string

const (
	TierExact   TierPolicy = "exact"
	TierAtLeast TierPolicy = "at_least"
)

// Notifier queues the customer message sent after a redemption.
type Notifier interface {
	Enqueue(ctx context.Context, customerID string, typ notification.NotificationType, message string) (notification.Notification, error)
}

type Options struct {
	Collections    *repository.Collections
	Rules          *RuleEngine
	RedemptionCost int
	TierPolicy     TierPolicy
	Notifier       Notifier
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

type PromoService struct {
	promos    *repository.PromoStore
	customers *repository.CustomerStore
	rules     *RuleEngine
	cost      int
	policy    TierPolicy
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewPromoService(opts Options) *PromoService {
	cost := opts.RedemptionCost
	if cost <= 0 {
		cost = 50
	}
	policy := opts.TierPolicy
	if policy != TierAtLeast {
		policy = TierExact
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromoService{
		promos:    opts.Collections.Promos,
		customers: opts.Collections.Customers,
		rules:     opts.Rules,
		cost:      cost,
		policy:    policy,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Cost is the number of points one redemption debits.
func (s *PromoService) Cost() int { return s.cost }

// Eligible reports whether c may use p, ignoring its time window and
// the customer's balance.
func (s *PromoService) Eligible(p promo.Promo, c customer.Customer) (bool, error) {
	if p.PromoType == promo.TypeMembership && !s.tierMatches(p.Tier, c.MembershipLevel) {
		return false, nil
	}
	if p.EligibilityRule == "" {
		return true, nil
	}
	if s.rules == nil {
		return false, fmt.Errorf("promo %s has a rule but no rule engine is configured", p.ID)
	}
	return s.rules.Evaluate(p.EligibilityRule, c)
}

func (s *PromoService) tierMatches(tier string, level customer.MembershipLevel) bool {
	want, ok := customer.ParseLevel(tier)
	if !ok {
		return false
	}
	if s.policy == TierAtLeast {
		return level.Rank() >= want.Rank()
	}
	return strings.EqualFold(string(want), string(level))
}

// Redeem debits the redemption cost from the customer. The balance check runs
// inside the same atomic mutation as the debit.
func (s *PromoService) Redeem(ctx context.Context, promoID, customerID string) (customer.Customer, error) {
	if promoID == "" || customerID == "" {
		return customer.Customer{}, xerrors.Validation("promo_id and customer_id are required")
	}
	p, err := s.promos.Get(ctx, promoID)
	if err != nil {
		return customer.Customer{}, err
	}
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return customer.Customer{}, err
	}
	if !p.ActiveAt(s.now()) {
		s.countRedemption("rejected")
		return customer.Customer{}, xerrors.Rejected("promo is not active")
	}

	updated, err := s.customers.Mutate(ctx, customerID, func(c customer.Customer) (customer.Customer, error) {
		ok, err := s.Eligible(p, c)
		if err != nil {
			return c, fmt.Errorf("failed to evaluate eligibility: %w", err)
		}
		if !ok {
			return c, xerrors.Rejected("customer is not eligible for this promo")
		}
		if c.LoyaltyPoints < s.cost {
			return c, xerrors.Rejected("insufficient points")
		}
		c.LoyaltyPoints -= s.cost
		return c, nil
	})
	if err != nil {
		if xerrors.Is(err, xerrors.ErrRejected) {
			s.countRedemption("rejected")
		}
		return customer.Customer{}, err
	}
	s.countRedemption("ok")

	s.logger.Info("promo redeemed",
		zap.String("promo_id", p.ID),
		zap.String("customer_id", updated.ID),
		zap.Int("cost", s.cost),
		zap.Int("balance", updated.LoyaltyPoints),
	)

	if s.notifier != nil {
		msg := fmt.Sprintf("Hi %s, you redeemed %q for %d points. Remaining balance: %d.",
			updated.Name, p.PromoName, s.cost, updated.LoyaltyPoints)
		if _, err := s.notifier.Enqueue(ctx, updated.ID, notification.TypePromo, msg); err != nil {
			s.logger.Warn("failed to queue redemption notification", zap.Error(err))
		}
	}
	return updated, nil
}

func (s *PromoService) countRedemption(result string) {
	if s.metrics != nil {
		s.metrics.Redemptions.WithLabelValues(result).Inc()
	}
}

// List returns every promo, or when customerID is set, the promos that
// customer can redeem right now.
func (s *PromoService) List(ctx context.Context, customerID string) ([]promo.Promo, error) {
	if customerID == "" {
		return s.promos.List(ctx)
	}
	c, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	all, err := s.promos.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]promo.Promo, 0, len(all))
	for _, p := range all {
		if !p.ActiveAt(now) {
			continue
		}
		ok, err := s.Eligible(p, c)
		if err != nil {
			s.logger.Warn("skipping promo with failing rule", zap.String("promo_id", p.ID), zap.Error(err))
			continue
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Active lists promos that are flagged active and inside their window.
func (s *PromoService) Active(ctx context.Context) ([]promo.Promo, error) {
	now := s.now()
	return s.promos.Filter(ctx, func(p promo.Promo) bool { return p.ActiveAt(now) })
}

func (s *PromoService) Get(ctx context.Context, id string) (promo.Promo, error) {
	return s.promos.Get(ctx, id)
}

func (s *PromoService) Create(ctx context.Context, req *promo.CreatePromoRequest) (promo.Promo, error) {
	if req == nil {
		return promo.Promo{}, xerrors.Validation("request body is required")
	}
	p := promo.Promo{
		PromoName:          strings.TrimSpace(req.PromoName),
		PromoType:          req.PromoType,
		Tier:               strings.TrimSpace(req.Tier),
		Description:        req.Description,
		StartDate:          req.StartDate.UTC(),
		EndDate:            req.EndDate.UTC(),
		IsActive:           true,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
		MinimumPurchase:    req.MinimumPurchase,
		EligibilityRule:    strings.TrimSpace(req.EligibilityRule),
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := s.validate(&p); err != nil {
		return promo.Promo{}, err
	}
	created, err := s.promos.Create(ctx, p)
	if err != nil {
		return promo.Promo{}, fmt.Errorf("failed to create promo: %w", err)
	}
	s.logger.Info("promo created", zap.String("promo_id", created.ID), zap.String("type", string(created.PromoType)))
	return created, nil
}

func (s *PromoService) Update(ctx context.Context, id string, req *promo.UpdatePromoRequest) (promo.Promo, error) {
	if req == nil {
		return promo.Promo{}, xerrors.Validation("request body is required")
	}
	return s.promos.Mutate(ctx, id, func(p promo.Promo) (promo.Promo, error) {
		if req.PromoName != nil {
			p.PromoName = strings.TrimSpace(*req.PromoName)
		}
		if req.PromoType != nil {
			p.PromoType = *req.PromoType
		}
		if req.Tier != nil {
			p.Tier = strings.TrimSpace(*req.Tier)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.StartDate != nil {
			p.StartDate = req.StartDate.UTC()
		}
		if req.EndDate != nil {
			p.EndDate = req.EndDate.UTC()
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}
		if req.DiscountPercentage != nil {
			p.DiscountPercentage = req.DiscountPercentage
		}
		if req.DiscountAmount != nil {
			p.DiscountAmount = req.DiscountAmount
		}
		if req.MinimumPurchase != nil {
			p.MinimumPurchase = req.MinimumPurchase
		}
		if req.EligibilityRule != nil {
			p.EligibilityRule = strings.TrimSpace(*req.EligibilityRule)
		}
		if err := s.validate(&p); err != nil {
			return p, err
		}
		return p, nil
	})
}

func (s *PromoService) Delete(ctx context.Context, id string) error {
	ok, err := s.promos.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return xerrors.NotFound("promo not found")
	}
	s.logger.Info("promo deleted", zap.String("promo_id", id))
	return nil
}

func (s *PromoService) validate(p *promo.Promo) error {
	if len(p.PromoName) < 3 {
		return xerrors.Validation("promo_name must be at least 3 characters")
	}
	if !p.PromoType.Valid() {
		return xerrors.Newf(xerrors.ErrInvalidInput, "unknown promo type %q", p.PromoType)
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return xerrors.Validation("start_date and end_date are required")
	}
	if p.EndDate.Before(p.StartDate) {
		return xerrors.Validation("end_date must not be before start_date")
	}
	if p.PromoType == promo.TypeMembership {
		level, ok := customer.ParseLevel(p.Tier)
		if !ok {
			return xerrors.Validation("membership promos need a tier of Bronze, Silver, Gold or Platinum")
		}
		p.Tier = string(level)
	}
	if p.EligibilityRule != "" {
		if s.rules == nil {
			return xerrors.Validation("eligibility rules are not supported")
		}
		if _, err := s.rules.Compile(p.EligibilityRule); err != nil {
			return xerrors.Newf(xerrors.ErrInvalidInput, "invalid eligibility_rule: %v", err)
		}
	}
	return nil
}
