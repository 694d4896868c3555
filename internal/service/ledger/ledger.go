// Package ledger records POS transactions and credits loyalty points.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/loyalty"
	"loyalty-service/internal/domain/transaction"
	"loyalty-service/internal/metrics"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"

	"go.uber.org/zap"
)

type LedgerService struct {
	transactions *repository.TransactionStore
	customers    *repository.CustomerStore
	events       *repository.LoyaltyEventStore
	pointsUnit   float64
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewLedgerService(cols *repository.Collections, pointsUnit float64, m *metrics.Metrics, logger *zap.Logger) *LedgerService {
	if pointsUnit <= 0 {
		pointsUnit = 10000
	}
	return &LedgerService{
		transactions: cols.Transactions,
		customers:    cols.Customers,
		events:       cols.LoyaltyEvents,
		pointsUnit:   pointsUnit,
		metrics:      m,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// PointsFor is floor(amount / unit).
func (s *LedgerService) PointsFor(amount float64) int {
	return int(math.Floor(amount / s.pointsUnit))
}

// Sync records a POS transaction once per POS id. A repeated POS id returns
// the stored transaction with replayed set and changes nothing.
func (s *LedgerService) Sync(ctx context.Context, req *transaction.SyncRequest) (transaction.Transaction, bool, error) {
	if err := validateSync(req); err != nil {
		return transaction.Transaction{}, false, err
	}

	id := transaction.IDForPOS(req.PosTransactionID)
	if existing, err := s.transactions.Get(ctx, id); err == nil {
		s.count("replayed")
		return existing, true, nil
	} else if !xerrors.Is(err, xerrors.ErrNotFound) {
		return transaction.Transaction{}, false, err
	}
	// Rows loaded from fixtures or imports are not keyed by POS id.
	if existing, ok, err := s.transactions.Find(ctx, func(t transaction.Transaction) bool {
		return t.PosTransactionID == req.PosTransactionID
	}); err != nil {
		return transaction.Transaction{}, false, err
	} else if ok {
		s.count("replayed")
		return existing, true, nil
	}

	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		customerID = customer.AnonymousID
	}
	method := req.PaymentMethod
	if method == "" {
		method = transaction.PaymentCash
	}
	items := req.Items
	if items == nil {
		items = []transaction.Item{}
	}

	now := s.now()
	txn := transaction.Transaction{
		ID:                  id,
		CustomerID:          customerID,
		TransactionDate:     now,
		TotalAmount:         req.TotalAmount,
		PaymentMethod:       method,
		LoyaltyPointsEarned: s.PointsFor(req.TotalAmount),
		LoyaltyPointsUsed:   req.LoyaltyPointsUsed,
		PosTransactionID:    req.PosTransactionID,
		Items:               items,
		PromoID:             strings.TrimSpace(req.PromoID),
	}

	created, err := s.transactions.Create(ctx, txn)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrConflict) {
			// Lost the race to a concurrent sync of the same POS id.
			existing, getErr := s.transactions.Get(ctx, id)
			if getErr != nil {
				return transaction.Transaction{}, false, getErr
			}
			s.count("replayed")
			return existing, true, nil
		}
		return transaction.Transaction{}, false, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := s.credit(ctx, created, now); err != nil {
		return transaction.Transaction{}, false, err
	}

	s.count("created")
	if s.metrics != nil {
		s.metrics.PointsEarned.Add(float64(created.LoyaltyPointsEarned))
	}
	s.logger.Info("transaction synced",
		zap.String("pos_transaction_id", created.PosTransactionID),
		zap.String("customer_id", created.CustomerID),
		zap.Float64("amount", created.TotalAmount),
		zap.Int("points_earned", created.LoyaltyPointsEarned),
	)
	return created, false, nil
}

// credit applies the visit, spend and points of t to its customer. Unknown
// customers leave the transaction anonymous.
func (s *LedgerService) credit(ctx context.Context, t transaction.Transaction, at time.Time) error {
	if t.CustomerID == customer.AnonymousID {
		return nil
	}
	_, err := s.customers.Mutate(ctx, t.CustomerID, func(c customer.Customer) (customer.Customer, error) {
		c.TotalVisits++
		c.TotalSpent += t.TotalAmount
		c.LoyaltyPoints += t.LoyaltyPointsEarned
		c.LastVisit = at
		return c, nil
	})
	if xerrors.Is(err, xerrors.ErrNotFound) {
		s.logger.Debug("transaction for unknown customer recorded anonymously",
			zap.String("customer_id", t.CustomerID),
			zap.String("transaction_id", t.ID),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to credit customer %s: %w", t.CustomerID, err)
	}
	return nil
}

func validateSync(req *transaction.SyncRequest) error {
	switch {
	case req == nil:
		return xerrors.Validation("request body is required")
	case strings.TrimSpace(req.PosTransactionID) == "":
		return xerrors.Validation("pos_transaction_id is required")
	case req.TotalAmount < 0 || math.IsNaN(req.TotalAmount) || math.IsInf(req.TotalAmount, 0):
		return xerrors.Validation("total_amount must be a non-negative number")
	case req.PaymentMethod != "" && !req.PaymentMethod.Valid():
		return xerrors.Newf(xerrors.ErrInvalidInput, "unknown payment method %q", req.PaymentMethod)
	case req.LoyaltyPointsUsed < 0:
		return xerrors.Validation("loyalty_points_used must not be negative")
	}
	for _, it := range req.Items {
		if it.Quantity < 0 || it.Price < 0 {
			return xerrors.Newf(xerrors.ErrInvalidInput, "item %q has a negative quantity or price", it.Name)
		}
	}
	return nil
}

// CustomerTransactions lists a customer's transactions, newest first.
func (s *LedgerService) CustomerTransactions(ctx context.Context, customerID string) ([]transaction.Transaction, error) {
	list, err := s.transactions.Filter(ctx, func(t transaction.Transaction) bool {
		return t.CustomerID == customerID
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(list)
	return list, nil
}

// Calculate previews the points an amount would earn, optionally under a
// loyalty event's multiplier.
func (s *LedgerService) Calculate(ctx context.Context, amount float64, eventID string) (loyalty.CalculateResponse, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return loyalty.CalculateResponse{}, xerrors.Validation("total_amount must be a non-negative number")
	}
	base := s.PointsFor(amount)
	resp := loyalty.CalculateResponse{PointsEarned: base, BasePoints: base, Multiplier: 1}
	if eventID == "" {
		return resp, nil
	}

	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return loyalty.CalculateResponse{}, err
	}
	if !event.ActiveAt(s.now()) {
		return loyalty.CalculateResponse{}, xerrors.Rejected("loyalty event is not active")
	}
	resp.Multiplier = event.PointsMultiplier
	resp.EventID = event.ID
	resp.PointsEarned = int(math.Floor(amount / s.pointsUnit * event.PointsMultiplier))
	return resp, nil
}

func (s *LedgerService) count(result string) {
	if s.metrics != nil {
		s.metrics.Syncs.WithLabelValues(result).Inc()
	}
}

func sortNewestFirst(list []transaction.Transaction) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].TransactionDate.After(list[j].TransactionDate)
	})
}
