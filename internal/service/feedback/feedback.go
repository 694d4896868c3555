// Package feedback records customer ratings of their transactions.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loyalty-service/internal/domain/feedback"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"

	"go.uber.org/zap"
)

type FeedbackService struct {
	feedback     *repository.FeedbackStore
	customers    *repository.CustomerStore
	transactions *repository.TransactionStore
	logger       *zap.Logger
}

func NewFeedbackService(cols *repository.Collections, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{
		feedback:     cols.Feedback,
		customers:    cols.Customers,
		transactions: cols.Transactions,
		logger:       logger,
	}
}

// Create stores a rating for one of the customer's own transactions.
func (s *FeedbackService) Create(ctx context.Context, req *feedback.CreateFeedbackRequest) (feedback.Feedback, error) {
	if req == nil {
		return feedback.Feedback{}, xerrors.Validation("request body is required")
	}
	if req.Rating < feedback.MinRating || req.Rating > feedback.MaxRating {
		return feedback.Feedback{}, xerrors.Newf(xerrors.ErrInvalidInput, "rating must be between %d and %d", feedback.MinRating, feedback.MaxRating)
	}
	if strings.TrimSpace(req.CustomerID) == "" || strings.TrimSpace(req.TransactionID) == "" {
		return feedback.Feedback{}, xerrors.Validation("customer_id and transaction_id are required")
	}

	if _, err := s.customers.Get(ctx, req.CustomerID); err != nil {
		return feedback.Feedback{}, err
	}
	txn, err := s.transactions.Get(ctx, req.TransactionID)
	if err != nil {
		return feedback.Feedback{}, err
	}
	if txn.CustomerID != req.CustomerID {
		return feedback.Feedback{}, xerrors.Forbidden("transaction belongs to another customer")
	}

	f, err := s.feedback.Create(ctx, feedback.Feedback{
		CustomerID:    req.CustomerID,
		TransactionID: req.TransactionID,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
		FeedbackDate:  time.Now().UTC(),
	})
	if err != nil {
		return feedback.Feedback{}, fmt.Errorf("failed to save feedback: %w", err)
	}
	s.logger.Info("feedback received",
		zap.String("customer_id", f.CustomerID),
		zap.String("transaction_id", f.TransactionID),
		zap.Int("rating", f.Rating),
	)
	return f, nil
}

func (s *FeedbackService) ListForCustomer(ctx context.Context, customerID string) ([]feedback.Feedback, error) {
	return s.feedback.Filter(ctx, func(f feedback.Feedback) bool {
		return f.CustomerID == customerID
	})
}
