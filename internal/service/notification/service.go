// internal/service/notification/service.go
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"loyalty-service/internal/domain/notification"
	"loyalty-service/internal/metrics"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"

	"go.uber.org/zap"
)

// Publisher hands a queued notification to the outbound channel.
type Publisher interface {
	Publish(ctx context.Context, n notification.Notification) error
}

// Broadcaster pushes status changes to connected clients.
type Broadcaster interface {
	PublishNotification(n notification.Notification)
}

const deliverTimeout = 5 * time.Second

type Options struct {
	Store       *repository.NotificationStore
	Delay       time.Duration
	Publisher   Publisher   // optional
	Broadcaster Broadcaster // optional
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// NotificationService records outbound message intents and simulates their
// delivery.
type NotificationService struct {
	store       *repository.NotificationStore
	delay       time.Duration
	publisher   Publisher
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	logger      *zap.Logger

	pending sync.WaitGroup
}

func NewNotificationService(opts Options) *NotificationService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		store:       opts.Store,
		delay:       opts.Delay,
		publisher:   opts.Publisher,
		broadcaster: opts.Broadcaster,
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// Enqueue stores a queued notification and schedules its delivery. The
// delivery runs detached from ctx and is never retried.
func (s *NotificationService) Enqueue(ctx context.Context, customerID string, typ notification.NotificationType, message string) (notification.Notification, error) {
	customerID = strings.TrimSpace(customerID)
	message = strings.TrimSpace(message)
	switch {
	case customerID == "":
		return notification.Notification{}, xerrors.Validation("customer_id is required")
	case !typ.Valid():
		return notification.Notification{}, xerrors.Newf(xerrors.ErrInvalidInput, "unknown notification type %q", typ)
	case message == "":
		return notification.Notification{}, xerrors.Validation("message is required")
	}

	n, err := s.store.Create(ctx, notification.Notification{
		CustomerID: customerID,
		Type:       typ,
		Message:    message,
		Status:     notification.StatusQueued,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return notification.Notification{}, fmt.Errorf("failed to enqueue notification: %w", err)
	}

	s.observe(n)

	s.pending.Add(1)
	time.AfterFunc(s.delay, func() {
		defer s.pending.Done()
		s.deliver(n)
	})

	return n, nil
}

func (s *NotificationService) deliver(n notification.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, n); err != nil {
			s.logger.Warn("failed to publish notification",
				zap.String("notification_id", n.ID),
				zap.Error(err),
			)
		}
	}

	sent, err := s.store.Mutate(ctx, n.ID, func(cur notification.Notification) (notification.Notification, error) {
		if cur.Status != notification.StatusQueued {
			return cur, xerrors.Rejected("notification already " + string(cur.Status))
		}
		now := time.Now().UTC()
		cur.Status = notification.StatusSent
		cur.SentAt = &now
		return cur, nil
	})
	if err != nil {
		s.logger.Error("failed to mark notification sent",
			zap.String("notification_id", n.ID),
			zap.Error(err),
		)
		return
	}

	s.observe(sent)
	s.logger.Debug("notification sent",
		zap.String("notification_id", sent.ID),
		zap.String("customer_id", sent.CustomerID),
		zap.String("type", string(sent.Type)),
	)
}

func (s *NotificationService) observe(n notification.Notification) {
	if s.metrics != nil {
		s.metrics.Notifications.WithLabelValues(string(n.Status)).Inc()
	}
	if s.broadcaster != nil {
		s.broadcaster.PublishNotification(n)
	}
}

// ListForCustomer returns the customer's notifications, newest first.
func (s *NotificationService) ListForCustomer(ctx context.Context, customerID string) ([]notification.Notification, error) {
	list, err := s.store.Filter(ctx, func(n notification.Notification) bool {
		return n.CustomerID == customerID
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// Wait blocks until every scheduled delivery has run.
func (s *NotificationService) Wait() {
	s.pending.Wait()
}
