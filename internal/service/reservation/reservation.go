// Package reservation books tables and registers walk-in customers by phone.
package reservation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/notification"
	"loyalty-service/internal/domain/reservation"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"

	"go.uber.org/zap"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// CustomerUpserter resolves a phone number to a customer, creating one when
// none exists.
type CustomerUpserter interface {
	UpsertByPhone(ctx context.Context, phone, name, email string) (customer.Customer, bool, error)
}

type Notifier interface {
	Enqueue(ctx context.Context, customerID string, typ notification.NotificationType, message string) (notification.Notification, error)
}

type ReservationService struct {
	reservations *repository.ReservationStore
	customers    CustomerUpserter
	notifier     Notifier
	loc          *time.Location
	logger       *zap.Logger
	now          func() time.Time
}

// NewReservationService interprets booking dates in loc.
func NewReservationService(reservations *repository.ReservationStore, customers CustomerUpserter, notifier Notifier, loc *time.Location, logger *zap.Logger) *ReservationService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationService{
		reservations: reservations,
		customers:    customers,
		notifier:     notifier,
		loc:          loc,
		logger:       logger,
		now:          time.Now,
	}
}

// Create books a confirmed reservation for the phone number's customer.
func (s *ReservationService) Create(ctx context.Context, req *reservation.CreateReservationRequest) (reservation.Reservation, error) {
	if req == nil {
		return reservation.Reservation{}, xerrors.Validation("request body is required")
	}
	if req.NumberOfGuests < 1 {
		return reservation.Reservation{}, xerrors.Validation("number_of_guests must be at least 1")
	}
	at, err := time.ParseInLocation(dateLayout+" "+timeLayout,
		strings.TrimSpace(req.ReservationDate)+" "+strings.TrimSpace(req.ReservationTime), s.loc)
	if err != nil {
		return reservation.Reservation{}, xerrors.Validation("reservation_date must be yyyy-MM-dd and reservation_time HH:mm")
	}

	c, existed, err := s.customers.UpsertByPhone(ctx, req.CustomerPhone, "", "")
	if err != nil {
		return reservation.Reservation{}, err
	}

	r, err := s.reservations.Create(ctx, reservation.Reservation{
		CustomerID:      c.ID,
		ReservationDate: at.UTC(),
		NumberOfGuests:  req.NumberOfGuests,
		Status:          reservation.StatusConfirmed,
		Notes:           strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return reservation.Reservation{}, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.logger.Info("reservation created",
		zap.String("reservation_id", r.ID),
		zap.String("customer_id", c.ID),
		zap.Bool("new_customer", !existed),
		zap.Time("at", at),
	)

	if s.notifier != nil {
		msg := fmt.Sprintf("Your table for %d is confirmed on %s at %s.",
			r.NumberOfGuests, at.Format("Mon, 2 Jan 2006"), at.Format(timeLayout))
		if _, err := s.notifier.Enqueue(ctx, c.ID, notification.TypeReservation, msg); err != nil {
			s.logger.Warn("failed to queue reservation notification", zap.Error(err))
		}
	}
	return r, nil
}

// Upcoming lists the non-cancelled reservations on the given venue-local day,
// earliest first. An empty date means today.
func (s *ReservationService) Upcoming(ctx context.Context, f reservation.UpcomingFilters) ([]reservation.Reservation, error) {
	day := strings.TrimSpace(f.Date)
	if day == "" {
		day = s.now().In(s.loc).Format(dateLayout)
	} else if len(day) > len(dateLayout) {
		// Accept full timestamps and match on their date prefix.
		day = day[:len(dateLayout)]
	}
	if _, err := time.ParseInLocation(dateLayout, day, s.loc); err != nil {
		return nil, xerrors.Validation("date must be yyyy-MM-dd")
	}

	list, err := s.reservations.Filter(ctx, func(r reservation.Reservation) bool {
		if r.Status == reservation.StatusCancelled {
			return false
		}
		if f.CustomerID != "" && r.CustomerID != f.CustomerID {
			return false
		}
		return r.ReservationDate.In(s.loc).Format(dateLayout) == day
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].ReservationDate.Before(list[j].ReservationDate)
	})
	return list, nil
}

func (s *ReservationService) Complete(ctx context.Context, id string) (reservation.Reservation, error) {
	return s.transition(ctx, id, reservation.StatusCompleted)
}

func (s *ReservationService) Cancel(ctx context.Context, id string) (reservation.Reservation, error) {
	return s.transition(ctx, id, reservation.StatusCancelled)
}

func (s *ReservationService) transition(ctx context.Context, id string, to reservation.Status) (reservation.Reservation, error) {
	r, err := s.reservations.Mutate(ctx, id, func(r reservation.Reservation) (reservation.Reservation, error) {
		if !r.Status.CanTransition(to) {
			return r, xerrors.Rejected(fmt.Sprintf("reservation is %s and cannot become %s", r.Status, to))
		}
		r.Status = to
		return r, nil
	})
	if err != nil {
		return reservation.Reservation{}, err
	}
	s.logger.Info("reservation updated", zap.String("reservation_id", id), zap.String("status", string(to)))
	return r, nil
}
