// internal/domain/notification/entity.go
package notification

import "time"

type NotificationType string

const (
	TypePromo        NotificationType = "promo"
	TypeBirthday     NotificationType = "birthday"
	TypeReservation  NotificationType = "reservation"
	TypeRegistration NotificationType = "registration"
)

func (t NotificationType) Valid() bool {
	switch t {
	case TypePromo, TypeBirthday, TypeReservation, TypeRegistration:
		return true
	}
	return false
}

type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

type Notification struct {
	ID         string           `json:"id"`
	CustomerID string           `json:"customer_id"`
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	Status     Status           `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	SentAt     *time.Time       `json:"sent_at,omitempty"`
}

// DTOs

type EnqueueRequest struct {
	CustomerID string           `json:"customer_id" binding:"required"`
	Type       NotificationType `json:"type" binding:"required"`
	Message    string           `json:"message" binding:"required"`
}
