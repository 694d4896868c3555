// internal/domain/reservation/entity.go
package reservation

import "time"

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// CanTransition allows confirmed to move to completed or cancelled, nothing else.
func (s Status) CanTransition(to Status) bool {
	return s == StatusConfirmed && (to == StatusCompleted || to == StatusCancelled)
}

type Reservation struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customer_id"`
	ReservationDate time.Time `json:"reservation_date"`
	NumberOfGuests  int       `json:"number_of_guests"`
	Status          Status    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
}
