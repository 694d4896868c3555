// internal/domain/loyalty/entity.go
package loyalty

import "time"

type Event struct {
	ID               string    `json:"id"`
	EventName        string    `json:"event_name"`
	PointsMultiplier float64   `json:"points_multiplier"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	IsActive         bool      `json:"is_active"`
}

func (e Event) ActiveAt(t time.Time) bool {
	return e.IsActive && !t.Before(e.StartDate) && !t.After(e.EndDate)
}

type CalculateRequest struct {
	TotalAmount *float64 `json:"total_amount" binding:"required"`
	EventID     string   `json:"event_id"`
}

type CalculateResponse struct {
	PointsEarned int     `json:"points_earned"`
	BasePoints   int     `json:"base_points"`
	Multiplier   float64 `json:"multiplier"`
	EventID      string  `json:"event_id,omitempty"`
}
