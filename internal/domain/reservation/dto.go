// internal/domain/reservation/dto.go
package reservation

type CreateReservationRequest struct {
	CustomerPhone   string `json:"customer_phone" binding:"required,max=20"`
	ReservationDate string `json:"reservation_date" binding:"required"` // yyyy-MM-dd
	ReservationTime string `json:"reservation_time" binding:"required"` // HH:mm
	NumberOfGuests  int    `json:"number_of_guests" binding:"required,min=1,max=100"`
	Notes           string `json:"notes" binding:"max=1000"`
}

type UpcomingFilters struct {
	Date       string `form:"date"`
	CustomerID string `form:"customer_id"`
}

type ListResponse struct {
	Items []Reservation `json:"items"`
	Next  *string       `json:"next"`
}
