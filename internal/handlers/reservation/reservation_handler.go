// internal/handlers/reservation/reservation_handler.go
package reservation

import (
	"net/http"

	"loyalty-service/internal/domain/reservation"
	"loyalty-service/internal/middleware"
	"loyalty-service/internal/pkg/response"
	service "loyalty-service/internal/service/reservation"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(reservationService *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req reservation.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "missing required fields", err)
		return
	}

	r, err := h.reservationService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "reservation confirmed", r)
}

// GetUpcoming lists one day's bookings. Customers only ever see their own.
func (h *ReservationHandler) GetUpcoming(c *gin.Context) {
	var filters reservation.UpcomingFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}
	if p, ok := middleware.GetPrincipal(c); ok && p.IsCustomer() {
		if filters.CustomerID == "" {
			filters.CustomerID = p.SubjectID
		}
	}
	if filters.CustomerID != "" {
		if err := middleware.EnsureSubject(c, filters.CustomerID); err != nil {
			response.FromError(c, err)
			return
		}
	}

	list, err := h.reservationService.Upcoming(c.Request.Context(), filters)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", reservation.ListResponse{Items: list})
}

func (h *ReservationHandler) Complete(c *gin.Context) {
	r, err := h.reservationService.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "reservation completed", r)
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	r, err := h.reservationService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "reservation cancelled", r)
}
