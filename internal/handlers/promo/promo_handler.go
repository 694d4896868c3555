// internal/handlers/promo/promo_handler.go
package promo

import (
	"net/http"

	"loyalty-service/internal/domain/promo"
	"loyalty-service/internal/middleware"
	"loyalty-service/internal/pkg/response"
	service "loyalty-service/internal/service/promo"

	"github.com/gin-gonic/gin"
)

type PromoHandler struct {
	promoService *service.PromoService
}

func NewPromoHandler(promoService *service.PromoService) *PromoHandler {
	return &PromoHandler{promoService: promoService}
}

// ListPromos returns all promos, or those the customer in ?customer_id can
// redeem.
func (h *PromoHandler) ListPromos(c *gin.Context) {
	customerID := c.Query("customer_id")
	if customerID != "" {
		if err := middleware.EnsureSubject(c, customerID); err != nil {
			response.FromError(c, err)
			return
		}
	}

	list, err := h.promoService.List(c.Request.Context(), customerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", list)
}

func (h *PromoHandler) ListActive(c *gin.Context) {
	list, err := h.promoService.Active(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", list)
}

func (h *PromoHandler) CreatePromo(c *gin.Context) {
	var req promo.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	p, err := h.promoService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "promo created", p)
}

func (h *PromoHandler) UpdatePromo(c *gin.Context) {
	var req promo.UpdatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	p, err := h.promoService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "promo updated", p)
}

func (h *PromoHandler) DeletePromo(c *gin.Context) {
	if err := h.promoService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "promo deleted", nil)
}

// Redeem debits the redemption cost from ?customer_id for ?promo_id.
func (h *PromoHandler) Redeem(c *gin.Context) {
	promoID, customerID := c.Query("promo_id"), c.Query("customer_id")
	if promoID == "" || customerID == "" {
		response.ValidationError(c, "promo_id and customer_id are required", nil)
		return
	}
	if err := middleware.EnsureSubject(c, customerID); err != nil {
		response.FromError(c, err)
		return
	}

	updated, err := h.promoService.Redeem(c.Request.Context(), promoID, customerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "promo redeemed", updated)
}
