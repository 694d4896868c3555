// internal/handlers/feedback/feedback_handler.go
package feedback

import (
	"net/http"

	"loyalty-service/internal/domain/feedback"
	"loyalty-service/internal/middleware"
	"loyalty-service/internal/pkg/response"
	service "loyalty-service/internal/service/feedback"

	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var req feedback.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "missing required fields", err)
		return
	}
	if err := middleware.EnsureSubject(c, req.CustomerID); err != nil {
		response.FromError(c, err)
		return
	}

	f, err := h.feedbackService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "thank you for your feedback", f)
}

func (h *FeedbackHandler) GetCustomerFeedback(c *gin.Context) {
	id := c.Param("customer_id")
	if err := middleware.EnsureSubject(c, id); err != nil {
		response.FromError(c, err)
		return
	}

	list, err := h.feedbackService.ListForCustomer(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", list)
}
