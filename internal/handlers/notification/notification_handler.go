// internal/handlers/notification/notification_handler.go
package notification

import (
	"net/http"

	"loyalty-service/internal/domain/notification"
	"loyalty-service/internal/middleware"
	"loyalty-service/internal/pkg/response"
	service "loyalty-service/internal/service/notification"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// SendWhatsApp queues a message. Delivery is simulated.
func (h *NotificationHandler) SendWhatsApp(c *gin.Context) {
	var req notification.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "missing required fields", err)
		return
	}

	n, err := h.notificationService.Enqueue(c.Request.Context(), req.CustomerID, req.Type, req.Message)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, "notification queued successfully", n)
}

func (h *NotificationHandler) GetCustomerNotifications(c *gin.Context) {
	id := c.Param("customer_id")
	if err := middleware.EnsureSubject(c, id); err != nil {
		response.FromError(c, err)
		return
	}

	list, err := h.notificationService.ListForCustomer(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", list)
}
