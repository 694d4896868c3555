// internal/handlers/customer/customer_handler.go
package customer

import (
	"net/http"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/middleware"
	"loyalty-service/internal/pkg/response"
	service "loyalty-service/internal/service/customer"
	"loyalty-service/internal/service/ledger"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService *service.CustomerService
	ledgerService   *ledger.LedgerService
}

func NewCustomerHandler(customerService *service.CustomerService, ledgerService *ledger.LedgerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		ledgerService:   ledgerService,
	}
}

// Register upserts a customer by phone number.
func (h *CustomerHandler) Register(c *gin.Context) {
	var req customer.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "phone number and name are required", err)
		return
	}

	result, err := h.customerService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	status, msg := http.StatusCreated, "customer registered"
	if result.Existed {
		status, msg = http.StatusOK, "customer already registered"
	}
	response.Success(c, status, msg, result)
}

// ListCustomers returns every customer to staff and only themselves to a
// customer.
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	if p.IsCustomer() {
		self, err := h.customerService.Get(c.Request.Context(), p.SubjectID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", []customer.Customer{self})
		return
	}

	list, err := h.customerService.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", list)
}

// GetCustomer returns the customer with phone and email encoded.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id := c.Param("id")
	if err := middleware.EnsureSubject(c, id); err != nil {
		response.FromError(c, err)
		return
	}

	result, err := h.customerService.GetObfuscated(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", result)
}

func (h *CustomerHandler) GetTransactions(c *gin.Context) {
	id := c.Param("id")
	if err := middleware.EnsureSubject(c, id); err != nil {
		response.FromError(c, err)
		return
	}

	list, err := h.ledgerService.CustomerTransactions(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", list)
}

// GetGroups summarizes customers per membership level.
func (h *CustomerHandler) GetGroups(c *gin.Context) {
	groups, err := h.customerService.Groups(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", groups)
}
