// internal/handlers/transaction/transaction_handler.go
package transaction

import (
	"net/http"

	"loyalty-service/internal/domain/loyalty"
	"loyalty-service/internal/domain/transaction"
	"loyalty-service/internal/pkg/response"
	"loyalty-service/internal/service/ledger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	ledgerService *ledger.LedgerService
	logger        *zap.Logger
}

func NewTransactionHandler(ledgerService *ledger.LedgerService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Sync records a POS transaction. Replays of a known POS id return the
// stored record with 200.
func (h *TransactionHandler) Sync(c *gin.Context) {
	var req transaction.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "pos_transaction_id is required", err)
		return
	}

	txn, replayed, err := h.ledgerService.Sync(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if replayed {
		response.Success(c, http.StatusOK, "transaction already synced", txn)
		return
	}
	response.Success(c, http.StatusCreated, "transaction synced", txn)
}

// Calculate previews points for an amount.
func (h *TransactionHandler) Calculate(c *gin.Context) {
	var req loyalty.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "total_amount is required", err)
		return
	}

	resp, err := h.ledgerService.Calculate(c.Request.Context(), *req.TotalAmount, req.EventID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", resp)
}
