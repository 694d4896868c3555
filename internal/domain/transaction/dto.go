// internal/domain/transaction/dto.go
package transaction

type SyncRequest struct {
	PosTransactionID  string        `json:"pos_transaction_id" binding:"required"`
	CustomerID        string        `json:"customer_id"`
	TotalAmount       float64       `json:"total_amount" binding:"min=0"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
	Items             []Item        `json:"items"`
	PromoID           string        `json:"promo_id"`
	LoyaltyPointsUsed int           `json:"loyalty_points_used" binding:"min=0"`
}
