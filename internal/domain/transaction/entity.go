// internal/domain/transaction/entity.go
package transaction

import "time"

type PaymentMethod string

const (
	PaymentCreditCard    PaymentMethod = "Credit Card"
	PaymentCash          PaymentMethod = "Cash"
	PaymentDigitalWallet PaymentMethod = "Digital Wallet"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCreditCard, PaymentCash, PaymentDigitalWallet:
		return true
	}
	return false
}

type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Transaction struct {
	ID                  string        `json:"id"`
	CustomerID          string        `json:"customer_id"`
	TransactionDate     time.Time     `json:"transaction_date"`
	TotalAmount         float64       `json:"total_amount"`
	PaymentMethod       PaymentMethod `json:"payment_method"`
	LoyaltyPointsEarned int           `json:"loyalty_points_earned"`
	LoyaltyPointsUsed   int           `json:"loyalty_points_used,omitempty"`
	PosTransactionID    string        `json:"pos_transaction_id"`
	Items               []Item        `json:"items"`
	PromoID             string        `json:"promo_id,omitempty"`
}

// IDForPOS derives the store id from the POS id so that concurrent syncs of
// one POS transaction collide on create.
func IDForPOS(posID string) string {
	return "pos-" + posID
}
