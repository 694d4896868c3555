// internal/domain/feedback/entity.go
package feedback

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Feedback struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	TransactionID string    `json:"transaction_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	FeedbackDate  time.Time `json:"feedback_date"`
}

type CreateFeedbackRequest struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment" binding:"max=2000"`
}
