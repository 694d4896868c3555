// internal/domain/promo/dto.go
package promo

import "time"

type CreatePromoRequest struct {
	PromoName          string    `json:"promo_name" binding:"required,min=3,max=255"`
	PromoType          PromoType `json:"promo_type" binding:"required"`
	Tier               string    `json:"tier"`
	Description        string    `json:"description"`
	StartDate          time.Time `json:"start_date" binding:"required"`
	EndDate            time.Time `json:"end_date" binding:"required"`
	IsActive           *bool     `json:"is_active"`
	DiscountPercentage *float64  `json:"discount_percentage" binding:"omitempty,min=0,max=100"`
	DiscountAmount     *float64  `json:"discount_amount" binding:"omitempty,min=0"`
	MinimumPurchase    *float64  `json:"minimum_purchase" binding:"omitempty,min=0"`
	EligibilityRule    string    `json:"eligibility_rule"`
}

type UpdatePromoRequest struct {
	PromoName          *string    `json:"promo_name" binding:"omitempty,min=3,max=255"`
	PromoType          *PromoType `json:"promo_type"`
	Tier               *string    `json:"tier"`
	Description        *string    `json:"description"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	IsActive           *bool      `json:"is_active"`
	DiscountPercentage *float64   `json:"discount_percentage" binding:"omitempty,min=0,max=100"`
	DiscountAmount     *float64   `json:"discount_amount" binding:"omitempty,min=0"`
	MinimumPurchase    *float64   `json:"minimum_purchase" binding:"omitempty,min=0"`
	EligibilityRule    *string    `json:"eligibility_rule"`
}
