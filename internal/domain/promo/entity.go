// internal/domain/promo/entity.go
package promo

import "time"

type PromoType string

const (
	TypeEvent      PromoType = "event"
	TypeBirthday   PromoType = "birthday"
	TypeMembership PromoType = "membership"
)

func (t PromoType) Valid() bool {
	switch t {
	case TypeEvent, TypeBirthday, TypeMembership:
		return true
	}
	return false
}

type Promo struct {
	ID                 string    `json:"id"`
	PromoName          string    `json:"promo_name"`
	PromoType          PromoType `json:"promo_type"`
	Tier               string    `json:"tier,omitempty"`
	Description        string    `json:"description"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	IsActive           bool      `json:"is_active"`
	DiscountPercentage *float64  `json:"discount_percentage,omitempty"`
	DiscountAmount     *float64  `json:"discount_amount,omitempty"`
	MinimumPurchase    *float64  `json:"minimum_purchase,omitempty"`
	EligibilityRule    string    `json:"eligibility_rule,omitempty"`
}

// ActiveAt reports whether the stored flag is set and t lies in the window.
func (p Promo) ActiveAt(t time.Time) bool {
	return p.IsActive && !t.Before(p.StartDate) && !t.After(p.EndDate)
}
