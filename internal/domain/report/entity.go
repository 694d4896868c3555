// internal/domain/report/entity.go
package report

import (
	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/transaction"
)

type Type string

const (
	TypeCustomerActivity   Type = "customer-activity"
	TypePromoEffectiveness Type = "promo-effectiveness"
	TypeLoyaltyUsage       Type = "loyalty-usage"
	TypeFeedback           Type = "feedback"
)

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Report is the aggregated window summary. Data holds one of the row types below.
type Report struct {
	Type    Type               `json:"type"`
	Period  Period             `json:"period"`
	Metrics map[string]float64 `json:"metrics"`
	Data    any                `json:"data"`
}

type ActivityRow struct {
	Date   string `json:"date"`
	Visits int    `json:"visits"`
}

type PromoRow struct {
	PromoName   string  `json:"promo_name"`
	Redemptions int     `json:"redemptions"`
	Revenue     float64 `json:"revenue"`
}

type PointsRow struct {
	Type   string `json:"type"`
	Points int    `json:"points"`
}

type RatingRow struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type DashboardStats struct {
	TotalCustomers     int                       `json:"totalCustomers"`
	TodaysVisits       int                       `json:"todaysVisits"`
	ActivePromos       int                       `json:"activePromos"`
	TotalRevenue       float64                   `json:"totalRevenue"`
	CustomerActivity   []ActivityRow             `json:"customerActivity"`
	TopCustomers       []customer.Customer       `json:"topCustomers"`
	RecentTransactions []transaction.Transaction `json:"recentTransactions"`
}
