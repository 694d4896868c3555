// Package seed loads the demo fixtures and populates cold collections once.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/feedback"
	"loyalty-service/internal/domain/loyalty"
	"loyalty-service/internal/domain/notification"
	"loyalty-service/internal/domain/promo"
	"loyalty-service/internal/domain/reservation"
	"loyalty-service/internal/domain/transaction"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type Fixtures struct {
	Customers     []customer.Customer         `json:"customers"`
	Transactions  []transaction.Transaction   `json:"transactions"`
	Promos        []promo.Promo               `json:"promos"`
	Reservations  []reservation.Reservation   `json:"reservations"`
	Feedback      []feedback.Feedback         `json:"feedback"`
	LoyaltyEvents []loyalty.Event             `json:"loyalty_events"`
	Notifications []notification.Notification `json:"notifications"`
}

// Default parses the embedded fixture file.
func Default() (*Fixtures, error) {
	return Parse(fixturesYAML)
}

// Parse decodes YAML fixtures. Documents go through JSON so the entity json
// tags are the single source of field names.
func Parse(data []byte) (*Fixtures, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fixtures: %w", err)
	}
	var fx Fixtures
	if err := json.Unmarshal(buf, &fx); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	return &fx, nil
}
