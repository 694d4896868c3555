// internal/domain/customer/entity.go
package customer

import (
	"encoding/base64"
	"strings"
	"time"

	xerrors "loyalty-service/internal/pkg/errors"
)

type MembershipLevel string

const (
	LevelBronze   MembershipLevel = "Bronze"
	LevelSilver   MembershipLevel = "Silver"
	LevelGold     MembershipLevel = "Gold"
	LevelPlatinum MembershipLevel = "Platinum"
)

// Levels lists tiers from lowest to highest.
var Levels = []MembershipLevel{LevelBronze, LevelSilver, LevelGold, LevelPlatinum}

// ParseLevel matches a tier name case-insensitively.
func ParseLevel(s string) (MembershipLevel, bool) {
	for _, l := range Levels {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, true
		}
	}
	return "", false
}

// Rank is the tier's position in Levels, or -1 when unknown.
func (l MembershipLevel) Rank() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return -1
}

// AnonymousID is recorded on transactions synced without a customer.
const AnonymousID = "cust_anonymous"

type Customer struct {
	ID               string          `json:"id"`
	PhoneNumber      string          `json:"phone_number"`
	Name             string          `json:"name"`
	Email            string          `json:"email,omitempty"`
	MembershipLevel  MembershipLevel `json:"membership_level"`
	TotalVisits      int             `json:"total_visits"`
	TotalSpent       float64         `json:"total_spent"`
	LoyaltyPoints    int             `json:"loyalty_points"`
	RegistrationDate time.Time       `json:"registration_date"`
	LastVisit        time.Time       `json:"last_visit"`
	AvatarURL        string          `json:"avatarUrl,omitempty"`
}

// Obfuscated is the customer view with contact fields base64 encoded.
type Obfuscated Customer

func (c Customer) Obfuscate() Obfuscated {
	o := Obfuscated(c)
	o.PhoneNumber = base64.StdEncoding.EncodeToString([]byte(c.PhoneNumber))
	if c.Email != "" {
		o.Email = base64.StdEncoding.EncodeToString([]byte(c.Email))
	}
	return o
}

// AvatarFor builds the default avatar url from the first name.
func AvatarFor(name string) string {
	seed := name
	if f := strings.Fields(name); len(f) > 0 {
		seed = f[0]
	}
	return "https://api.dicebear.com/8.x/adventurer/svg?seed=" + seed
}

type Group struct {
	Level      MembershipLevel `json:"level"`
	Count      int             `json:"count"`
	TotalSpent float64         `json:"total_spent"`
}

// NormalizePhone strips spaces, dashes and parentheses. The result is digits
// with an optional leading '+'.
func NormalizePhone(phone string) (string, error) {
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if phone == "" {
		return "", xerrors.Validation("phone number is required")
	}
	if len(phone) < 6 || len(phone) > 16 {
		return "", xerrors.Validation("invalid phone number length")
	}
	for i, ch := range phone {
		if i == 0 && ch == '+' {
			continue
		}
		if ch < '0' || ch > '9' {
			return "", xerrors.Validation("phone number must contain only digits")
		}
	}
	return phone, nil
}
