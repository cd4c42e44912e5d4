package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Registration statuses.
const (
	RegistrationPending   = "pending"
	RegistrationConfirmed = "confirmed"
	RegistrationCancelled = "cancelled"
)

type TeamMember struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	College string `json:"college"`
	Year    int    `json:"year"`
}

type Registration struct {
	ID          string          `json:"id"`
	EventID     string          `json:"event_id"`
	PassTypeID  string          `json:"pass_type_id"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"` // pending, confirmed, cancelled
	OrderID     string          `json:"order_id,omitempty"`
	PaymentID   string          `json:"payment_id,omitempty"` // UPI transaction reference (UTR)
	Amount      decimal.Decimal `json:"amount"`
	TeamName    string          `json:"team_name,omitempty"`
	TeamMembers []TeamMember    `json:"team_members,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsTeam reports whether the registration carries team fields.
func (r *Registration) IsTeam() bool {
	return r.TeamName != "" || len(r.TeamMembers) > 0
}
