package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event statuses. An event only reaches "published" once its owning
// organizer has been approved.
const (
	EventDraft     = "draft"
	EventPending   = "pending"
	EventApproved  = "approved"
	EventPublished = "published"
	EventCancelled = "cancelled"
)

type Event struct {
	ID                  string    `json:"id"`
	OrganizerID         string    `json:"organizer_id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Venue               string    `json:"venue"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	Status              string    `json:"event_status"` // draft, pending, approved, published, cancelled
	MaxParticipants     int       `json:"max_participants"` // 0 = unlimited
	CurrentParticipants int       `json:"current_participants"`
	IsTeamEvent         bool      `json:"is_team_event"`
	MaxTeamSize         int       `json:"max_team_size"`
}

type PassType struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"` // 0 = unlimited
	Sold      int             `json:"sold"`
	IsActive  bool            `json:"is_active"`
	SaleStart *time.Time      `json:"sale_start,omitempty"`
	SaleEnd   *time.Time      `json:"sale_end,omitempty"`
}

// IsFree reports whether the pass skips the payment flow entirely.
func (p *PassType) IsFree() bool {
	return p.Price.IsZero()
}

// OnSale checks the active flag and the optional sale window at the
// given instant.
func (p *PassType) OnSale(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.SaleStart != nil && now.Before(*p.SaleStart) {
		return false
	}
	if p.SaleEnd != nil && now.After(*p.SaleEnd) {
		return false
	}
	return true
}
