package models

import (
	"time"
)

// Ticket statuses. A ticket transitions active -> used (scan) or
// active -> cancelled (administrative); used is terminal and tickets
// are never deleted.
const (
	TicketActive    = "active"
	TicketUsed      = "used"
	TicketCancelled = "cancelled"
)

// Ticket kinds, carried in the QR payload.
const (
	TicketIndividual = "individual"
	TicketTeam       = "team"
)

type Ticket struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	UserID         string     `json:"user_id"`
	RegistrationID string     `json:"registration_id"`
	Token          string     `json:"ticket_token"` // opaque, never the primary key
	Kind           string     `json:"type"`         // individual, team
	AttendeeName   string     `json:"attendee_name"`
	Status         string     `json:"status"` // active, used, cancelled
	ScannedAt      *time.Time `json:"scanned_at,omitempty"`
	ScannedBy      string     `json:"scanned_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
