package models

import "time"

// Profile roles.
const (
	RoleStudent   = "student"
	RoleOrganizer = "organizer"
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

// Organizer verification statuses. Both approved and rejected are
// terminal; rejection carries a reason.
const (
	OrganizerPending  = "pending"
	OrganizerApproved = "approved"
	OrganizerRejected = "rejected"
)

type Profile struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Role     string `json:"role"` // student, organizer, volunteer, admin
	College  string `json:"college"`
	Phone    string `json:"phone"`
	Verified bool   `json:"verified"`
}

type Organizer struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	OrgName    string     `json:"org_name"`
	Status     string     `json:"status"` // pending, approved, rejected
	Reason     string     `json:"reason,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}
