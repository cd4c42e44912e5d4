package models

import "time"

// Check-in result kinds. Every failure inside the scan path collapses
// into one of these three so the scanning loop never halts on an error.
const (
	ScanSuccess   = "success"
	ScanDuplicate = "duplicate"
	ScanInvalid   = "invalid"
)

// QRCodeData is the decoded form of a scanned payload. It is transient
// and never persisted.
type QRCodeData struct {
	Token    string    `json:"ticket_token"`
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	Kind     string    `json:"type"` // individual, team
	IssuedAt time.Time `json:"issued_at"`
}

// CheckInResult is what the scanning UI receives.
type CheckInResult struct {
	Type    string      `json:"type"` // success, duplicate, invalid
	Message string      `json:"message"`
	Ticket  *Ticket     `json:"ticket,omitempty"`
	QRData  *QRCodeData `json:"qr_data,omitempty"`
}

// ScanEvent is the realtime feed entry published on each verdict.
type ScanEvent struct {
	EventID   string    `json:"event_id"`
	Result    string    `json:"result"`
	Attendee  string    `json:"attendee,omitempty"`
	ScannedBy string    `json:"scanned_by"`
	ScannedAt time.Time `json:"scanned_at"`
}
