package status

import "errors"

var (
	// Registration / issuance
	ErrPassInactive      = errors.New("pass: pass type is not active")
	ErrPassNotOnSale     = errors.New("pass: outside sale window")
	ErrPassSoldOut       = errors.New("pass: sold out")
	ErrEventFull         = errors.New("event: maximum participants reached")
	ErrAlreadyRegistered = errors.New("registration: already registered for this pass")
	ErrTeamTooLarge      = errors.New("registration: team size exceeds event limit")
	ErrTeamIncomplete    = errors.New("registration: team name and members are required together")
	ErrNotTeamEvent      = errors.New("registration: team fields on a non-team event")
	ErrNotConfirmed      = errors.New("registration: not confirmed")

	// Check-in / issuance
	ErrTicketNotFound      = errors.New("ticket: token not found")
	ErrTicketUsed          = errors.New("ticket: already used")
	ErrTokenCollision      = errors.New("ticket: token already exists")
	ErrTicketAlreadyIssued = errors.New("ticket: already issued for this registration")

	// Payment
	ErrSignatureMismatch = errors.New("payment: signature verification failed")
	ErrOrderNotFound     = errors.New("payment: order not found")
	ErrOrderExpired      = errors.New("payment: order expired")

	// Organizer gate
	ErrOrganizerNotApproved = errors.New("organizer: not approved")
	ErrVerdictAlreadySet    = errors.New("organizer: verification already decided")

	// Scanner sessions
	ErrSessionInvalid = errors.New("session: invalid or expired scanner session")
)
