package services

import (
	"context"
	"time"

	"eventpass/models"
)

// The services below depend on narrow store interfaces rather than on
// PocketBase directly. PBStore is the production implementation; the
// in-memory MemStore backs tests and demo mode. Which one runs is a
// wiring decision in main, never an inline branch in business logic.

type CatalogStore interface {
	EventByID(ctx context.Context, id string) (*models.Event, error)
	PassTypeByID(ctx context.Context, id string) (*models.PassType, error)
}

type TicketStore interface {
	TicketByID(ctx context.Context, id string) (*models.Ticket, error)
	TicketByToken(ctx context.Context, token string) (*models.Ticket, error)
	TicketByRegistration(ctx context.Context, registrationID string) (*models.Ticket, error)

	// MarkTicketUsed performs the compare-and-swap transition
	// active -> used. It reports false when the ticket was no longer
	// active at write time, which is how a concurrent-scan loser finds
	// out it lost.
	MarkTicketUsed(ctx context.Context, token, scannerID string, at time.Time) (bool, error)

	// CancelTicket is the administrative active -> cancelled path.
	CancelTicket(ctx context.Context, ticketID string) (bool, error)
}

type RegistrationStore interface {
	CatalogStore

	RegistrationByID(ctx context.Context, id string) (*models.Registration, error)
	RegistrationByOrderID(ctx context.Context, orderID string) (*models.Registration, error)
	HasActiveRegistration(ctx context.Context, userID, passTypeID string) (bool, error)
	CreateRegistration(ctx context.Context, reg *models.Registration) error
	AttachOrder(ctx context.Context, registrationID, orderID string) error
	ProfileName(ctx context.Context, userID string) (string, error)
	TicketByRegistration(ctx context.Context, registrationID string) (*models.Ticket, error)

	// ConfirmAndIssue is a single logical unit of work: increment the
	// pass sold counter (guarded by quantity), increment the event
	// participant counter (guarded by max_participants), flip the
	// registration to confirmed and insert the ticket. Any guard
	// failure aborts the whole unit.
	ConfirmAndIssue(ctx context.Context, reg *models.Registration, ticket *models.Ticket) error
}

type OrganizerStore interface {
	OrganizerByID(ctx context.Context, id string) (*models.Organizer, error)
	OrganizerByUser(ctx context.Context, userID string) (*models.Organizer, error)

	// SetOrganizerVerdict transitions pending -> approved|rejected and
	// reports false when the verdict had already been decided.
	SetOrganizerVerdict(ctx context.Context, id, verdict, reason, reviewedBy string, at time.Time) (bool, error)

	EventByID(ctx context.Context, id string) (*models.Event, error)
	SetEventStatus(ctx context.Context, eventID, eventStatus string) error
}

// Store is the full surface, satisfied by both implementations.
type Store interface {
	TicketStore
	RegistrationStore
	OrganizerStore
}
