package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventpass/internal/status"
	"eventpass/models"
)

// MemStore is the fixture implementation of Store: a mutex-guarded set
// of maps. Tests and demo mode run against it; it honors the same
// guard semantics as PBStore (conditional transitions, capacity
// checks, token uniqueness).
type MemStore struct {
	mu sync.Mutex

	Events        map[string]*models.Event
	PassTypes     map[string]*models.PassType
	Registrations map[string]*models.Registration
	Tickets       map[string]*models.Ticket
	Organizers    map[string]*models.Organizer
	Profiles      map[string]string // user id -> display name

	seq int
}

func NewMemStore() *MemStore {
	return &MemStore{
		Events:        map[string]*models.Event{},
		PassTypes:     map[string]*models.PassType{},
		Registrations: map[string]*models.Registration{},
		Tickets:       map[string]*models.Ticket{},
		Organizers:    map[string]*models.Organizer{},
		Profiles:      map[string]string{},
	}
}

func (s *MemStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%04d", prefix, s.seq)
}

func (s *MemStore) EventByID(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.Events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: not found", id)
	}
	cp := *ev
	return &cp, nil
}

func (s *MemStore) PassTypeByID(ctx context.Context, id string) (*models.PassType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.PassTypes[id]
	if !ok {
		return nil, fmt.Errorf("pass type %s: not found", id)
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) TicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Tickets[id]
	if !ok {
		return nil, status.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemStore) TicketByToken(ctx context.Context, token string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Tickets {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, status.ErrTicketNotFound
}

func (s *MemStore) TicketByRegistration(ctx context.Context, registrationID string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Tickets {
		if t.RegistrationID == registrationID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, status.ErrTicketNotFound
}

func (s *MemStore) MarkTicketUsed(ctx context.Context, token, scannerID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Tickets {
		if t.Token != token {
			continue
		}
		if t.Status != models.TicketActive {
			return false, nil
		}
		t.Status = models.TicketUsed
		scanned := at
		t.ScannedAt = &scanned
		t.ScannedBy = scannerID
		t.UpdatedAt = at
		return true, nil
	}
	return false, nil
}

func (s *MemStore) CancelTicket(ctx context.Context, ticketID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Tickets[ticketID]
	if !ok || t.Status != models.TicketActive {
		return false, nil
	}
	t.Status = models.TicketCancelled
	t.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemStore) RegistrationByID(ctx context.Context, id string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Registrations[id]
	if !ok {
		return nil, fmt.Errorf("registration %s: not found", id)
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) RegistrationByOrderID(ctx context.Context, orderID string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Registrations {
		if r.OrderID == orderID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, status.ErrOrderNotFound
}

func (s *MemStore) HasActiveRegistration(ctx context.Context, userID, passTypeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Registrations {
		if r.UserID == userID && r.PassTypeID == passTypeID && r.Status != models.RegistrationCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) CreateRegistration(ctx context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg.ID = s.nextID("reg")
	reg.CreatedAt = time.Now()
	cp := *reg
	s.Registrations[reg.ID] = &cp
	return nil
}

func (s *MemStore) AttachOrder(ctx context.Context, registrationID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Registrations[registrationID]
	if !ok {
		return fmt.Errorf("registration %s: not found", registrationID)
	}
	r.OrderID = orderID
	return nil
}

func (s *MemStore) ProfileName(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.Profiles[userID]
	if !ok {
		return "", fmt.Errorf("profile %s: not found", userID)
	}
	return name, nil
}

func (s *MemStore) ConfirmAndIssue(ctx context.Context, reg *models.Registration, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.Tickets {
		if t.RegistrationID == reg.ID {
			return status.ErrTicketAlreadyIssued
		}
	}

	pass, ok := s.PassTypes[reg.PassTypeID]
	if !ok {
		return fmt.Errorf("pass type %s: not found", reg.PassTypeID)
	}
	if !pass.IsActive || (pass.Quantity > 0 && pass.Sold >= pass.Quantity) {
		return status.ErrPassSoldOut
	}

	ev, ok := s.Events[reg.EventID]
	if !ok {
		return fmt.Errorf("event %s: not found", reg.EventID)
	}
	if ev.MaxParticipants > 0 && ev.CurrentParticipants >= ev.MaxParticipants {
		return status.ErrEventFull
	}

	for _, t := range s.Tickets {
		if t.Token == ticket.Token {
			return status.ErrTokenCollision
		}
	}

	pass.Sold++
	ev.CurrentParticipants++

	stored, ok := s.Registrations[reg.ID]
	if !ok {
		return fmt.Errorf("registration %s: not found", reg.ID)
	}
	stored.Status = models.RegistrationConfirmed
	stored.OrderID = reg.OrderID
	stored.PaymentID = reg.PaymentID
	reg.Status = models.RegistrationConfirmed

	ticket.ID = s.nextID("tkt")
	ticket.Status = models.TicketActive
	ticket.CreatedAt = time.Now()
	cp := *ticket
	s.Tickets[ticket.ID] = &cp
	return nil
}

func (s *MemStore) OrganizerByID(ctx context.Context, id string) (*models.Organizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Organizers[id]
	if !ok {
		return nil, fmt.Errorf("organizer %s: not found", id)
	}
	cp := *o
	return &cp, nil
}

func (s *MemStore) OrganizerByUser(ctx context.Context, userID string) (*models.Organizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Organizers {
		if o.UserID == userID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("organizer for user %s: not found", userID)
}

func (s *MemStore) SetOrganizerVerdict(ctx context.Context, id, verdict, reason, reviewedBy string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Organizers[id]
	if !ok || o.Status != models.OrganizerPending {
		return false, nil
	}
	o.Status = verdict
	o.Reason = reason
	o.ReviewedBy = reviewedBy
	reviewed := at
	o.ReviewedAt = &reviewed
	return true, nil
}

func (s *MemStore) SetEventStatus(ctx context.Context, eventID, eventStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.Events[eventID]
	if !ok {
		return fmt.Errorf("event %s: not found", eventID)
	}
	ev.Status = eventStatus
	return nil
}
