package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventpass/internal/status"
	"eventpass/models"
	"eventpass/monitoring"
	"eventpass/utils"

	"github.com/shopspring/decimal"
)

// tokenAttempts bounds the retry loop on a ticket token collision. The
// token space (16 random bytes by default) makes even one collision
// vanishingly unlikely; the loop exists so a collision surfaces as a
// retry, not a constraint violation.
const tokenAttempts = 3

type RegistrationService struct {
	store      RegistrationStore
	notifier   Notifier
	tokenBytes int
}

func NewRegistrationService(store RegistrationStore, notifier Notifier, tokenBytes int) *RegistrationService {
	if tokenBytes <= 0 {
		tokenBytes = 16
	}
	return &RegistrationService{
		store:      store,
		notifier:   notifier,
		tokenBytes: tokenBytes,
	}
}

type SubmitRequest struct {
	EventID     string              `json:"event_id"`
	PassTypeID  string              `json:"pass_type_id"`
	UserID      string              `json:"-"`
	TeamName    string              `json:"team_name"`
	TeamMembers []models.TeamMember `json:"team_members"`
}

// SubmitRegistration validates a purchase intent and persists it. Free
// passes confirm and issue immediately; paid passes stay pending until
// the payment is verified.
func (s *RegistrationService) SubmitRegistration(ctx context.Context, req SubmitRequest) (*models.Registration, *models.Ticket, error) {
	event, err := s.store.EventByID(ctx, req.EventID)
	if err != nil {
		return nil, nil, err
	}
	if event.Status != models.EventPublished {
		return nil, nil, fmt.Errorf("event %s is not open for registration", req.EventID)
	}

	pass, err := s.store.PassTypeByID(ctx, req.PassTypeID)
	if err != nil {
		return nil, nil, err
	}
	if pass.EventID != req.EventID {
		return nil, nil, fmt.Errorf("pass %s does not belong to event %s", req.PassTypeID, req.EventID)
	}
	if !pass.IsActive {
		return nil, nil, status.ErrPassInactive
	}
	if !pass.OnSale(time.Now()) {
		return nil, nil, status.ErrPassNotOnSale
	}
	if pass.Quantity > 0 && pass.Sold >= pass.Quantity {
		monitoring.TrackCapacityRejection("pass_sold_out")
		return nil, nil, status.ErrPassSoldOut
	}
	if event.MaxParticipants > 0 && event.CurrentParticipants >= event.MaxParticipants {
		monitoring.TrackCapacityRejection("event_full")
		return nil, nil, status.ErrEventFull
	}

	if err := validateTeam(event, req.TeamName, req.TeamMembers); err != nil {
		return nil, nil, err
	}

	exists, err := s.store.HasActiveRegistration(ctx, req.UserID, req.PassTypeID)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, status.ErrAlreadyRegistered
	}

	reg := &models.Registration{
		EventID:     req.EventID,
		PassTypeID:  req.PassTypeID,
		UserID:      req.UserID,
		Status:      models.RegistrationPending,
		Amount:      pass.Price,
		TeamName:    req.TeamName,
		TeamMembers: req.TeamMembers,
	}
	if err := s.store.CreateRegistration(ctx, reg); err != nil {
		return nil, nil, err
	}

	if !pass.IsFree() {
		return reg, nil, nil
	}

	ticket, err := s.ConfirmAndIssue(ctx, reg)
	if err != nil {
		return nil, nil, err
	}
	return reg, ticket, nil
}

// ConfirmAndIssue turns a registration into exactly one ticket. It is
// idempotent: confirming an already-confirmed registration returns the
// existing ticket.
func (s *RegistrationService) ConfirmAndIssue(ctx context.Context, reg *models.Registration) (*models.Ticket, error) {
	if reg.Status == models.RegistrationCancelled {
		return nil, status.ErrNotConfirmed
	}
	if reg.Status == models.RegistrationConfirmed {
		return s.store.TicketByRegistration(ctx, reg.ID)
	}

	attendee := reg.TeamName
	kind := models.TicketTeam
	if attendee == "" {
		kind = models.TicketIndividual
		name, err := s.store.ProfileName(ctx, reg.UserID)
		if err != nil {
			return nil, err
		}
		attendee = name
	}

	var lastErr error
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		token, err := utils.GenerateCode(s.tokenBytes)
		if err != nil {
			return nil, fmt.Errorf("generate ticket token: %w", err)
		}

		ticket := &models.Ticket{
			EventID:        reg.EventID,
			UserID:         reg.UserID,
			RegistrationID: reg.ID,
			Token:          token,
			Kind:           kind,
			AttendeeName:   attendee,
		}

		err = s.store.ConfirmAndIssue(ctx, reg, ticket)
		if err == nil {
			monitoring.TrackIssued(reg.EventID)
			slog.Info("ticket issued",
				"registration_id", reg.ID, "event_id", reg.EventID, "ticket_id", ticket.ID)
			if s.notifier != nil {
				s.notifier.RegistrationConfirmed(ctx, reg, ticket)
			}
			return ticket, nil
		}
		if errors.Is(err, status.ErrTicketAlreadyIssued) {
			return s.store.TicketByRegistration(ctx, reg.ID)
		}
		if errors.Is(err, status.ErrPassSoldOut) {
			monitoring.TrackCapacityRejection("pass_sold_out")
			return nil, err
		}
		if errors.Is(err, status.ErrEventFull) {
			monitoring.TrackCapacityRejection("event_full")
			return nil, err
		}
		if !errors.Is(err, status.ErrTokenCollision) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("issue ticket for %s: %w", reg.ID, lastErr)
}

// Amount reports the amount still owed on a registration.
func (s *RegistrationService) Amount(reg *models.Registration) decimal.Decimal {
	if reg.Status == models.RegistrationConfirmed {
		return decimal.Zero
	}
	return reg.Amount
}

func validateTeam(event *models.Event, teamName string, members []models.TeamMember) error {
	hasTeam := teamName != "" || len(members) > 0
	if !hasTeam {
		return nil
	}
	if !event.IsTeamEvent {
		return status.ErrNotTeamEvent
	}
	if teamName == "" || len(members) == 0 {
		return status.ErrTeamIncomplete
	}
	if event.MaxTeamSize > 0 && len(members) > event.MaxTeamSize {
		return status.ErrTeamTooLarge
	}
	return nil
}
