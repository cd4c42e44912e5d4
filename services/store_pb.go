package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventpass/internal/status"
	"eventpass/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"
)

// PBStore implements Store on top of the PocketBase collection store.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) EventByID(ctx context.Context, id string) (*models.Event, error) {
	rec, err := s.app.FindRecordById("events", id)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	return eventFromRecord(rec), nil
}

func (s *PBStore) PassTypeByID(ctx context.Context, id string) (*models.PassType, error) {
	rec, err := s.app.FindRecordById("pass_types", id)
	if err != nil {
		return nil, fmt.Errorf("pass type %s: %w", id, err)
	}
	return passTypeFromRecord(rec), nil
}

func (s *PBStore) TicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	rec, err := s.app.FindRecordById("tickets", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTicketNotFound
		}
		return nil, fmt.Errorf("ticket by id: %w", err)
	}
	return ticketFromRecord(rec), nil
}

func (s *PBStore) TicketByToken(ctx context.Context, token string) (*models.Ticket, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"tickets",
		"ticket_token = {:token}",
		dbx.Params{"token": token},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTicketNotFound
		}
		return nil, fmt.Errorf("ticket by token: %w", err)
	}
	return ticketFromRecord(rec), nil
}

func (s *PBStore) TicketByRegistration(ctx context.Context, registrationID string) (*models.Ticket, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"tickets",
		"registration = {:reg}",
		dbx.Params{"reg": registrationID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTicketNotFound
		}
		return nil, fmt.Errorf("ticket by registration: %w", err)
	}
	return ticketFromRecord(rec), nil
}

// MarkTicketUsed is a single conditional UPDATE: the WHERE clause pins
// the row to the active status, so of two concurrent scanners exactly
// one observes an affected row.
func (s *PBStore) MarkTicketUsed(ctx context.Context, token, scannerID string, at time.Time) (bool, error) {
	stamp := at.UTC().Format(types.DefaultDateLayout)
	res, err := s.app.DB().NewQuery(
		`UPDATE tickets
		 SET status = {:used}, scanned_at = {:at}, scanned_by = {:by}, updated = {:at}
		 WHERE ticket_token = {:token} AND status = {:active}`,
	).Bind(dbx.Params{
		"used":   models.TicketUsed,
		"at":     stamp,
		"by":     scannerID,
		"token":  token,
		"active": models.TicketActive,
	}).WithContext(ctx).Execute()
	if err != nil {
		return false, fmt.Errorf("mark ticket used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark ticket used: %w", err)
	}
	return n == 1, nil
}

func (s *PBStore) CancelTicket(ctx context.Context, ticketID string) (bool, error) {
	res, err := s.app.DB().NewQuery(
		`UPDATE tickets
		 SET status = {:cancelled}, updated = {:at}
		 WHERE id = {:id} AND status = {:active}`,
	).Bind(dbx.Params{
		"cancelled": models.TicketCancelled,
		"at":        time.Now().UTC().Format(types.DefaultDateLayout),
		"id":        ticketID,
		"active":    models.TicketActive,
	}).WithContext(ctx).Execute()
	if err != nil {
		return false, fmt.Errorf("cancel ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel ticket: %w", err)
	}
	return n == 1, nil
}

func (s *PBStore) RegistrationByID(ctx context.Context, id string) (*models.Registration, error) {
	rec, err := s.app.FindRecordById("registrations", id)
	if err != nil {
		return nil, fmt.Errorf("registration %s: %w", id, err)
	}
	return registrationFromRecord(rec)
}

func (s *PBStore) RegistrationByOrderID(ctx context.Context, orderID string) (*models.Registration, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"registrations",
		"order_id = {:order}",
		dbx.Params{"order": orderID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrOrderNotFound
		}
		return nil, fmt.Errorf("registration by order: %w", err)
	}
	return registrationFromRecord(rec)
}

func (s *PBStore) HasActiveRegistration(ctx context.Context, userID, passTypeID string) (bool, error) {
	_, err := s.app.FindFirstRecordByFilter(
		"registrations",
		"user = {:user} && pass_type = {:pass} && status != {:cancelled}",
		dbx.Params{"user": userID, "pass": passTypeID, "cancelled": models.RegistrationCancelled},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("registration lookup: %w", err)
	}
	return true, nil
}

func (s *PBStore) CreateRegistration(ctx context.Context, reg *models.Registration) error {
	collection, err := s.app.FindCollectionByNameOrId("registrations")
	if err != nil {
		return fmt.Errorf("create registration: %w", err)
	}

	rec := core.NewRecord(collection)
	rec.Set("event", reg.EventID)
	rec.Set("pass_type", reg.PassTypeID)
	rec.Set("user", reg.UserID)
	rec.Set("status", reg.Status)
	rec.Set("amount", reg.Amount.InexactFloat64())
	rec.Set("team_name", reg.TeamName)
	rec.Set("team_members", reg.TeamMembers)

	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}

	reg.ID = rec.Id
	reg.CreatedAt = rec.GetDateTime("created").Time()
	return nil
}

func (s *PBStore) AttachOrder(ctx context.Context, registrationID, orderID string) error {
	rec, err := s.app.FindRecordById("registrations", registrationID)
	if err != nil {
		return fmt.Errorf("attach order: %w", err)
	}
	rec.Set("order_id", orderID)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("attach order: %w", err)
	}
	return nil
}

func (s *PBStore) ProfileName(ctx context.Context, userID string) (string, error) {
	rec, err := s.app.FindRecordById("users", userID)
	if err != nil {
		return "", fmt.Errorf("profile %s: %w", userID, err)
	}
	if name := rec.GetString("name"); name != "" {
		return name, nil
	}
	return rec.GetString("email"), nil
}

func (s *PBStore) ConfirmAndIssue(ctx context.Context, reg *models.Registration, ticket *models.Ticket) error {
	return s.app.RunInTransaction(func(tx core.App) error {
		now := time.Now().UTC().Format(types.DefaultDateLayout)

		// One ticket per registration.
		_, err := tx.FindFirstRecordByFilter(
			"tickets",
			"registration = {:reg}",
			dbx.Params{"reg": reg.ID},
		)
		if err == nil {
			return status.ErrTicketAlreadyIssued
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("issued-ticket check: %w", err)
		}

		// Guarded sold increment; zero rows affected means the pass
		// hit its quantity (or was deactivated) between validation and
		// now.
		res, err := tx.DB().NewQuery(
			`UPDATE pass_types
			 SET sold = sold + 1, updated = {:now}
			 WHERE id = {:id} AND is_active = TRUE AND (quantity = 0 OR sold < quantity)`,
		).Bind(dbx.Params{"id": reg.PassTypeID, "now": now}).WithContext(ctx).Execute()
		if err != nil {
			return fmt.Errorf("increment sold: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return status.ErrPassSoldOut
		}

		// Guarded participant increment on the event.
		res, err = tx.DB().NewQuery(
			`UPDATE events
			 SET current_participants = current_participants + 1, updated = {:now}
			 WHERE id = {:id} AND (max_participants = 0 OR current_participants < max_participants)`,
		).Bind(dbx.Params{"id": reg.EventID, "now": now}).WithContext(ctx).Execute()
		if err != nil {
			return fmt.Errorf("increment participants: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return status.ErrEventFull
		}

		// Token uniqueness; the unique index backs this, the explicit
		// check gives the caller a retryable error instead of a
		// constraint violation.
		_, err = tx.FindFirstRecordByFilter(
			"tickets",
			"ticket_token = {:token}",
			dbx.Params{"token": ticket.Token},
		)
		if err == nil {
			return status.ErrTokenCollision
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("token check: %w", err)
		}

		regRec, err := tx.FindRecordById("registrations", reg.ID)
		if err != nil {
			return fmt.Errorf("load registration: %w", err)
		}
		regRec.Set("status", models.RegistrationConfirmed)
		regRec.Set("order_id", reg.OrderID)
		regRec.Set("payment_id", reg.PaymentID)
		if err := tx.Save(regRec); err != nil {
			return fmt.Errorf("confirm registration: %w", err)
		}

		collection, err := tx.FindCollectionByNameOrId("tickets")
		if err != nil {
			return fmt.Errorf("tickets collection: %w", err)
		}
		tRec := core.NewRecord(collection)
		tRec.Set("event", ticket.EventID)
		tRec.Set("user", ticket.UserID)
		tRec.Set("registration", ticket.RegistrationID)
		tRec.Set("ticket_token", ticket.Token)
		tRec.Set("type", ticket.Kind)
		tRec.Set("attendee_name", ticket.AttendeeName)
		tRec.Set("status", models.TicketActive)
		if err := tx.Save(tRec); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}

		ticket.ID = tRec.Id
		ticket.Status = models.TicketActive
		ticket.CreatedAt = tRec.GetDateTime("created").Time()
		reg.Status = models.RegistrationConfirmed
		return nil
	})
}

func (s *PBStore) OrganizerByID(ctx context.Context, id string) (*models.Organizer, error) {
	rec, err := s.app.FindRecordById("organizers", id)
	if err != nil {
		return nil, fmt.Errorf("organizer %s: %w", id, err)
	}
	return organizerFromRecord(rec), nil
}

func (s *PBStore) OrganizerByUser(ctx context.Context, userID string) (*models.Organizer, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"organizers",
		"user = {:user}",
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("organizer by user: %w", err)
	}
	return organizerFromRecord(rec), nil
}

// SetOrganizerVerdict flips a pending organizer to its terminal
// verdict. The WHERE clause keeps the decision at-most-once.
func (s *PBStore) SetOrganizerVerdict(ctx context.Context, id, verdict, reason, reviewedBy string, at time.Time) (bool, error) {
	stamp := at.UTC().Format(types.DefaultDateLayout)
	res, err := s.app.DB().NewQuery(
		`UPDATE organizers
		 SET status = {:verdict}, reason = {:reason}, reviewed_by = {:by}, reviewed_at = {:at}, updated = {:at}
		 WHERE id = {:id} AND status = {:pending}`,
	).Bind(dbx.Params{
		"verdict": verdict,
		"reason":  reason,
		"by":      reviewedBy,
		"at":      stamp,
		"id":      id,
		"pending": models.OrganizerPending,
	}).WithContext(ctx).Execute()
	if err != nil {
		return false, fmt.Errorf("organizer verdict: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("organizer verdict: %w", err)
	}
	return n == 1, nil
}

func (s *PBStore) SetEventStatus(ctx context.Context, eventID, eventStatus string) error {
	rec, err := s.app.FindRecordById("events", eventID)
	if err != nil {
		return fmt.Errorf("event %s: %w", eventID, err)
	}
	rec.Set("event_status", eventStatus)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("set event status: %w", err)
	}
	return nil
}

func eventFromRecord(r *core.Record) *models.Event {
	return &models.Event{
		ID:                  r.Id,
		OrganizerID:         r.GetString("organizer"),
		Name:                r.GetString("name"),
		Description:         r.GetString("description"),
		Venue:               r.GetString("venue"),
		StartTime:           r.GetDateTime("start_time").Time(),
		EndTime:             r.GetDateTime("end_time").Time(),
		Status:              r.GetString("event_status"),
		MaxParticipants:     r.GetInt("max_participants"),
		CurrentParticipants: r.GetInt("current_participants"),
		IsTeamEvent:         r.GetBool("is_team_event"),
		MaxTeamSize:         r.GetInt("max_team_size"),
	}
}

func passTypeFromRecord(r *core.Record) *models.PassType {
	p := &models.PassType{
		ID:       r.Id,
		EventID:  r.GetString("event"),
		Name:     r.GetString("name"),
		Price:    decimal.NewFromFloat(r.GetFloat("price")),
		Quantity: r.GetInt("quantity"),
		Sold:     r.GetInt("sold"),
		IsActive: r.GetBool("is_active"),
	}
	if dt := r.GetDateTime("sale_start"); !dt.IsZero() {
		t := dt.Time()
		p.SaleStart = &t
	}
	if dt := r.GetDateTime("sale_end"); !dt.IsZero() {
		t := dt.Time()
		p.SaleEnd = &t
	}
	return p
}

func registrationFromRecord(r *core.Record) (*models.Registration, error) {
	reg := &models.Registration{
		ID:         r.Id,
		EventID:    r.GetString("event"),
		PassTypeID: r.GetString("pass_type"),
		UserID:     r.GetString("user"),
		Status:     r.GetString("status"),
		OrderID:    r.GetString("order_id"),
		PaymentID:  r.GetString("payment_id"),
		Amount:     decimal.NewFromFloat(r.GetFloat("amount")),
		TeamName:   r.GetString("team_name"),
		CreatedAt:  r.GetDateTime("created").Time(),
	}
	if raw := r.GetString("team_members"); raw != "" && raw != "null" {
		if err := r.UnmarshalJSONField("team_members", &reg.TeamMembers); err != nil {
			return nil, fmt.Errorf("registration %s: team members: %w", r.Id, err)
		}
	}
	return reg, nil
}

func ticketFromRecord(r *core.Record) *models.Ticket {
	t := &models.Ticket{
		ID:             r.Id,
		EventID:        r.GetString("event"),
		UserID:         r.GetString("user"),
		RegistrationID: r.GetString("registration"),
		Token:          r.GetString("ticket_token"),
		Kind:           r.GetString("type"),
		AttendeeName:   r.GetString("attendee_name"),
		Status:         r.GetString("status"),
		ScannedBy:      r.GetString("scanned_by"),
		CreatedAt:      r.GetDateTime("created").Time(),
		UpdatedAt:      r.GetDateTime("updated").Time(),
	}
	if dt := r.GetDateTime("scanned_at"); !dt.IsZero() {
		at := dt.Time()
		t.ScannedAt = &at
	}
	return t
}

func organizerFromRecord(r *core.Record) *models.Organizer {
	o := &models.Organizer{
		ID:         r.Id,
		UserID:     r.GetString("user"),
		OrgName:    r.GetString("org_name"),
		Status:     r.GetString("status"),
		Reason:     r.GetString("reason"),
		ReviewedBy: r.GetString("reviewed_by"),
	}
	if dt := r.GetDateTime("reviewed_at"); !dt.IsZero() {
		t := dt.Time()
		o.ReviewedAt = &t
	}
	return o
}
