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
	"eventpass/qrticket"
)

// CheckinService is the scan-time validator. Every failure inside the
// scan path collapses into a success/duplicate/invalid result; the
// scanning loop never sees an error.
type CheckinService struct {
	store    TicketStore
	notifier Notifier
	feed     *ScanFeed
}

func NewCheckinService(store TicketStore, notifier Notifier, feed *ScanFeed) *CheckinService {
	return &CheckinService{
		store:    store,
		notifier: notifier,
		feed:     feed,
	}
}

// ValidateAndCheckIn decides valid / duplicate / invalid for a scanned
// payload and performs the at-most-once active -> used transition.
//
// Re-scanning a used ticket is always safe: it yields a duplicate
// verdict carrying the original scan time, never a new one. Two
// scanners racing on the same active ticket are resolved by the
// conditional write in the store; the loser re-reads and reports
// duplicate.
func (s *CheckinService) ValidateAndCheckIn(ctx context.Context, payload, scanningEventID, scannerID string) *models.CheckInResult {
	started := time.Now()
	result := s.validate(ctx, payload, scanningEventID, scannerID)
	monitoring.TrackScan(scanningEventID, result.Type, time.Since(started))

	ev := models.ScanEvent{
		EventID:   scanningEventID,
		Result:    result.Type,
		ScannedBy: scannerID,
		ScannedAt: time.Now(),
	}
	if result.Ticket != nil {
		ev.Attendee = result.Ticket.AttendeeName
	}
	if s.feed != nil {
		if err := s.feed.Record(ctx, ev); err != nil {
			slog.Error("checkin: feed record failed", "event_id", scanningEventID, "error", err)
		}
	}
	if s.notifier != nil {
		s.notifier.ScanRecorded(ctx, ev)
	}
	return result
}

func (s *CheckinService) validate(ctx context.Context, payload, scanningEventID, scannerID string) *models.CheckInResult {
	data := qrticket.Decode(payload)
	if data == nil {
		return &models.CheckInResult{
			Type:    models.ScanInvalid,
			Message: "unreadable ticket code",
		}
	}

	// Cross-event replay of an otherwise valid ticket.
	if data.EventID != scanningEventID {
		return &models.CheckInResult{
			Type:    models.ScanInvalid,
			Message: "ticket not for this event",
			QRData:  data,
		}
	}

	ticket, err := s.store.TicketByToken(ctx, data.Token)
	if err != nil {
		if errors.Is(err, status.ErrTicketNotFound) {
			return &models.CheckInResult{
				Type:    models.ScanInvalid,
				Message: "ticket not found",
				QRData:  data,
			}
		}
		slog.Error("checkin: ticket lookup failed", "error", err)
		return &models.CheckInResult{
			Type:    models.ScanInvalid,
			Message: "could not verify ticket, please re-scan",
			QRData:  data,
		}
	}

	switch ticket.Status {
	case models.TicketUsed:
		return duplicateResult(ticket, data)
	case models.TicketActive:
		// fall through to the conditional write
	default:
		return &models.CheckInResult{
			Type:    models.ScanInvalid,
			Message: fmt.Sprintf("ticket is %s", ticket.Status),
			Ticket:  ticket,
			QRData:  data,
		}
	}

	now := time.Now()
	won, err := s.store.MarkTicketUsed(ctx, ticket.Token, scannerID, now)
	if err != nil {
		slog.Error("checkin: mark used failed", "ticket_id", ticket.ID, "error", err)
		return &models.CheckInResult{
			Type:    models.ScanInvalid,
			Message: "could not record check-in, please re-scan",
			QRData:  data,
		}
	}
	if !won {
		// Lost the race (or the ticket was cancelled underneath us):
		// re-read and report what actually happened.
		current, err := s.store.TicketByToken(ctx, ticket.Token)
		if err != nil {
			slog.Error("checkin: re-read after lost race failed", "ticket_id", ticket.ID, "error", err)
			return &models.CheckInResult{
				Type:    models.ScanInvalid,
				Message: "could not verify ticket, please re-scan",
				QRData:  data,
			}
		}
		if current.Status == models.TicketUsed {
			return duplicateResult(current, data)
		}
		return &models.CheckInResult{
			Type:    models.ScanInvalid,
			Message: fmt.Sprintf("ticket is %s", current.Status),
			Ticket:  current,
			QRData:  data,
		}
	}

	ticket.Status = models.TicketUsed
	ticket.ScannedAt = &now
	ticket.ScannedBy = scannerID

	return &models.CheckInResult{
		Type:    models.ScanSuccess,
		Message: fmt.Sprintf("checked in: %s", ticket.AttendeeName),
		Ticket:  ticket,
		QRData:  data,
	}
}

func duplicateResult(ticket *models.Ticket, data *models.QRCodeData) *models.CheckInResult {
	msg := "ticket already used"
	if ticket.ScannedAt != nil {
		msg = fmt.Sprintf("ticket already used at %s", ticket.ScannedAt.Format(time.RFC3339))
	}
	return &models.CheckInResult{
		Type:    models.ScanDuplicate,
		Message: msg,
		Ticket:  ticket,
		QRData:  data,
	}
}
