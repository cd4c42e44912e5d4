package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"eventpass/models"
	"eventpass/utils"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
	pubnub "github.com/pubnub/go"
)

// Notifier fans registration and scan events out to attendees and
// dashboards. Delivery failures are logged and swallowed: notification
// is a side effect, never a reason to fail the triggering operation.
type Notifier interface {
	RegistrationConfirmed(ctx context.Context, reg *models.Registration, ticket *models.Ticket)
	ScanRecorded(ctx context.Context, ev models.ScanEvent)
}

// PubNubNotifier publishes realtime messages over PubNub and sends the
// confirmation email through the PocketBase mailer. Both external
// calls go through a circuit breaker so a dead broker or SMTP relay
// cannot slow every registration down.
type PubNubNotifier struct {
	app     core.App
	pn      *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewPubNubNotifier(app core.App, pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{
		app:     app,
		pn:      pn,
		breaker: utils.NewCircuitBreaker("notifier"),
	}
}

func (n *PubNubNotifier) RegistrationConfirmed(ctx context.Context, reg *models.Registration, ticket *models.Ticket) {
	n.publish(ctx, fmt.Sprintf("user-%s", reg.UserID), map[string]any{
		"type":            "registration_confirmed",
		"registration_id": reg.ID,
		"event_id":        reg.EventID,
		"ticket_id":       ticket.ID,
	})
	n.sendConfirmationMail(reg, ticket)
}

func (n *PubNubNotifier) ScanRecorded(ctx context.Context, ev models.ScanEvent) {
	n.publish(ctx, fmt.Sprintf("event-%s-checkins", ev.EventID), map[string]any{
		"type":       "checkin",
		"result":     ev.Result,
		"attendee":   ev.Attendee,
		"scanned_by": ev.ScannedBy,
		"scanned_at": ev.ScannedAt,
	})
}

func (n *PubNubNotifier) publish(ctx context.Context, channel string, message map[string]any) {
	if n.pn == nil {
		return
	}
	_, err := n.breaker.Execute(ctx, func() (any, error) {
		_, pnStatus, err := n.pn.Publish().Channel(channel).Message(message).Execute()
		if err != nil {
			return nil, err
		}
		if pnStatus.Error != nil {
			return nil, fmt.Errorf("pubnub status %d", pnStatus.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		slog.Error("notifier: publish failed", "channel", channel, "error", err)
	}
}

func (n *PubNubNotifier) sendConfirmationMail(reg *models.Registration, ticket *models.Ticket) {
	user, err := n.app.FindRecordById("users", reg.UserID)
	if err != nil {
		slog.Error("notifier: user lookup failed", "user_id", reg.UserID, "error", err)
		return
	}

	event, err := n.app.FindRecordById("events", reg.EventID)
	if err != nil {
		slog.Error("notifier: event lookup failed", "event_id", reg.EventID, "error", err)
		return
	}

	message := &mailer.Message{
		From: mail.Address{
			Name:    n.app.Settings().Meta.SenderName,
			Address: n.app.Settings().Meta.SenderAddress,
		},
		To:      []mail.Address{{Address: user.Email()}},
		Subject: fmt.Sprintf("Your pass for %s", event.GetString("name")),
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour registration for %s is confirmed. Present the QR code on your pass at the entrance.\n\nVenue: %s\nAttendee: %s\n",
			user.GetString("name"), event.GetString("name"), event.GetString("venue"), ticket.AttendeeName,
		),
	}

	_, err = n.breaker.Execute(context.Background(), func() (any, error) {
		return nil, n.app.NewMailClient().Send(message)
	})
	if err != nil {
		slog.Error("notifier: confirmation mail failed", "registration_id", reg.ID, "error", err)
	}
}

// NopNotifier drops everything. Used in tests and demo mode.
type NopNotifier struct{}

func (NopNotifier) RegistrationConfirmed(context.Context, *models.Registration, *models.Ticket) {}
func (NopNotifier) ScanRecorded(context.Context, models.ScanEvent)                              {}
