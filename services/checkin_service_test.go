package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventpass/models"
	"eventpass/qrticket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueFixtureTicket(t *testing.T, store *MemStore, userID string) *models.Ticket {
	t.Helper()
	svc := NewRegistrationService(store, NopNotifier{}, 16)
	_, ticket, err := svc.SubmitRegistration(context.Background(), SubmitRequest{
		EventID:    "evt1",
		PassTypeID: "free1",
		UserID:     userID,
	})
	require.NoError(t, err)
	require.NotNil(t, ticket)
	return ticket
}

func TestScanSuccess(t *testing.T) {
	store := fixtureStore()
	ticket := issueFixtureTicket(t, store, "user1")
	svc := NewCheckinService(store, NopNotifier{}, nil)

	result := svc.ValidateAndCheckIn(context.Background(), qrticket.Encode(ticket), "evt1", "scanner1")

	assert.Equal(t, models.ScanSuccess, result.Type)
	assert.Contains(t, result.Message, "Asha Rao")
	require.NotNil(t, result.Ticket)
	assert.Equal(t, models.TicketUsed, result.Ticket.Status)
	assert.Equal(t, "scanner1", result.Ticket.ScannedBy)
	require.NotNil(t, result.Ticket.ScannedAt)
}

func TestScanDuplicateKeepsOriginalScan(t *testing.T) {
	store := fixtureStore()
	ticket := issueFixtureTicket(t, store, "user1")
	svc := NewCheckinService(store, NopNotifier{}, nil)
	ctx := context.Background()
	payload := qrticket.Encode(ticket)

	first := svc.ValidateAndCheckIn(ctx, payload, "evt1", "scanner1")
	require.Equal(t, models.ScanSuccess, first.Type)
	originalScan := *first.Ticket.ScannedAt

	second := svc.ValidateAndCheckIn(ctx, payload, "evt1", "scanner2")

	assert.Equal(t, models.ScanDuplicate, second.Type)
	assert.Contains(t, second.Message, "already used")
	assert.Contains(t, second.Message, originalScan.Format(time.RFC3339))
	// the second scan never rewrites the scan facts
	assert.Equal(t, "scanner1", second.Ticket.ScannedBy)
	assert.WithinDuration(t, originalScan, *second.Ticket.ScannedAt, time.Millisecond)
}

func TestScanWrongEvent(t *testing.T) {
	store := fixtureStore()
	ticket := issueFixtureTicket(t, store, "user1")
	svc := NewCheckinService(store, NopNotifier{}, nil)

	result := svc.ValidateAndCheckIn(context.Background(), qrticket.Encode(ticket), "evt_team", "scanner1")

	assert.Equal(t, models.ScanInvalid, result.Type)
	assert.Contains(t, result.Message, "not for this event")

	// the ticket stays usable at its own event
	after, err := store.TicketByToken(context.Background(), ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, models.TicketActive, after.Status)
}

func TestScanUnknownToken(t *testing.T) {
	store := fixtureStore()
	svc := NewCheckinService(store, NopNotifier{}, nil)

	fake := &models.Ticket{
		Token:   "FFFFFFFFFFFFFFFF",
		EventID: "evt1",
		UserID:  "user1",
		Kind:    models.TicketIndividual,
	}
	result := svc.ValidateAndCheckIn(context.Background(), qrticket.Encode(fake), "evt1", "scanner1")

	assert.Equal(t, models.ScanInvalid, result.Type)
	assert.Contains(t, result.Message, "not found")
}

func TestScanGarbagePayload(t *testing.T) {
	store := fixtureStore()
	svc := NewCheckinService(store, NopNotifier{}, nil)

	for _, payload := range []string{"", "hello", "TKT1|onlytwo", "not|a|ticket|at|all|0"} {
		result := svc.ValidateAndCheckIn(context.Background(), payload, "evt1", "scanner1")
		assert.Equal(t, models.ScanInvalid, result.Type, "payload %q", payload)
	}
}

func TestScanCancelledTicket(t *testing.T) {
	store := fixtureStore()
	ticket := issueFixtureTicket(t, store, "user1")
	_, err := store.CancelTicket(context.Background(), ticket.ID)
	require.NoError(t, err)

	svc := NewCheckinService(store, NopNotifier{}, nil)
	result := svc.ValidateAndCheckIn(context.Background(), qrticket.Encode(ticket), "evt1", "scanner1")

	assert.Equal(t, models.ScanInvalid, result.Type)
	assert.Contains(t, result.Message, models.TicketCancelled)
}

func TestScanRaceSingleWinner(t *testing.T) {
	store := fixtureStore()
	ticket := issueFixtureTicket(t, store, "user1")
	svc := NewCheckinService(store, NopNotifier{}, nil)
	payload := qrticket.Encode(ticket)

	const scanners = 8
	results := make([]*models.CheckInResult, scanners)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(scanners)
	for i := 0; i < scanners; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i] = svc.ValidateAndCheckIn(context.Background(), payload, "evt1", "scanner")
		}(i)
	}
	start.Done()
	done.Wait()

	successes := 0
	for _, r := range results {
		switch r.Type {
		case models.ScanSuccess:
			successes++
		case models.ScanDuplicate:
		default:
			t.Fatalf("unexpected result type %q: %s", r.Type, r.Message)
		}
	}
	assert.Equal(t, 1, successes)
}
