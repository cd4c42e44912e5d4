package qrticket

import (
	"strings"
	"testing"
	"time"

	"eventpass/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTicket() *models.Ticket {
	return &models.Ticket{
		ID:           "rec123",
		EventID:      "evt456",
		UserID:       "usr789",
		Token:        "A1B2C3D4E5F60718",
		Kind:         models.TicketIndividual,
		AttendeeName: "Asha Rao",
		Status:       models.TicketActive,
		CreatedAt:    time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	ticket := sampleTicket()

	payload := Encode(ticket)
	data := Decode(payload)

	require.NotNil(t, data)
	assert.Equal(t, ticket.Token, data.Token)
	assert.Equal(t, ticket.EventID, data.EventID)
	assert.Equal(t, ticket.UserID, data.UserID)
	assert.Equal(t, ticket.Kind, data.Kind)
	assert.Equal(t, ticket.CreatedAt.Unix(), data.IssuedAt.Unix())
}

func TestEncode_TeamTicket(t *testing.T) {
	ticket := sampleTicket()
	ticket.Kind = models.TicketTeam

	data := Decode(Encode(ticket))

	require.NotNil(t, data)
	assert.Equal(t, models.TicketTeam, data.Kind)
}

func TestEncode_ZeroCreatedAtFallsBackToNow(t *testing.T) {
	ticket := sampleTicket()
	ticket.CreatedAt = time.Time{}

	data := Decode(Encode(ticket))

	require.NotNil(t, data)
	assert.WithinDuration(t, time.Now(), data.IssuedAt, 5*time.Second)
}

func TestDecode_MalformedInputReturnsNil(t *testing.T) {
	malformed := []string{
		"",
		"garbage",
		"TKT1",
		"TKT1|only|three",
		"TKT2|tok|evt|usr|individual|1700000000",            // unknown version
		"TKT1||evt|usr|individual|1700000000",               // empty token
		"TKT1|tok||usr|individual|1700000000",               // empty event
		"TKT1|tok|evt||individual|1700000000",               // empty user
		"TKT1|tok|evt|usr|vip|1700000000",                   // unknown kind
		"TKT1|tok|evt|usr|individual|notatime",              // bad timestamp
		"TKT1|tok|evt|usr|individual|-5",                    // negative timestamp
		"TKT1|tok|evt|usr|individual|1700000000|extrafield", // too many fields
	}

	for _, payload := range malformed {
		assert.Nil(t, Decode(payload), "payload %q should not decode", payload)
	}
}

func TestDecode_TrimsSurroundingWhitespace(t *testing.T) {
	payload := "  " + Encode(sampleTicket()) + "\n"

	assert.NotNil(t, Decode(payload))
}

func TestDecode_IsPure(t *testing.T) {
	payload := Encode(sampleTicket())

	first := Decode(payload)
	second := Decode(payload)

	require.NotNil(t, first)
	assert.Equal(t, first, second)
}

func TestRenderPNG_ProducesImage(t *testing.T) {
	png, err := RenderPNG(sampleTicket(), 0)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(png), "\x89PNG"), "expected PNG magic bytes")
}

func TestTicketPDF_ProducesDocument(t *testing.T) {
	event := &models.Event{
		Name:      "TechFest 2026",
		Venue:     "Main Auditorium",
		StartTime: time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC),
	}

	pdf, err := TicketPDF(sampleTicket(), event)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"), "expected PDF header")
}
