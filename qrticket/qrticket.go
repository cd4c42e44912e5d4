// Package qrticket serializes ticket identity into a scannable payload
// and parses it back. Encoding and decoding are pure: no database
// access, no side effects.
package qrticket

import (
	"strconv"
	"strings"
	"time"

	"eventpass/models"
)

// Payload version tag. A scanner seeing anything else treats the code
// as foreign.
const version = "TKT1"

const sep = "|"

// Encode embeds {ticket_token, event_id, user_id, type, issued_at}
// into a compact delimited string recoverable without a database
// round-trip.
func Encode(t *models.Ticket) string {
	issued := t.CreatedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	return strings.Join([]string{
		version,
		t.Token,
		t.EventID,
		t.UserID,
		t.Kind,
		strconv.FormatInt(issued.Unix(), 10),
	}, sep)
}

// Decode parses a scanned payload. It tolerates malformed input by
// returning nil rather than an error, so the caller can present an
// "invalid ticket" result instead of crashing the scan loop.
func Decode(payload string) *models.QRCodeData {
	parts := strings.Split(strings.TrimSpace(payload), sep)
	if len(parts) != 6 || parts[0] != version {
		return nil
	}

	token, eventID, userID, kind := parts[1], parts[2], parts[3], parts[4]
	if token == "" || eventID == "" || userID == "" {
		return nil
	}
	if kind != models.TicketIndividual && kind != models.TicketTeam {
		return nil
	}

	unix, err := strconv.ParseInt(parts[5], 10, 64)
	if err != nil || unix <= 0 {
		return nil
	}

	return &models.QRCodeData{
		Token:    token,
		EventID:  eventID,
		UserID:   userID,
		Kind:     kind,
		IssuedAt: time.Unix(unix, 0).UTC(),
	}
}
