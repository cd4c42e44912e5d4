package handlers

import (
	"net/http"

	"eventpass/models"
	"eventpass/security"
	"eventpass/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// scannerTokenHeader carries the explicit scanner session token on
// every scan request.
const scannerTokenHeader = "X-Scanner-Token"

type CheckinHandler struct {
	app      *pocketbase.PocketBase
	checkins *services.CheckinService
	sessions *services.SessionService
	feed     *services.ScanFeed
	limiter  *security.ScanLimiter
}

func NewCheckinHandler(
	app *pocketbase.PocketBase,
	checkins *services.CheckinService,
	sessions *services.SessionService,
	feed *services.ScanFeed,
	limiter *security.ScanLimiter,
) *CheckinHandler {
	return &CheckinHandler{
		app:      app,
		checkins: checkins,
		sessions: sessions,
		feed:     feed,
		limiter:  limiter,
	}
}

// OpenSession issues a scanner session token to staff.
func (h *CheckinHandler) OpenSession(e *core.RequestEvent) error {
	auth, err := requireRole(e, models.RoleVolunteer, models.RoleOrganizer, models.RoleAdmin)
	if err != nil {
		return err
	}

	token, err := h.sessions.Issue(e.Request.Context(), services.ScannerIdentity{
		UserID: auth.Id,
		Name:   auth.GetString("name"),
		Role:   auth.GetString("role"),
	})
	if err != nil {
		return apis.NewBadRequestError("Failed to open scanner session", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"token":       token,
		"ttl_seconds": int(h.sessions.TTL.Seconds()),
	})
}

// CloseSession revokes the presented scanner session.
func (h *CheckinHandler) CloseSession(e *core.RequestEvent) error {
	token := e.Request.Header.Get(scannerTokenHeader)
	if err := h.sessions.Revoke(e.Request.Context(), token); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "revoked"})
}

// Scan validates a scanned QR payload against the scanning event and
// performs the at-most-once check-in. The response is always 200 with
// a success/duplicate/invalid result; the scanner UI decides what to
// show, the loop keeps running.
func (h *CheckinHandler) Scan(e *core.RequestEvent) error {
	ctx := e.Request.Context()

	identity, err := h.sessions.Validate(ctx, e.Request.Header.Get(scannerTokenHeader))
	if err != nil {
		return apiError(err)
	}

	if err := h.limiter.Allow(ctx, identity.UserID); err != nil {
		return apis.NewTooManyRequestsError("Too many scans, slow down", nil)
	}

	var req struct {
		EventID string `json:"event_id"`
		Payload string `json:"payload"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" {
		return apis.NewBadRequestError("event_id is required", nil)
	}

	result := h.checkins.ValidateAndCheckIn(ctx, req.Payload, req.EventID, identity.UserID)
	return e.JSON(http.StatusOK, result)
}

// RecentScans serves the volunteer console feed.
func (h *CheckinHandler) RecentScans(e *core.RequestEvent) error {
	if _, err := h.sessions.Validate(e.Request.Context(), e.Request.Header.Get(scannerTokenHeader)); err != nil {
		return apiError(err)
	}

	eventID := e.Request.PathValue("eventId")
	events, err := h.feed.Recent(e.Request.Context(), eventID, 0)
	if err != nil {
		return apis.NewBadRequestError("Failed to load recent scans", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id": eventID,
		"scans":    events,
	})
}
