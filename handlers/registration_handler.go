package handlers

import (
	"net/http"

	"eventpass/models"
	"eventpass/qrticket"
	"eventpass/services"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

type RegistrationHandler struct {
	app           *pocketbase.PocketBase
	registrations *services.RegistrationService
	store         services.Store
}

func NewRegistrationHandler(app *pocketbase.PocketBase, registrations *services.RegistrationService, store services.Store) *RegistrationHandler {
	return &RegistrationHandler{app: app, registrations: registrations, store: store}
}

// Register creates a registration for the authenticated student. Free
// passes confirm and issue the ticket in the same request; paid passes
// come back pending with payment_required set.
func (h *RegistrationHandler) Register(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req services.SubmitRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	req.UserID = e.Auth.Id

	reg, ticket, err := h.registrations.SubmitRegistration(e.Request.Context(), req)
	if err != nil {
		return apiError(err)
	}

	resp := map[string]any{
		"registration":     reg,
		"payment_required": reg.Status == models.RegistrationPending,
	}
	if ticket != nil {
		resp["ticket"] = ticket
	}
	return e.JSON(http.StatusOK, resp)
}

// Mine lists the caller's registrations, newest first, with the event
// name expanded for display.
func (h *RegistrationHandler) Mine(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	records, err := h.app.FindRecordsByFilter(
		"registrations",
		"user = {:userId}",
		"-created",
		100,
		0,
		dbx.Params{"userId": e.Auth.Id},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to load registrations", err)
	}

	items := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		item := map[string]any{
			"id":         rec.Id,
			"event":      rec.GetString("event"),
			"pass_type":  rec.GetString("pass_type"),
			"status":     rec.GetString("status"),
			"amount":     rec.GetFloat("amount"),
			"team_name":  rec.GetString("team_name"),
			"created_at": rec.GetDateTime("created").Time().Format(types.DefaultDateLayout),
		}
		if ev, err := h.app.FindRecordById("events", rec.GetString("event")); err == nil {
			item["event_name"] = ev.GetString("name")
			item["venue"] = ev.GetString("venue")
			item["start_time"] = ev.GetString("start_time")
		}
		if tkt, err := h.store.TicketByRegistration(e.Request.Context(), rec.Id); err == nil {
			item["ticket"] = tkt
		}
		items = append(items, item)
	}

	return e.JSON(http.StatusOK, map[string]any{"registrations": items})
}

// loadOwnedTicket fetches a ticket and enforces that the caller owns
// it or is an admin.
func (h *RegistrationHandler) loadOwnedTicket(e *core.RequestEvent) (*models.Ticket, error) {
	if e.Auth == nil {
		return nil, apis.NewUnauthorizedError("Unauthorized", nil)
	}
	ticket, err := h.store.TicketByID(e.Request.Context(), e.Request.PathValue("ticketId"))
	if err != nil {
		return nil, apiError(err)
	}
	if ticket.UserID != e.Auth.Id && e.Auth.GetString("role") != models.RoleAdmin {
		return nil, apis.NewForbiddenError("Access denied", nil)
	}
	return ticket, nil
}

// TicketQR serves the ticket's QR code as a PNG for on-screen display.
func (h *RegistrationHandler) TicketQR(e *core.RequestEvent) error {
	ticket, err := h.loadOwnedTicket(e)
	if err != nil {
		return err
	}
	png, err := qrticket.RenderPNG(ticket, 512)
	if err != nil {
		return apis.NewBadRequestError("Failed to render QR code", err)
	}
	return e.Blob(http.StatusOK, "image/png", png)
}

// TicketPDF serves the printable ticket with the embedded QR code.
func (h *RegistrationHandler) TicketPDF(e *core.RequestEvent) error {
	ticket, err := h.loadOwnedTicket(e)
	if err != nil {
		return err
	}
	event, err := h.store.EventByID(e.Request.Context(), ticket.EventID)
	if err != nil {
		return apiError(err)
	}
	pdf, err := qrticket.TicketPDF(ticket, event)
	if err != nil {
		return apis.NewBadRequestError("Failed to render ticket PDF", err)
	}
	e.Response.Header().Set("Content-Disposition", "attachment; filename=ticket-"+ticket.ID+".pdf")
	return e.Blob(http.StatusOK, "application/pdf", pdf)
}
