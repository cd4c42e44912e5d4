package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"eventpass/models"
	"eventpass/services"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// DashboardHandler serves the organizer console for a single event.
type DashboardHandler struct {
	app    *pocketbase.PocketBase
	events *EventHandler
	store  services.Store
}

func NewDashboardHandler(app *pocketbase.PocketBase, events *EventHandler, store services.Store) *DashboardHandler {
	return &DashboardHandler{app: app, events: events, store: store}
}

// EventStats aggregates registrations, issued tickets, check-in
// progress and revenue for an owned event.
func (h *DashboardHandler) EventStats(e *core.RequestEvent) error {
	event, err := h.events.requireOwnedEvent(e)
	if err != nil {
		return err
	}

	var regCounts []statusCount
	if err := h.app.DB().
		Select("status", "COUNT(*) AS c").
		From("registrations").
		Where(dbx.HashExp{"event": event.ID}).
		GroupBy("status").
		All(&regCounts); err != nil {
		return apis.NewBadRequestError("Failed to load stats", err)
	}

	var ticketCounts []statusCount
	if err := h.app.DB().
		Select("status", "COUNT(*) AS c").
		From("tickets").
		Where(dbx.HashExp{"event": event.ID}).
		GroupBy("status").
		All(&ticketCounts); err != nil {
		return apis.NewBadRequestError("Failed to load stats", err)
	}

	var revenue float64
	if err := h.app.DB().
		NewQuery(`SELECT COALESCE(SUM(amount), 0) FROM registrations
			WHERE event = {:event} AND status = {:confirmed}`).
		Bind(dbx.Params{"event": event.ID, "confirmed": models.RegistrationConfirmed}).
		Row(&revenue); err != nil {
		return apis.NewBadRequestError("Failed to load stats", err)
	}

	registrations := map[string]int{}
	for _, row := range regCounts {
		registrations[row.Status] = row.Count
	}
	tickets := map[string]int{}
	issued := 0
	for _, row := range ticketCounts {
		tickets[row.Status] = row.Count
		if row.Status != models.TicketCancelled {
			issued += row.Count
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event":         event,
		"registrations": registrations,
		"tickets":       tickets,
		"checked_in":    tickets[models.TicketUsed],
		"issued":        issued,
		"revenue":       revenue,
	})
}

// ExportAttendees streams the attendee list for an owned event as CSV.
func (h *DashboardHandler) ExportAttendees(e *core.RequestEvent) error {
	event, err := h.events.requireOwnedEvent(e)
	if err != nil {
		return err
	}

	records, err := h.app.FindRecordsByFilter(
		"tickets",
		"event = {:event} && status != {:cancelled}",
		"+created",
		10000,
		0,
		dbx.Params{"event": event.ID, "cancelled": models.TicketCancelled},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to load attendees", err)
	}

	e.Response.Header().Set("Content-Type", "text/csv")
	e.Response.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=attendees-%s-%s.csv", event.ID, time.Now().Format("20060102")))
	e.Response.WriteHeader(http.StatusOK)

	w := csv.NewWriter(e.Response)
	if err := w.Write([]string{"ticket_id", "attendee", "type", "status", "scanned_at", "scanned_by"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.Id,
			rec.GetString("attendee_name"),
			rec.GetString("type"),
			rec.GetString("status"),
			rec.GetString("scanned_at"),
			rec.GetString("scanned_by"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
