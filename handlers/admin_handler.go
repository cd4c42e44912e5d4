package handlers

import (
	"net/http"

	"eventpass/models"
	"eventpass/services"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type AdminHandler struct {
	app        *pocketbase.PocketBase
	organizers *services.OrganizerService
	store      services.Store
}

func NewAdminHandler(app *pocketbase.PocketBase, organizers *services.OrganizerService, store services.Store) *AdminHandler {
	return &AdminHandler{app: app, organizers: organizers, store: store}
}

type statusCount struct {
	Status string `db:"status"`
	Count  int    `db:"c"`
}

// Dashboard aggregates platform-wide counts for the admin console.
func (h *AdminHandler) Dashboard(e *core.RequestEvent) error {
	if _, err := requireRole(e, models.RoleAdmin); err != nil {
		return err
	}

	var eventCounts []struct {
		Status string `db:"event_status"`
		Count  int    `db:"c"`
	}
	if err := h.app.DB().
		Select("event_status", "COUNT(*) AS c").
		From("events").
		GroupBy("event_status").
		All(&eventCounts); err != nil {
		return apis.NewBadRequestError("Failed to load dashboard", err)
	}

	var ticketCounts []statusCount
	if err := h.app.DB().
		Select("status", "COUNT(*) AS c").
		From("tickets").
		GroupBy("status").
		All(&ticketCounts); err != nil {
		return apis.NewBadRequestError("Failed to load dashboard", err)
	}

	var revenue float64
	if err := h.app.DB().
		NewQuery("SELECT COALESCE(SUM(amount), 0) FROM registrations WHERE status = {:confirmed}").
		Bind(dbx.Params{"confirmed": models.RegistrationConfirmed}).
		Row(&revenue); err != nil {
		return apis.NewBadRequestError("Failed to load dashboard", err)
	}

	var pendingOrganizers int
	if err := h.app.DB().
		NewQuery("SELECT COUNT(*) FROM organizers WHERE status = {:pending}").
		Bind(dbx.Params{"pending": models.OrganizerPending}).
		Row(&pendingOrganizers); err != nil {
		return apis.NewBadRequestError("Failed to load dashboard", err)
	}

	events := map[string]int{}
	for _, row := range eventCounts {
		events[row.Status] = row.Count
	}
	tickets := map[string]int{}
	for _, row := range ticketCounts {
		tickets[row.Status] = row.Count
	}

	return e.JSON(http.StatusOK, map[string]any{
		"events":             events,
		"tickets":            tickets,
		"revenue":            revenue,
		"pending_organizers": pendingOrganizers,
	})
}

// PendingOrganizers lists organizer applications awaiting a verdict.
func (h *AdminHandler) PendingOrganizers(e *core.RequestEvent) error {
	if _, err := requireRole(e, models.RoleAdmin); err != nil {
		return err
	}

	records, err := h.app.FindRecordsByFilter(
		"organizers",
		"status = {:pending}",
		"+created",
		100,
		0,
		dbx.Params{"pending": models.OrganizerPending},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to load organizers", err)
	}

	items := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		item := map[string]any{
			"id":       rec.Id,
			"user":     rec.GetString("user"),
			"org_name": rec.GetString("org_name"),
			"applied":  rec.GetString("created"),
		}
		if user, err := h.app.FindRecordById("users", rec.GetString("user")); err == nil {
			item["name"] = user.GetString("name")
			item["email"] = user.Email()
		}
		items = append(items, item)
	}

	return e.JSON(http.StatusOK, map[string]any{"organizers": items})
}

// ApproveOrganizer records the approval verdict. A second verdict on
// the same application fails.
func (h *AdminHandler) ApproveOrganizer(e *core.RequestEvent) error {
	auth, err := requireRole(e, models.RoleAdmin)
	if err != nil {
		return err
	}
	id := e.Request.PathValue("organizerId")
	if err := h.organizers.Approve(e.Request.Context(), id, auth.Id); err != nil {
		return apiError(err)
	}

	// approval grants the organizer role on the account
	if org, err := h.store.OrganizerByID(e.Request.Context(), id); err == nil {
		if user, err := h.app.FindRecordById("users", org.UserID); err == nil {
			user.Set("role", models.RoleOrganizer)
			user.Set("verified", true)
			if err := h.app.Save(user); err != nil {
				return apis.NewBadRequestError("Organizer approved but role update failed", err)
			}
		}
	}

	return e.JSON(http.StatusOK, map[string]string{"status": models.OrganizerApproved})
}

// RejectOrganizer records the rejection verdict with its reason.
func (h *AdminHandler) RejectOrganizer(e *core.RequestEvent) error {
	auth, err := requireRole(e, models.RoleAdmin)
	if err != nil {
		return err
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	id := e.Request.PathValue("organizerId")
	if err := h.organizers.Reject(e.Request.Context(), id, auth.Id, req.Reason); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]string{"status": models.OrganizerRejected})
}

// ApproveEvent moves a submitted event out of the review queue.
func (h *AdminHandler) ApproveEvent(e *core.RequestEvent) error {
	if _, err := requireRole(e, models.RoleAdmin); err != nil {
		return err
	}
	if err := h.organizers.ApproveEvent(e.Request.Context(), e.Request.PathValue("eventId")); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]string{"event_status": models.EventApproved})
}

// CancelTicket is the administrative active -> cancelled path. Used
// tickets stay used; the scan already happened.
func (h *AdminHandler) CancelTicket(e *core.RequestEvent) error {
	if _, err := requireRole(e, models.RoleAdmin); err != nil {
		return err
	}

	ok, err := h.store.CancelTicket(e.Request.Context(), e.Request.PathValue("ticketId"))
	if err != nil {
		return apiError(err)
	}
	if !ok {
		return apis.NewBadRequestError("Ticket is not active", nil)
	}
	return e.JSON(http.StatusOK, map[string]string{"status": models.TicketCancelled})
}
