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

type EventHandler struct {
	app        *pocketbase.PocketBase
	organizers *services.OrganizerService
	store      services.Store
}

func NewEventHandler(app *pocketbase.PocketBase, organizers *services.OrganizerService, store services.Store) *EventHandler {
	return &EventHandler{app: app, organizers: organizers, store: store}
}

// List returns published events for the student catalog, optionally
// filtered by a search term over name and description.
func (h *EventHandler) List(e *core.RequestEvent) error {
	filter := "event_status = {:published}"
	params := dbx.Params{"published": models.EventPublished}

	if q := e.Request.URL.Query().Get("q"); q != "" {
		filter += " && (name ~ {:q} || description ~ {:q})"
		params["q"] = q
	}

	records, err := h.app.FindRecordsByFilter("events", filter, "+start_time", 100, 0, params)
	if err != nil {
		return apis.NewBadRequestError("Failed to load events", err)
	}

	items := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		items = append(items, map[string]any{
			"id":            rec.Id,
			"name":          rec.GetString("name"),
			"description":   rec.GetString("description"),
			"venue":         rec.GetString("venue"),
			"start_time":    rec.GetString("start_time"),
			"end_time":      rec.GetString("end_time"),
			"is_team_event": rec.GetBool("is_team_event"),
		})
	}

	return e.JSON(http.StatusOK, map[string]any{"events": items})
}

// Detail returns a published event with its active pass types and the
// remaining availability per pass.
func (h *EventHandler) Detail(e *core.RequestEvent) error {
	event, err := h.store.EventByID(e.Request.Context(), e.Request.PathValue("eventId"))
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	if event.Status != models.EventPublished {
		return apis.NewNotFoundError("Event not found", nil)
	}

	passRecords, err := h.app.FindRecordsByFilter(
		"pass_types",
		"event = {:eventId} && is_active = true",
		"+price",
		50,
		0,
		dbx.Params{"eventId": event.ID},
	)
	if err != nil {
		return apis.NewBadRequestError("Failed to load pass types", err)
	}

	passes := make([]map[string]any, 0, len(passRecords))
	for _, rec := range passRecords {
		quantity := rec.GetInt("quantity")
		item := map[string]any{
			"id":    rec.Id,
			"name":  rec.GetString("name"),
			"price": rec.GetFloat("price"),
		}
		if quantity > 0 {
			remaining := quantity - rec.GetInt("sold")
			if remaining < 0 {
				remaining = 0
			}
			item["remaining"] = remaining
		}
		passes = append(passes, item)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event":      event,
		"pass_types": passes,
	})
}

// Apply files an organizer verification request for the caller. A user
// has at most one organizer record; re-applying after rejection is a
// new admin decision, not an overwrite.
func (h *EventHandler) Apply(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		OrgName string `json:"org_name"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.OrgName == "" {
		return apis.NewBadRequestError("org_name is required", nil)
	}

	if _, err := h.store.OrganizerByUser(e.Request.Context(), e.Auth.Id); err == nil {
		return apis.NewBadRequestError("An organizer application already exists for this account", nil)
	}

	collection, err := h.app.FindCollectionByNameOrId("organizers")
	if err != nil {
		return apis.NewBadRequestError("Failed to apply", err)
	}
	rec := core.NewRecord(collection)
	rec.Set("user", e.Auth.Id)
	rec.Set("org_name", req.OrgName)
	rec.Set("status", models.OrganizerPending)
	if err := h.app.Save(rec); err != nil {
		return apis.NewBadRequestError("Failed to apply", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"id":     rec.Id,
		"status": models.OrganizerPending,
	})
}

// requireOwnedEvent loads an event and checks that the authenticated
// organizer owns it. Admins pass the ownership check.
func (h *EventHandler) requireOwnedEvent(e *core.RequestEvent) (*models.Event, error) {
	auth, err := requireRole(e, models.RoleOrganizer, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	event, err := h.store.EventByID(e.Request.Context(), e.Request.PathValue("eventId"))
	if err != nil {
		return nil, apis.NewNotFoundError("Event not found", err)
	}

	if auth.GetString("role") == models.RoleAdmin {
		return event, nil
	}

	org, err := h.store.OrganizerByUser(e.Request.Context(), auth.Id)
	if err != nil || org.ID != event.OrganizerID {
		return nil, apis.NewForbiddenError("Access denied", nil)
	}
	return event, nil
}

// Create opens a draft event for the caller's organizer record.
func (h *EventHandler) Create(e *core.RequestEvent) error {
	auth, err := requireRole(e, models.RoleOrganizer)
	if err != nil {
		return err
	}

	org, err := h.store.OrganizerByUser(e.Request.Context(), auth.Id)
	if err != nil {
		return apis.NewForbiddenError("Apply as an organizer first", nil)
	}

	var req struct {
		Name            string `json:"name"`
		Description     string `json:"description"`
		Venue           string `json:"venue"`
		StartTime       string `json:"start_time"`
		EndTime         string `json:"end_time"`
		MaxParticipants int    `json:"max_participants"`
		IsTeamEvent     bool   `json:"is_team_event"`
		MaxTeamSize     int    `json:"max_team_size"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Name == "" {
		return apis.NewBadRequestError("name is required", nil)
	}
	if req.IsTeamEvent && req.MaxTeamSize < 2 {
		return apis.NewBadRequestError("team events need a max_team_size of at least 2", nil)
	}

	collection, err := h.app.FindCollectionByNameOrId("events")
	if err != nil {
		return apis.NewBadRequestError("Failed to create event", err)
	}
	rec := core.NewRecord(collection)
	rec.Set("organizer", org.ID)
	rec.Set("name", req.Name)
	rec.Set("description", req.Description)
	rec.Set("venue", req.Venue)
	rec.Set("start_time", req.StartTime)
	rec.Set("end_time", req.EndTime)
	rec.Set("event_status", models.EventDraft)
	rec.Set("max_participants", req.MaxParticipants)
	rec.Set("current_participants", 0)
	rec.Set("is_team_event", req.IsTeamEvent)
	rec.Set("max_team_size", req.MaxTeamSize)
	if err := h.app.Save(rec); err != nil {
		return apis.NewBadRequestError("Failed to create event", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"id":           rec.Id,
		"event_status": models.EventDraft,
	})
}

// Update edits the editable fields of an owned event while it is still
// a draft.
func (h *EventHandler) Update(e *core.RequestEvent) error {
	event, err := h.requireOwnedEvent(e)
	if err != nil {
		return err
	}
	if event.Status != models.EventDraft {
		return apis.NewBadRequestError("Only draft events can be edited", nil)
	}

	var req struct {
		Name            *string `json:"name"`
		Description     *string `json:"description"`
		Venue           *string `json:"venue"`
		StartTime       *string `json:"start_time"`
		EndTime         *string `json:"end_time"`
		MaxParticipants *int    `json:"max_participants"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	rec, err := h.app.FindRecordById("events", event.ID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	if req.Name != nil {
		rec.Set("name", *req.Name)
	}
	if req.Description != nil {
		rec.Set("description", *req.Description)
	}
	if req.Venue != nil {
		rec.Set("venue", *req.Venue)
	}
	if req.StartTime != nil {
		rec.Set("start_time", *req.StartTime)
	}
	if req.EndTime != nil {
		rec.Set("end_time", *req.EndTime)
	}
	if req.MaxParticipants != nil {
		rec.Set("max_participants", *req.MaxParticipants)
	}
	if err := h.app.Save(rec); err != nil {
		return apis.NewBadRequestError("Failed to update event", err)
	}

	return e.JSON(http.StatusOK, map[string]string{"id": rec.Id})
}

// AddPassType attaches a pass type to an owned draft or pending event.
func (h *EventHandler) AddPassType(e *core.RequestEvent) error {
	event, err := h.requireOwnedEvent(e)
	if err != nil {
		return err
	}
	if event.Status == models.EventPublished {
		return apis.NewBadRequestError("Pass types cannot be added after publication", nil)
	}

	var req struct {
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Quantity  int     `json:"quantity"`
		SaleStart string  `json:"sale_start"`
		SaleEnd   string  `json:"sale_end"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Name == "" {
		return apis.NewBadRequestError("name is required", nil)
	}
	if req.Price < 0 || req.Quantity < 0 {
		return apis.NewBadRequestError("price and quantity must not be negative", nil)
	}

	collection, err := h.app.FindCollectionByNameOrId("pass_types")
	if err != nil {
		return apis.NewBadRequestError("Failed to create pass type", err)
	}
	rec := core.NewRecord(collection)
	rec.Set("event", event.ID)
	rec.Set("name", req.Name)
	rec.Set("price", req.Price)
	rec.Set("quantity", req.Quantity)
	rec.Set("sold", 0)
	rec.Set("is_active", true)
	rec.Set("sale_start", req.SaleStart)
	rec.Set("sale_end", req.SaleEnd)
	if err := h.app.Save(rec); err != nil {
		return apis.NewBadRequestError("Failed to create pass type", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"id": rec.Id})
}

// Submit moves an owned draft into the admin review queue.
func (h *EventHandler) Submit(e *core.RequestEvent) error {
	event, err := h.requireOwnedEvent(e)
	if err != nil {
		return err
	}
	if err := h.organizers.SubmitEvent(e.Request.Context(), event.ID); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]string{"event_status": models.EventPending})
}

// Publish makes an approved event visible. It fails while the owning
// organizer is still unverified.
func (h *EventHandler) Publish(e *core.RequestEvent) error {
	event, err := h.requireOwnedEvent(e)
	if err != nil {
		return err
	}
	if err := h.organizers.PublishEvent(e.Request.Context(), event.ID); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]string{"event_status": models.EventPublished})
}
