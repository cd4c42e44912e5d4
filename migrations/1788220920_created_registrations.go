package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		passTypes, err := app.FindCollectionByNameOrId("pass_types")
		if err != nil {
			return err
		}

		registrations := core.NewBaseCollection("registrations")
		registrations.Fields.Add(
			&core.RelationField{
				Name:         "event",
				CollectionId: events.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.RelationField{
				Name:         "pass_type",
				CollectionId: passTypes.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.RelationField{
				Name:         "user",
				CollectionId: users.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.SelectField{
				Name:      "status",
				Values:    []string{"pending", "confirmed", "cancelled"},
				MaxSelect: 1,
				Required:  true,
			},
			&core.TextField{Name: "order_id", Max: 64},
			&core.TextField{Name: "payment_id", Max: 64},
			&core.NumberField{Name: "amount"},
			&core.TextField{Name: "team_name", Max: 100},
			&core.JSONField{Name: "team_members", MaxSize: 50000},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		// one live registration per user per pass
		registrations.AddIndex("idx_registrations_user_pass", true, "user, pass_type",
			"status != 'cancelled'")
		registrations.AddIndex("idx_registrations_order", false, "order_id", "")
		registrations.AddIndex("idx_registrations_event", false, "event", "")

		if err := app.Save(registrations); err != nil {
			return err
		}

		tickets := core.NewBaseCollection("tickets")
		tickets.Fields.Add(
			&core.RelationField{
				Name:         "event",
				CollectionId: events.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.RelationField{
				Name:         "user",
				CollectionId: users.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.RelationField{
				Name:         "registration",
				CollectionId: registrations.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.TextField{Name: "ticket_token", Max: 64, Required: true},
			&core.SelectField{
				Name:      "type",
				Values:    []string{"individual", "team"},
				MaxSelect: 1,
				Required:  true,
			},
			&core.TextField{Name: "attendee_name", Max: 200},
			&core.SelectField{
				Name:      "status",
				Values:    []string{"active", "used", "cancelled"},
				MaxSelect: 1,
				Required:  true,
			},
			&core.DateField{Name: "scanned_at"},
			&core.TextField{Name: "scanned_by", Max: 64},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		tickets.AddIndex("idx_tickets_token", true, "ticket_token", "")
		tickets.AddIndex("idx_tickets_registration", true, "registration", "")
		tickets.AddIndex("idx_tickets_event_status", false, "event, status", "")

		return app.Save(tickets)
	}, func(app core.App) error {
		for _, name := range []string{"tickets", "registrations"} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				return err
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
