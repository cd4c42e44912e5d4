package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		organizers, err := app.FindCollectionByNameOrId("organizers")
		if err != nil {
			return err
		}

		events := core.NewBaseCollection("events")
		events.Fields.Add(
			&core.RelationField{
				Name:         "organizer",
				CollectionId: organizers.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.TextField{Name: "name", Max: 200, Required: true},
			&core.EditorField{Name: "description"},
			&core.TextField{Name: "venue", Max: 200},
			&core.DateField{Name: "start_time"},
			&core.DateField{Name: "end_time"},
			&core.SelectField{
				Name:      "event_status",
				Values:    []string{"draft", "pending", "approved", "published", "cancelled"},
				MaxSelect: 1,
				Required:  true,
			},
			&core.NumberField{Name: "max_participants", OnlyInt: true},
			&core.NumberField{Name: "current_participants", OnlyInt: true},
			&core.BoolField{Name: "is_team_event"},
			&core.NumberField{Name: "max_team_size", OnlyInt: true},
			&core.FileField{Name: "banner", MaxSelect: 1, MaxSize: 5 << 20},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		events.AddIndex("idx_events_status", false, "event_status", "")

		if err := app.Save(events); err != nil {
			return err
		}

		passTypes := core.NewBaseCollection("pass_types")
		passTypes.Fields.Add(
			&core.RelationField{
				Name:         "event",
				CollectionId: events.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.TextField{Name: "name", Max: 100, Required: true},
			&core.NumberField{Name: "price"},
			&core.NumberField{Name: "quantity", OnlyInt: true},
			&core.NumberField{Name: "sold", OnlyInt: true},
			&core.BoolField{Name: "is_active"},
			&core.DateField{Name: "sale_start"},
			&core.DateField{Name: "sale_end"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		passTypes.AddIndex("idx_pass_types_event", false, "event", "")

		return app.Save(passTypes)
	}, func(app core.App) error {
		for _, name := range []string{"pass_types", "events"} {
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
