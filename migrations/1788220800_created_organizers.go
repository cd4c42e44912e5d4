package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// Adds the role field to users and creates the organizers registry.
func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		users.Fields.Add(
			&core.TextField{Name: "name", Max: 120},
			&core.TextField{Name: "college", Max: 200},
			&core.TextField{Name: "phone", Max: 20},
			&core.SelectField{
				Name:      "role",
				Values:    []string{"student", "organizer", "volunteer", "admin"},
				MaxSelect: 1,
			},
			&core.BoolField{Name: "verified"},
		)
		if err := app.Save(users); err != nil {
			return err
		}

		organizers := core.NewBaseCollection("organizers")
		organizers.Fields.Add(
			&core.RelationField{
				Name:         "user",
				CollectionId: users.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.TextField{Name: "org_name", Max: 200, Required: true},
			&core.SelectField{
				Name:      "status",
				Values:    []string{"pending", "approved", "rejected"},
				MaxSelect: 1,
				Required:  true,
			},
			&core.TextField{Name: "reason", Max: 500},
			&core.RelationField{
				Name:         "reviewed_by",
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.DateField{Name: "reviewed_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		organizers.AddIndex("idx_organizers_user", true, "user", "")

		return app.Save(organizers)
	}, func(app core.App) error {
		organizers, err := app.FindCollectionByNameOrId("organizers")
		if err != nil {
			return err
		}
		if err := app.Delete(organizers); err != nil {
			return err
		}

		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		users.Fields.RemoveByName("name")
		users.Fields.RemoveByName("college")
		users.Fields.RemoveByName("phone")
		users.Fields.RemoveByName("role")
		users.Fields.RemoveByName("verified")
		return app.Save(users)
	})
}
