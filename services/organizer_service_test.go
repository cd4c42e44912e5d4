package services

import (
	"context"
	"testing"

	"eventpass/internal/status"
	"eventpass/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrganizerStore() *MemStore {
	store := NewMemStore()
	store.Organizers["org1"] = &models.Organizer{
		ID:      "org1",
		UserID:  "orguser",
		OrgName: "Tech Club",
		Status:  models.OrganizerPending,
	}
	store.Events["evt1"] = &models.Event{
		ID:          "evt1",
		OrganizerID: "org1",
		Name:        "RoboWars",
		Status:      models.EventDraft,
	}
	return store
}

func TestOrganizerVerdictAtMostOnce(t *testing.T) {
	store := pendingOrganizerStore()
	svc := NewOrganizerService(store)
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, "org1", "admin1"))

	org, err := store.OrganizerByID(ctx, "org1")
	require.NoError(t, err)
	assert.Equal(t, models.OrganizerApproved, org.Status)
	assert.Equal(t, "admin1", org.ReviewedBy)
	require.NotNil(t, org.ReviewedAt)

	// a second verdict in either direction fails
	assert.ErrorIs(t, svc.Approve(ctx, "org1", "admin2"), status.ErrVerdictAlreadySet)
	assert.ErrorIs(t, svc.Reject(ctx, "org1", "admin2", "late"), status.ErrVerdictAlreadySet)
}

func TestOrganizerRejectRequiresReason(t *testing.T) {
	store := pendingOrganizerStore()
	svc := NewOrganizerService(store)
	ctx := context.Background()

	assert.Error(t, svc.Reject(ctx, "org1", "admin1", ""))

	require.NoError(t, svc.Reject(ctx, "org1", "admin1", "incomplete application"))
	org, err := store.OrganizerByID(ctx, "org1")
	require.NoError(t, err)
	assert.Equal(t, models.OrganizerRejected, org.Status)
	assert.Equal(t, "incomplete application", org.Reason)
}

func TestEventLifecycle(t *testing.T) {
	store := pendingOrganizerStore()
	svc := NewOrganizerService(store)
	ctx := context.Background()

	require.NoError(t, svc.SubmitEvent(ctx, "evt1"))
	assert.Error(t, svc.SubmitEvent(ctx, "evt1"), "only drafts can be submitted")

	require.NoError(t, svc.ApproveEvent(ctx, "evt1"))

	// approved event, unverified organizer: publication stays gated
	assert.ErrorIs(t, svc.PublishEvent(ctx, "evt1"), status.ErrOrganizerNotApproved)

	require.NoError(t, svc.Approve(ctx, "org1", "admin1"))
	require.NoError(t, svc.PublishEvent(ctx, "evt1"))

	ev, err := store.EventByID(ctx, "evt1")
	require.NoError(t, err)
	assert.Equal(t, models.EventPublished, ev.Status)
}

func TestPublishRequiresApprovedEvent(t *testing.T) {
	store := pendingOrganizerStore()
	svc := NewOrganizerService(store)

	err := svc.PublishEvent(context.Background(), "evt1")
	assert.Error(t, err)
}
