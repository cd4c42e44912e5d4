package services

import (
	"context"
	"testing"
	"time"

	"eventpass/internal/status"
	"eventpass/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureStore() *MemStore {
	store := NewMemStore()
	store.Profiles["user1"] = "Asha Rao"
	store.Profiles["user2"] = "Vikram Iyer"

	store.Organizers["org1"] = &models.Organizer{
		ID:     "org1",
		UserID: "orguser",
		Status: models.OrganizerApproved,
	}
	store.Events["evt1"] = &models.Event{
		ID:              "evt1",
		OrganizerID:     "org1",
		Name:            "RoboWars",
		Status:          models.EventPublished,
		MaxParticipants: 100,
	}
	store.Events["evt_team"] = &models.Event{
		ID:          "evt_team",
		OrganizerID: "org1",
		Name:        "HackNight",
		Status:      models.EventPublished,
		IsTeamEvent: true,
		MaxTeamSize: 3,
	}
	store.PassTypes["free1"] = &models.PassType{
		ID:       "free1",
		EventID:  "evt1",
		Name:     "Visitor",
		Price:    decimal.Zero,
		IsActive: true,
	}
	store.PassTypes["paid1"] = &models.PassType{
		ID:       "paid1",
		EventID:  "evt1",
		Name:     "Participant",
		Price:    decimal.NewFromInt(150),
		Quantity: 2,
		IsActive: true,
	}
	store.PassTypes["team1"] = &models.PassType{
		ID:       "team1",
		EventID:  "evt_team",
		Name:     "Team Entry",
		Price:    decimal.Zero,
		IsActive: true,
	}
	return store
}

func TestSubmitRegistrationFreePass(t *testing.T) {
	store := fixtureStore()
	svc := NewRegistrationService(store, NopNotifier{}, 16)

	reg, ticket, err := svc.SubmitRegistration(context.Background(), SubmitRequest{
		EventID:    "evt1",
		PassTypeID: "free1",
		UserID:     "user1",
	})
	require.NoError(t, err)
	require.NotNil(t, ticket)

	assert.Equal(t, models.RegistrationConfirmed, reg.Status)
	assert.Equal(t, models.TicketActive, ticket.Status)
	assert.Equal(t, models.TicketIndividual, ticket.Kind)
	assert.Equal(t, "Asha Rao", ticket.AttendeeName)
	assert.Len(t, ticket.Token, 32)

	assert.Equal(t, 1, store.PassTypes["free1"].Sold)
	assert.Equal(t, 1, store.Events["evt1"].CurrentParticipants)
}

func TestSubmitRegistrationPaidPassStaysPending(t *testing.T) {
	store := fixtureStore()
	svc := NewRegistrationService(store, NopNotifier{}, 16)

	reg, ticket, err := svc.SubmitRegistration(context.Background(), SubmitRequest{
		EventID:    "evt1",
		PassTypeID: "paid1",
		UserID:     "user1",
	})
	require.NoError(t, err)

	assert.Nil(t, ticket)
	assert.Equal(t, models.RegistrationPending, reg.Status)
	assert.True(t, reg.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 0, store.PassTypes["paid1"].Sold)
}

func TestSubmitRegistrationDuplicate(t *testing.T) {
	store := fixtureStore()
	svc := NewRegistrationService(store, NopNotifier{}, 16)
	ctx := context.Background()

	_, _, err := svc.SubmitRegistration(ctx, SubmitRequest{
		EventID: "evt1", PassTypeID: "paid1", UserID: "user1",
	})
	require.NoError(t, err)

	_, _, err = svc.SubmitRegistration(ctx, SubmitRequest{
		EventID: "evt1", PassTypeID: "paid1", UserID: "user1",
	})
	assert.ErrorIs(t, err, status.ErrAlreadyRegistered)
}

func TestSubmitRegistrationSoldOut(t *testing.T) {
	store := fixtureStore()
	store.PassTypes["paid1"].Sold = 2
	svc := NewRegistrationService(store, NopNotifier{}, 16)

	_, _, err := svc.SubmitRegistration(context.Background(), SubmitRequest{
		EventID: "evt1", PassTypeID: "paid1", UserID: "user1",
	})
	assert.ErrorIs(t, err, status.ErrPassSoldOut)
}

func TestSubmitRegistrationEventFull(t *testing.T) {
	store := fixtureStore()
	store.Events["evt1"].CurrentParticipants = 100
	svc := NewRegistrationService(store, NopNotifier{}, 16)

	_, _, err := svc.SubmitRegistration(context.Background(), SubmitRequest{
		EventID: "evt1", PassTypeID: "free1", UserID: "user1",
	})
	assert.ErrorIs(t, err, status.ErrEventFull)
}

func TestSubmitRegistrationUnpublishedEvent(t *testing.T) {
	store := fixtureStore()
	store.Events["evt1"].Status = models.EventApproved
	svc := NewRegistrationService(store, NopNotifier{}, 16)

	_, _, err := svc.SubmitRegistration(context.Background(), SubmitRequest{
		EventID: "evt1", PassTypeID: "free1", UserID: "user1",
	})
	assert.Error(t, err)
}

func TestSubmitRegistrationSaleWindow(t *testing.T) {
	store := fixtureStore()
	past := time.Now().Add(-time.Hour)
	store.PassTypes["free1"].SaleEnd = &past
	svc := NewRegistrationService(store, NopNotifier{}, 16)

	_, _, err := svc.SubmitRegistration(context.Background(), SubmitRequest{
		EventID: "evt1", PassTypeID: "free1", UserID: "user1",
	})
	assert.ErrorIs(t, err, status.ErrPassNotOnSale)
}

func TestSubmitRegistrationTeamValidation(t *testing.T) {
	store := fixtureStore()
	svc := NewRegistrationService(store, NopNotifier{}, 16)
	ctx := context.Background()

	members := func(n int) []models.TeamMember {
		out := make([]models.TeamMember, n)
		for i := range out {
			out[i] = models.TeamMember{Name: "Member", Email: "m@college.edu"}
		}
		return out
	}

	t.Run("team fields on individual event", func(t *testing.T) {
		_, _, err := svc.SubmitRegistration(ctx, SubmitRequest{
			EventID: "evt1", PassTypeID: "free1", UserID: "user1",
			TeamName: "Bitwise", TeamMembers: members(2),
		})
		assert.ErrorIs(t, err, status.ErrNotTeamEvent)
	})

	t.Run("name without members", func(t *testing.T) {
		_, _, err := svc.SubmitRegistration(ctx, SubmitRequest{
			EventID: "evt_team", PassTypeID: "team1", UserID: "user1",
			TeamName: "Bitwise",
		})
		assert.ErrorIs(t, err, status.ErrTeamIncomplete)
	})

	t.Run("too many members", func(t *testing.T) {
		_, _, err := svc.SubmitRegistration(ctx, SubmitRequest{
			EventID: "evt_team", PassTypeID: "team1", UserID: "user1",
			TeamName: "Bitwise", TeamMembers: members(4),
		})
		assert.ErrorIs(t, err, status.ErrTeamTooLarge)
	})

	t.Run("valid team gets a team ticket", func(t *testing.T) {
		_, ticket, err := svc.SubmitRegistration(ctx, SubmitRequest{
			EventID: "evt_team", PassTypeID: "team1", UserID: "user1",
			TeamName: "Bitwise", TeamMembers: members(3),
		})
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Equal(t, models.TicketTeam, ticket.Kind)
		assert.Equal(t, "Bitwise", ticket.AttendeeName)
	})
}

func TestConfirmAndIssueIdempotent(t *testing.T) {
	store := fixtureStore()
	svc := NewRegistrationService(store, NopNotifier{}, 16)
	ctx := context.Background()

	reg, _, err := svc.SubmitRegistration(ctx, SubmitRequest{
		EventID: "evt1", PassTypeID: "paid1", UserID: "user1",
	})
	require.NoError(t, err)

	first, err := svc.ConfirmAndIssue(ctx, reg)
	require.NoError(t, err)

	again, err := svc.ConfirmAndIssue(ctx, reg)
	require.NoError(t, err)

	assert.Equal(t, first.Token, again.Token)
	assert.Equal(t, 1, store.PassTypes["paid1"].Sold)
}

func TestConfirmAndIssueCancelledRegistration(t *testing.T) {
	store := fixtureStore()
	svc := NewRegistrationService(store, NopNotifier{}, 16)

	reg := &models.Registration{
		ID:      "reg_x",
		EventID: "evt1",
		Status:  models.RegistrationCancelled,
	}
	_, err := svc.ConfirmAndIssue(context.Background(), reg)
	assert.ErrorIs(t, err, status.ErrNotConfirmed)
}

func TestConfirmAndIssueSellsLastPass(t *testing.T) {
	store := fixtureStore()
	svc := NewRegistrationService(store, NopNotifier{}, 16)
	ctx := context.Background()

	reg1, _, err := svc.SubmitRegistration(ctx, SubmitRequest{
		EventID: "evt1", PassTypeID: "paid1", UserID: "user1",
	})
	require.NoError(t, err)
	reg2, _, err := svc.SubmitRegistration(ctx, SubmitRequest{
		EventID: "evt1", PassTypeID: "paid1", UserID: "user2",
	})
	require.NoError(t, err)

	store.PassTypes["paid1"].Sold = 1

	_, err = svc.ConfirmAndIssue(ctx, reg1)
	require.NoError(t, err)

	// the counter guard, not the submit-time pre-check, decides
	_, err = svc.ConfirmAndIssue(ctx, reg2)
	assert.ErrorIs(t, err, status.ErrPassSoldOut)
}
