package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"eventpass/internal/services/upi"
	"eventpass/internal/status"
	"eventpass/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureGateway(t *testing.T) *upi.Gateway {
	t.Helper()
	g, err := upi.New(context.Background(), &upi.Config{
		PayeeVPA:   "fest@upi",
		PayeeName:  "College Fest",
		HMACSecret: "test-secret",
		OrderTTL:   15 * time.Minute,
	})
	require.NoError(t, err)
	return g
}

func pendingPaidRegistration(t *testing.T, store *MemStore) *models.Registration {
	t.Helper()
	svc := NewRegistrationService(store, NopNotifier{}, 16)
	reg, _, err := svc.SubmitRegistration(context.Background(), SubmitRequest{
		EventID:    "evt1",
		PassTypeID: "paid1",
		UserID:     "user1",
	})
	require.NoError(t, err)
	return reg
}

func TestCreateOrder(t *testing.T) {
	store := fixtureStore()
	reg := pendingPaidRegistration(t, store)
	gateway := fixtureGateway(t)
	svc := NewPaymentService(store, NewRegistrationService(store, NopNotifier{}, 16), gateway)

	order, err := svc.CreateOrder(context.Background(), reg.ID, "user1")
	require.NoError(t, err)

	assert.Contains(t, order.IntentURI, "upi://pay?")
	assert.Contains(t, order.IntentURI, "am=150.00")
	assert.True(t, order.ExpiresAt.After(order.CreatedAt))

	stored, err := store.RegistrationByID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, stored.OrderID)
}

func TestCreateOrderRejections(t *testing.T) {
	store := fixtureStore()
	reg := pendingPaidRegistration(t, store)
	registrations := NewRegistrationService(store, NopNotifier{}, 16)
	svc := NewPaymentService(store, registrations, fixtureGateway(t))
	ctx := context.Background()

	t.Run("wrong user", func(t *testing.T) {
		_, err := svc.CreateOrder(ctx, reg.ID, "user2")
		assert.Error(t, err)
	})

	t.Run("already confirmed", func(t *testing.T) {
		confirmed, err := registrations.ConfirmAndIssue(ctx, reg)
		require.NoError(t, err)
		require.NotNil(t, confirmed)

		_, err = svc.CreateOrder(ctx, reg.ID, "user1")
		assert.Error(t, err)
	})
}

func TestVerifyAndConfirm(t *testing.T) {
	store := fixtureStore()
	reg := pendingPaidRegistration(t, store)
	gateway := fixtureGateway(t)
	svc := NewPaymentService(store, NewRegistrationService(store, NopNotifier{}, 16), gateway)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, reg.ID, "user1")
	require.NoError(t, err)

	paymentID := "UTR123456"
	ticket, err := svc.VerifyAndConfirm(ctx, order.OrderID, paymentID, gateway.Sign(order.OrderID, paymentID))
	require.NoError(t, err)
	require.NotNil(t, ticket)

	assert.Equal(t, models.TicketActive, ticket.Status)

	stored, err := store.RegistrationByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, stored.Status)
}

func TestVerifyAndConfirmBadSignature(t *testing.T) {
	store := fixtureStore()
	reg := pendingPaidRegistration(t, store)
	gateway := fixtureGateway(t)
	svc := NewPaymentService(store, NewRegistrationService(store, NopNotifier{}, 16), gateway)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, reg.ID, "user1")
	require.NoError(t, err)

	_, err = svc.VerifyAndConfirm(ctx, order.OrderID, "UTR123456", "forged")
	assert.ErrorIs(t, err, status.ErrSignatureMismatch)

	// a rejected verification never confirms anything
	stored, err := store.RegistrationByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, stored.Status)
	assert.Equal(t, 0, store.PassTypes["paid1"].Sold)
}

func TestVerifyAndConfirmExpiredOrder(t *testing.T) {
	store := fixtureStore()
	reg := pendingPaidRegistration(t, store)
	gateway := fixtureGateway(t)
	svc := NewPaymentService(store, NewRegistrationService(store, NopNotifier{}, 16), gateway)
	ctx := context.Background()

	staleOrderID := fmt.Sprintf("ord_%d_ABCDEF", time.Now().Add(-time.Hour).Unix())
	require.NoError(t, store.AttachOrder(ctx, reg.ID, staleOrderID))

	_, err := svc.VerifyAndConfirm(ctx, staleOrderID, "UTR1", gateway.Sign(staleOrderID, "UTR1"))
	assert.ErrorIs(t, err, status.ErrOrderExpired)
}

func TestVerifyAndConfirmUnknownOrder(t *testing.T) {
	store := fixtureStore()
	svc := NewPaymentService(store, NewRegistrationService(store, NopNotifier{}, 16), fixtureGateway(t))

	_, err := svc.VerifyAndConfirm(context.Background(), "ord_0_NOPE", "UTR1", "sig")
	assert.ErrorIs(t, err, status.ErrOrderNotFound)
}
