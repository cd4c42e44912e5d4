package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventpass/internal/services/upi"
	"eventpass/internal/status"
	"eventpass/models"
)

// PaymentService is the thin order/verification proxy in front of the
// UPI gateway. Its only hard obligation: a registration is never
// confirmed without a verified signature.
type PaymentService struct {
	store         RegistrationStore
	registrations *RegistrationService
	gateway       *upi.Gateway
}

func NewPaymentService(store RegistrationStore, registrations *RegistrationService, gateway *upi.Gateway) *PaymentService {
	return &PaymentService{
		store:         store,
		registrations: registrations,
		gateway:       gateway,
	}
}

// CreateOrder builds a UPI payment order for a pending registration
// and records the order id on it.
func (s *PaymentService) CreateOrder(ctx context.Context, registrationID, userID string) (*upi.Order, error) {
	reg, err := s.store.RegistrationByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.UserID != userID {
		return nil, fmt.Errorf("registration %s does not belong to user", registrationID)
	}
	if reg.Status != models.RegistrationPending {
		return nil, fmt.Errorf("registration %s is %s, nothing to pay", registrationID, reg.Status)
	}
	if reg.Amount.IsZero() {
		return nil, fmt.Errorf("registration %s is free, no payment order needed", registrationID)
	}

	order, err := s.gateway.CreateOrder(reg.ID, reg.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.store.AttachOrder(ctx, reg.ID, order.OrderID); err != nil {
		return nil, err
	}
	return order, nil
}

// VerifyAndConfirm checks the gateway signature over orderID|paymentID
// and, on a match, confirms the registration and issues the ticket.
// A mismatch is a hard rejection: the registration stays pending and
// the caller must restart the payment flow.
func (s *PaymentService) VerifyAndConfirm(ctx context.Context, orderID, paymentID, signature string) (*models.Ticket, error) {
	reg, err := s.store.RegistrationByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.gateway.OrderExpired(orderID) {
		return nil, status.ErrOrderExpired
	}
	if !s.gateway.Verify(orderID, paymentID, signature) {
		return nil, status.ErrSignatureMismatch
	}

	reg.PaymentID = paymentID
	return s.registrations.ConfirmAndIssue(ctx, reg)
}

// Run consumes asynchronous gateway callbacks until the context ends.
// Callback confirmations go through the same VerifyAndConfirm path as
// client-submitted ones; there is no unsigned shortcut.
func (s *PaymentService) Run(ctx context.Context) {
	ch := make(chan *upi.Notification, 1)
	s.gateway.SetTranChannel(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-ch:
			if n.Status != upi.StatusSuccess {
				slog.Info("payment callback ignored", "order_id", n.OrderID, "status", n.Status)
				continue
			}
			if _, err := s.VerifyAndConfirm(ctx, n.OrderID, n.PaymentID, n.Signature); err != nil {
				slog.Error("payment callback rejected", "order_id", n.OrderID, "error", err)
			}
		}
	}
}
