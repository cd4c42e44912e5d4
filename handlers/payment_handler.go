package handlers

import (
	"net/http"

	"eventpass/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type PaymentHandler struct {
	app      *pocketbase.PocketBase
	payments *services.PaymentService
}

func NewPaymentHandler(app *pocketbase.PocketBase, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{app: app, payments: payments}
}

// CreateOrder opens a UPI order for a pending registration and returns
// the intent URI the client renders as a payment QR / deeplink.
func (h *PaymentHandler) CreateOrder(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		RegistrationID string `json:"registration_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.RegistrationID == "" {
		return apis.NewBadRequestError("registration_id is required", nil)
	}

	order, err := h.payments.CreateOrder(e.Request.Context(), req.RegistrationID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, order)
}

// Verify checks the gateway signature over order and payment ids and,
// on a match, confirms the registration and issues the ticket. A bad
// signature never confirms anything.
func (h *PaymentHandler) Verify(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return apis.NewBadRequestError("order_id, payment_id and signature are required", nil)
	}

	ticket, err := h.payments.VerifyAndConfirm(e.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status": "confirmed",
		"ticket": ticket,
	})
}
