// Package handlers maps HTTP requests onto the service layer. All
// business failures are converted into API errors here; services never
// see the transport.
package handlers

import (
	"errors"

	"eventpass/internal/status"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// requireRole returns the auth record when it carries one of the given
// roles, or the API error to respond with.
func requireRole(e *core.RequestEvent, roles ...string) (*core.Record, error) {
	if e.Auth == nil {
		return nil, apis.NewUnauthorizedError("Unauthorized", nil)
	}
	role := e.Auth.GetString("role")
	for _, r := range roles {
		if role == r {
			return e.Auth, nil
		}
	}
	return nil, apis.NewForbiddenError("Access denied", nil)
}

// apiError maps service sentinel errors onto API responses.
func apiError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, status.ErrPassSoldOut),
		errors.Is(err, status.ErrEventFull),
		errors.Is(err, status.ErrPassInactive),
		errors.Is(err, status.ErrPassNotOnSale),
		errors.Is(err, status.ErrTeamTooLarge),
		errors.Is(err, status.ErrTeamIncomplete),
		errors.Is(err, status.ErrNotTeamEvent),
		errors.Is(err, status.ErrAlreadyRegistered),
		errors.Is(err, status.ErrVerdictAlreadySet),
		errors.Is(err, status.ErrOrganizerNotApproved),
		errors.Is(err, status.ErrSignatureMismatch),
		errors.Is(err, status.ErrOrderExpired):
		return apis.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, status.ErrTicketNotFound),
		errors.Is(err, status.ErrOrderNotFound):
		return apis.NewNotFoundError(err.Error(), nil)
	case errors.Is(err, status.ErrSessionInvalid):
		return apis.NewUnauthorizedError(err.Error(), nil)
	default:
		return apis.NewBadRequestError("request failed", err)
	}
}
