// Package identity resolves the actor performing room actions: the
// authenticated user when a session exists, otherwise a persisted
// anonymous guest token, so seat ownership stays stable across restarts
// of the same device.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bidascore/bidascore-go/internal/clientstore"
	"github.com/bidascore/bidascore-go/internal/model"
)

// Resolver produces a stable identity for the device
type Resolver struct {
	userID string
	store  clientstore.Store
	logger *slog.Logger
}

// New creates a Resolver. userID is the authenticated user id extracted
// from the session token, or empty when no session exists.
func New(userID string, store clientstore.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		userID: userID,
		store:  store,
		logger: logger,
	}
}

// Resolve returns the actor identity. It never returns a zero identity:
// with no authenticated session it falls back to the persisted guest
// token, generating and persisting one on first need. If the store is
// unavailable the token is regenerated per call, degrading ownership
// checks to never-matches rather than failing the session.
func (r *Resolver) Resolve(ctx context.Context) model.Identity {
	if r.userID != "" {
		return model.Identity{UserID: r.userID}
	}

	token, err := r.store.GetGuestToken(ctx)
	if err == nil && token != "" {
		return model.Identity{GuestToken: token}
	}
	if err != nil && !errors.Is(err, clientstore.ErrNotFound) {
		r.logger.Warn("guest token store unavailable, using ephemeral identity",
			slog.String("error", err.Error()))
		return model.Identity{GuestToken: uuid.NewString()}
	}

	token = uuid.NewString()
	if err := r.store.SaveGuestToken(ctx, token); err != nil {
		r.logger.Warn("could not persist guest token",
			slog.String("error", err.Error()))
	}
	return model.Identity{GuestToken: token}
}
