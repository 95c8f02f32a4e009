// Package service holds the business rules of the platform.
//
// Handlers parse HTTP, services decide, repositories persist:
//
//	handler (HTTP) → service (rules, ownership) → repository (storage)
//	                         ↘ matching (pure)   ↘ meetlink (calendar/video)
//
// Every service takes the authenticated model.Principal explicitly and
// returns *apperror.AppError kinds the HTTP layer maps to status codes.
package service

import (
	"context"
	"time"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

// ownerOrAdmin allows the principal acting on its own record, or any admin.
func ownerOrAdmin(p model.Principal, role model.Role, id string) error {
	if p.IsAdmin() || p.Is(role, id) {
		return nil
	}
	return apperror.Forbidden("you can only access your own " + string(role) + " account")
}

func userContact(ctx context.Context, users repository.UserRepository, id string) *model.Contact {
	u, err := users.GetUserByID(ctx, id)
	if err != nil {
		return &model.Contact{ID: id}
	}
	return &model.Contact{ID: u.ID, Name: u.Name, Email: u.Email}
}

func creatorContact(ctx context.Context, creators repository.CreatorRepository, id string) *model.Contact {
	c, err := creators.GetCreatorByID(ctx, id)
	if err != nil {
		return &model.Contact{ID: id}
	}
	return &model.Contact{ID: c.ID, Name: c.Name, Email: c.Email}
}
