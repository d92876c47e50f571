// Package users provides persistence for registered accounts.
//
// Every implementation maps a missing row to common.ErrorNotFound and a
// violated email uniqueness constraint to common.ErrorAlreadyExists, so
// callers can branch on errors.Is regardless of the backend.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type Repository interface {
	// Create stores user, assigning ID and CreatedAt.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
