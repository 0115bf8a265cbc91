// Package users is the user store: it persists and looks up principals.
package users

import (
	"context"

	"github.com/dmitrijs2005/intelligence/internal/server/models"
)

// Repository is the user store contract.
//
// FindByIdentifier matches identifier against id, name, or email and
// returns the first row; common.ErrorNotFound when nothing matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
}
