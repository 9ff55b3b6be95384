package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists user accounts.
//
// Create returns common.ErrorAlreadyExists when the email is taken.
// Lookups return common.ErrorNotFound when no row matches.
// GetUserByEmailForUpdate locks the row until the surrounding transaction ends.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByEmailForUpdate(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
