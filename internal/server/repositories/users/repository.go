// Package users persists registered accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskvault/internal/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
