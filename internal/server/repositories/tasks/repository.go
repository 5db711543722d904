// Package tasks persists task documents. Every operation is scoped by the
// owning user; a task belonging to someone else behaves as if it does not
// exist.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskvault/internal/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Get(ctx context.Context, userID, id string) (*models.Task, error)
	// Save writes all mutable fields of task and stamps updated_at from the
	// server clock. Partial-update semantics live in the service layer.
	Save(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, userID, id string) error
	SelectByOwner(ctx context.Context, userID string) ([]models.Task, error)
}
