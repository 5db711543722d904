// Package repomanager wires repository implementations to database handles.
// Repositories are cheap stateless wrappers, so services ask the manager for
// one per call site and can pass either the pooled *sql.DB or a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskvault/internal/dbx"
	"github.com/dmitrijs2005/taskvault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskvault/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskvault/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
