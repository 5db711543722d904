package services

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/dbx"
	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/models"
	"github.com/dmitrijs2005/taskvault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskvault/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskvault/internal/server/repositories/users"
)

// In-memory repository stubs shared by the service tests.

type stubUserRepo struct {
	byEmail map[string]*models.User
	created []*models.User
	err     error
}

func (r *stubUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u.ID = "u-created"
	u.CreatedAt = time.Now()
	r.created = append(r.created, u)
	return u, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (r *stubUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type stubRefreshRepo struct {
	mu      sync.Mutex
	tokens  map[string]*models.RefreshToken
	deleted []string
	err     error
}

func newStubRefreshRepo() *stubRefreshRepo {
	return &stubRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (r *stubRefreshRepo) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (r *stubRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (r *stubRefreshRepo) Delete(ctx context.Context, token string) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	r.deleted = append(r.deleted, token)
	return nil
}

func (r *stubRefreshRepo) DeleteByUser(ctx context.Context, userID string) error {
	return nil
}

type stubTaskRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.Task
	saved   []*models.Task
	deleted []string
	err     error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{byID: map[string]*models.Task{}}
}

func (r *stubTaskRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	t := *task
	t.ID = "t-created"
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	r.mu.Lock()
	r.byID[t.ID] = &t
	r.mu.Unlock()
	return &t, nil
}

func (r *stubTaskRepo) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *stubTaskRepo) Save(ctx context.Context, task *models.Task) (*models.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	t := *task
	t.UpdatedAt = time.Now()
	r.mu.Lock()
	r.byID[t.ID] = &t
	r.saved = append(r.saved, &t)
	r.mu.Unlock()
	return &t, nil
}

func (r *stubTaskRepo) Delete(ctx context.Context, userID, id string) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubTaskRepo) SelectByOwner(ctx context.Context, userID string) ([]models.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.byID {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type stubManager struct {
	users   *stubUserRepo
	refresh *stubRefreshRepo
	tasks   *stubTaskRepo
}

func newStubManager() *stubManager {
	return &stubManager{
		users:   &stubUserRepo{byEmail: map[string]*models.User{}},
		refresh: newStubRefreshRepo(),
		tasks:   newStubTaskRepo(),
	}
}

func (m *stubManager) Users(db dbx.DBTX) users.Repository                 { return m.users }
func (m *stubManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.refresh }
func (m *stubManager) Tasks(db dbx.DBTX) tasks.Repository                 { return m.tasks }
func (m *stubManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type stubBlobStore struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func (b *stubBlobStore) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, key)
	return nil
}

func (b *stubBlobStore) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, key)
	return b.deleteErr
}

func (b *stubBlobStore) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://signed.example/" + key, nil
}

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (l nopLogger) With(args ...any) logging.Logger                  { return l }
