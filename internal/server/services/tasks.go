package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/models"
	"github.com/dmitrijs2005/taskvault/internal/server/blob"
	"github.com/dmitrijs2005/taskvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// BlobStore is the slice of the object store the task service needs.
// *blob.S3Store satisfies it; tests substitute a stub.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// SnapshotCache caches the full task collection per user. Implementations
// must never fail a request: a miss or a backend error just means a DB read.
type SnapshotCache interface {
	Get(ctx context.Context, userID string) ([]models.Task, bool)
	Set(ctx context.Context, userID string, tasks []models.Task)
	Invalidate(ctx context.Context, userID string)
}

// TaskService implements task CRUD, the status/star toggles, and attachment
// management on top of the repositories and the blob store.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       BlobStore
	cache       SnapshotCache
	logger      logging.Logger
}

// NewTaskService constructs a TaskService. cache may be nil (no caching).
func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, blobs BlobStore, cache SnapshotCache, logger logging.Logger) *TaskService {
	return &TaskService{db: db, repomanager: m, blobs: blobs, cache: cache, logger: logger}
}

// List returns the user's full task collection, newest first.
func (s *TaskService) List(ctx context.Context, userID string) ([]models.Task, error) {
	if userID == "" {
		return nil, common.ErrorUnauthenticated
	}
	if s.cache != nil {
		if tasks, ok := s.cache.Get(ctx, userID); ok {
			return tasks, nil
		}
	}
	repo := s.repomanager.Tasks(s.db)
	tasks, err := repo.SelectByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error selecting tasks: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, tasks)
	}
	return tasks, nil
}

// Create inserts a new task for the user, filling in lifecycle defaults for
// anything the caller left empty.
func (s *TaskService) Create(ctx context.Context, userID string, task models.Task) (*models.Task, error) {
	if userID == "" {
		return nil, common.ErrorUnauthenticated
	}

	task.UserID = userID
	if task.Status == "" {
		task.Status = models.StatusIncomplete
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Color == "" {
		task.Color = models.ColorDefault
	}
	if task.Attachments == nil {
		task.Attachments = []models.Attachment{}
	}

	repo := s.repomanager.Tasks(s.db)
	created, err := repo.Create(ctx, &task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	s.invalidate(ctx, userID)
	return created, nil
}

// Get returns one task by id.
func (s *TaskService) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	if userID == "" {
		return nil, common.ErrorUnauthenticated
	}
	repo := s.repomanager.Tasks(s.db)
	return repo.Get(ctx, userID, id)
}

// Update applies the patch to the stored task and saves the result.
func (s *TaskService) Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	if userID == "" {
		return nil, common.ErrorUnauthenticated
	}
	repo := s.repomanager.Tasks(s.db)
	current, err := repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)
	saved, err := repo.Save(ctx, &updated)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return saved, nil
}

// SetStatus marks the task completed or incomplete.
func (s *TaskService) SetStatus(ctx context.Context, userID, id string, status models.Status) (*models.Task, error) {
	return s.Update(ctx, userID, id, models.TaskPatch{Status: &status})
}

// SetStarred stars or unstars the task.
func (s *TaskService) SetStarred(ctx context.Context, userID, id string, starred bool) (*models.Task, error) {
	return s.Update(ctx, userID, id, models.TaskPatch{IsStarred: &starred})
}

// Delete removes the task document and its attachment blobs. Blob deletes
// run concurrently and are best-effort: a failed blob delete is logged and
// the document delete still proceeds, so the worst case is an orphaned blob,
// never a ghost task.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return common.ErrorUnauthenticated
	}
	repo := s.repomanager.Tasks(s.db)
	task, err := repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, a := range task.Attachments {
		wg.Add(1)
		go func(attachmentID string) {
			defer wg.Done()
			key := blob.ObjectKey(userID, id, attachmentID)
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.logger.Warn(ctx, "attachment blob delete failed", "key", key, "error", err)
			}
		}(a.ID)
	}
	wg.Wait()

	if err := repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// UploadAttachment stores the payload in the blob store and appends an
// attachment record to the task. The record's URL is a presigned download
// link minted at upload time.
func (s *TaskService) UploadAttachment(ctx context.Context, userID, taskID, name, contentType string, size int64, body io.Reader) (*models.Task, error) {
	if userID == "" {
		return nil, common.ErrorUnauthenticated
	}
	repo := s.repomanager.Tasks(s.db)
	task, err := repo.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	attachmentID := uuid.NewString()
	key := blob.ObjectKey(userID, taskID, attachmentID)
	if err := s.blobs.Upload(ctx, key, contentType, body); err != nil {
		return nil, err
	}
	url, err := s.blobs.PresignGet(ctx, key)
	if err != nil {
		return nil, err
	}

	attachments := append(task.Attachments, models.Attachment{
		ID:        attachmentID,
		Name:      name,
		URL:       url,
		Type:      contentType,
		Size:      size,
		CreatedAt: time.Now().UTC(),
	})
	saved, err := repo.Save(ctx, applyAttachments(task, attachments))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return saved, nil
}

// RemoveAttachment deletes the blob and drops the attachment record from the
// task. Unlike task deletion, a failed blob delete here aborts the operation
// so the record stays consistent with storage.
func (s *TaskService) RemoveAttachment(ctx context.Context, userID, taskID, attachmentID string) (*models.Task, error) {
	if userID == "" {
		return nil, common.ErrorUnauthenticated
	}
	repo := s.repomanager.Tasks(s.db)
	task, err := repo.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	found := false
	remaining := make([]models.Attachment, 0, len(task.Attachments))
	for _, a := range task.Attachments {
		if a.ID == attachmentID {
			found = true
			continue
		}
		remaining = append(remaining, a)
	}
	if !found {
		return nil, common.ErrorNotFound
	}

	if err := s.blobs.Delete(ctx, blob.ObjectKey(userID, taskID, attachmentID)); err != nil {
		return nil, err
	}

	saved, err := repo.Save(ctx, applyAttachments(task, remaining))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return saved, nil
}

func applyAttachments(task *models.Task, attachments []models.Attachment) *models.Task {
	patched := models.TaskPatch{Attachments: attachments, SetAttachments: true}.Apply(*task)
	return &patched
}

func (s *TaskService) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}
