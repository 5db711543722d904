package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/dbx"
	"github.com/dmitrijs2005/taskvault/internal/models"
)

// NotifyChannel is the Postgres notification channel mutations are announced
// on. The payload is the owning user's id; the watch hub listens here and
// reloads that user's snapshot.
const NotifyChannel = "task_changes"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taskColumns = `id, user_id, title, description, created_at, updated_at,
		due_date, reminder, status, priority, is_starred, color, category, attachments`

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {

	attachments, err := marshalAttachments(task.Attachments)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO tasks (user_id, title, description, due_date, reminder,
		                    status, priority, is_starred, color, category, attachments)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		task.UserID, task.Title, task.Description, task.DueDate, task.Reminder,
		task.Status, task.Priority, task.IsStarred, task.Color, task.Category, attachments).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	if err := r.notifyChange(ctx, task.UserID); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Task, error) {

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, id, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) Save(ctx context.Context, task *models.Task) (*models.Task, error) {

	attachments, err := marshalAttachments(task.Attachments)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE tasks
		 SET title = $1, description = $2, due_date = $3, reminder = $4,
		     status = $5, priority = $6, is_starred = $7, color = $8,
		     category = $9, attachments = $10, updated_at = now()
		 WHERE id = $11 AND user_id = $12
		 RETURNING updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.DueDate, task.Reminder,
		task.Status, task.Priority, task.IsStarred, task.Color,
		task.Category, attachments, task.ID, task.UserID).
		Scan(&task.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	if err := r.notifyChange(ctx, task.UserID); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {

	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return r.notifyChange(ctx, userID)
}

func (r *PostgresRepository) SelectByOwner(ctx context.Context, userID string) ([]models.Task, error) {

	query := `SELECT ` + taskColumns + ` FROM tasks
		 WHERE user_id = $1
		 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tasks, nil
}

func (r *PostgresRepository) notifyChange(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, userID)
	if err != nil {
		return fmt.Errorf("error notifying change: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	task := &models.Task{}
	var attachments []byte

	err := s.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.CreatedAt, &task.UpdatedAt, &task.DueDate, &task.Reminder,
		&task.Status, &task.Priority, &task.IsStarred, &task.Color,
		&task.Category, &attachments)
	if err != nil {
		return nil, err
	}

	task.Attachments = []models.Attachment{}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &task.Attachments); err != nil {
			return nil, fmt.Errorf("error decoding attachments: %w", err)
		}
	}

	return task, nil
}

func marshalAttachments(a []models.Attachment) ([]byte, error) {
	if a == nil {
		a = []models.Attachment{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("error encoding attachments: %w", err)
	}
	return b, nil
}
