package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

type sqliteTaskRepo struct {
	db *sql.DB
}

func (r *sqliteTaskRepo) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	query := `
		INSERT INTO tasks (id, project_id, name, done, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.ProjectID, task.Name, task.Done,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert task", err)
	}
	return nil
}

func (r *sqliteTaskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `
		SELECT id, project_id, name, done, created_at, updated_at
		FROM tasks WHERE id = ?
	`
	task := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID, &task.ProjectID, &task.Name, &task.Done,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return task, nil
}

func (r *sqliteTaskRepo) Update(ctx context.Context, task *models.Task) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET name = ?, done = ?, updated_at = ? WHERE id = ?",
		task.Name, task.Done, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOneRow(result, "task", task.ID)
}

func (r *sqliteTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOneRow(result, "task", id)
}

func (r *sqliteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	query := `
		SELECT id, project_id, name, done, created_at, updated_at
		FROM tasks WHERE project_id = ?
		ORDER BY rowid
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		err := rows.Scan(
			&task.ID, &task.ProjectID, &task.Name, &task.Done,
			&task.CreatedAt, &task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
