package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

var projectColumns = []string{
	"id", "owner_id", "name", "description", "due_on", "completed", "created_at", "updated_at",
}

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	project := &models.Project{}
	var description, dueOn sql.NullString
	var completed sql.NullBool
	err := row.Scan(
		&project.ID, &project.OwnerID, &project.Name, &description,
		&dueOn, &completed, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	project.Description = description.String
	if dueOn.Valid {
		due, err := models.ParseDate(dueOn.String)
		if err != nil {
			return nil, fmt.Errorf("parse due_on %q: %w", dueOn.String, err)
		}
		project.DueOn = &due
	}
	if completed.Valid {
		done := completed.Bool
		project.Completed = &done
	}
	return project, nil
}

func dueOnValue(p *models.Project) sql.NullString {
	if p.DueOn == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.DueOn.Format(models.DateLayout), Valid: true}
}

func completedValue(p *models.Project) sql.NullBool {
	if p.Completed == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p.Completed, Valid: true}
}

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}

	query := `
		INSERT INTO projects (id, owner_id, name, description, due_on, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		project.ID, project.OwnerID, project.Name, project.Description,
		dueOnValue(project), completedValue(project),
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert project", err)
	}
	return nil
}

func (r *sqliteProjectRepo) getOne(ctx context.Context, op string, where sq.Sqlizer) (*models.Project, error) {
	query, args, err := sq.Select(projectColumns...).From("projects").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	project, err := scanProject(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return project, nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	return r.getOne(ctx, "get project by id", sq.Eq{"id": id})
}

func (r *sqliteProjectRepo) GetByOwnerAndName(ctx context.Context, ownerID, name string) (*models.Project, error) {
	return r.getOne(ctx, "get project by name", sq.Eq{"owner_id": ownerID, "name": name})
}

func (r *sqliteProjectRepo) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects SET name = ?, description = ?, due_on = ?, completed = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		project.Name, project.Description, dueOnValue(project), completedValue(project),
		project.UpdatedAt, project.ID,
	)
	if err != nil {
		return wrapWriteErr("update project", err)
	}
	return expectOneRow(result, "project", project.ID)
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectOneRow(result, "project", id)
}

func (r *sqliteProjectRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	query, args, err := sq.Select(projectColumns...).
		From("projects").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("completed IS NOT NULL AND completed = 1", "due_on IS NULL", "due_on", "name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list projects: build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *sqliteProjectRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE owner_id = ?", ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count owner projects: %w", err)
	}
	return count, nil
}

func (r *sqliteProjectRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}
