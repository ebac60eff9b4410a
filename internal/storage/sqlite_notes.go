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

type sqliteNoteRepo struct {
	db *sql.DB
}

func (r *sqliteNoteRepo) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notes (id, project_id, user_id, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		note.ID, note.ProjectID, note.UserID, note.Message, note.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert note", err)
	}
	return nil
}

func (r *sqliteNoteRepo) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := `
		SELECT id, project_id, user_id, message, created_at
		FROM notes WHERE id = ?
	`
	note := &models.Note{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID, &note.ProjectID, &note.UserID, &note.Message, &note.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note by id: %w", err)
	}
	return note, nil
}

func (r *sqliteNoteRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return expectOneRow(result, "note", id)
}

func (r *sqliteNoteRepo) List(ctx context.Context, filter NoteFilter) ([]*models.Note, error) {
	q := sq.Select("n.id", "n.project_id", "n.user_id", "n.message", "n.created_at").
		From("notes n").
		OrderBy("n.rowid")
	if filter.ProjectID != "" {
		q = q.Where(sq.Eq{"n.project_id": filter.ProjectID})
	}
	if filter.OwnerID != "" {
		q = q.Join("projects p ON p.id = n.project_id").Where(sq.Eq{"p.owner_id": filter.OwnerID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list notes: build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		note := &models.Note{}
		if err := rows.Scan(&note.ID, &note.ProjectID, &note.UserID, &note.Message, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *sqliteNoteRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}
