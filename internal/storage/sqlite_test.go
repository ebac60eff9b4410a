package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

func setupTestDB(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "projectboard-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	store := NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	if err := store.Open(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open database: %v", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("migrate database: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func createTestUser(t *testing.T, store *SQLiteStorage, email string) *models.User {
	t.Helper()
	user := models.NewUser("Test", "User", email)
	user.PasswordHash = "hash"
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestProject(t *testing.T, store *SQLiteStorage, ownerID, name string) *models.Project {
	t.Helper()
	project := models.NewProject(ownerID, name, "")
	if err := store.Projects().Create(context.Background(), project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	tables := []string{"users", "projects", "tasks", "notes", "refresh_tokens", "schema_migrations"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}

	// Running again is a no-op.
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSQLiteStorage_Ping(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	closed := NewSQLiteStorage("unused.db")
	if err := closed.Ping(context.Background()); err == nil {
		t.Error("ping on unopened storage should fail")
	}
}

func TestUserRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, store, "ada@example.com")

	got, err := store.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got == nil || got.Email != "ada@example.com" {
		t.Fatalf("got %+v", got)
	}

	byEmail, err := store.Users().GetByEmail(ctx, "ADA@Example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Fatal("email lookup should be case-insensitive")
	}

	at := time.Now().UTC()
	if err := store.Users().UpdateSignIn(ctx, user.ID, "203.0.113.7", at); err != nil {
		t.Fatalf("update sign-in: %v", err)
	}
	if err := store.Users().UpdateLocation(ctx, user.ID, "Philadelphia, Pennsylvania, US"); err != nil {
		t.Fatalf("update location: %v", err)
	}
	got, _ = store.Users().GetByID(ctx, user.ID)
	if got.LastSignInIP != "203.0.113.7" {
		t.Errorf("LastSignInIP = %q", got.LastSignInIP)
	}
	if got.Location != "Philadelphia, Pennsylvania, US" {
		t.Errorf("Location = %q", got.Location)
	}

	missing, err := store.Users().GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("missing user: got %v, %v", missing, err)
	}

	if err := store.Users().Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Users().Delete(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	createTestUser(t, store, "dup@example.com")

	other := models.NewUser("Other", "User", "DUP@example.com")
	err := store.Users().Create(context.Background(), other)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestProjectRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := createTestUser(t, store, "owner@example.com")
	project := createTestProject(t, store, owner.ID, "Test Project")

	got, err := store.Projects().GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.Name != "Test Project" || got.DueOn != nil || got.Completed != nil {
		t.Fatalf("unexpected project: %+v", got)
	}

	due := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	done := true
	got.Name = "New Project Name"
	got.DueOn = &due
	got.Completed = &done
	if err := store.Projects().Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ = store.Projects().GetByID(ctx, project.ID)
	if got.Name != "New Project Name" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.DueOn == nil || !got.DueOn.Equal(due) {
		t.Errorf("DueOn = %v", got.DueOn)
	}
	if !got.IsCompleted() {
		t.Error("project should be completed")
	}

	byName, err := store.Projects().GetByOwnerAndName(ctx, owner.ID, "New Project Name")
	if err != nil || byName == nil || byName.ID != project.ID {
		t.Errorf("GetByOwnerAndName: %v, %v", byName, err)
	}

	if err := store.Projects().Delete(ctx, project.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	count, _ := store.Projects().Count(ctx)
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestProjectRepository_NameUniquePerOwner(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com")
	bob := createTestUser(t, store, "bob@example.com")

	createTestProject(t, store, alice.ID, "Shared")
	createTestProject(t, store, bob.ID, "Shared")

	err := store.Projects().Create(ctx, models.NewProject(alice.ID, "Shared", ""))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}

	n, _ := store.Projects().CountByOwner(ctx, alice.ID)
	if n != 1 {
		t.Errorf("alice projects = %d, want 1", n)
	}
}

func TestProjectRepository_ListByOwner(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com")
	bob := createTestUser(t, store, "bob@example.com")

	createTestProject(t, store, alice.ID, "Beta")
	createTestProject(t, store, alice.ID, "Alpha")
	createTestProject(t, store, bob.ID, "Gamma")

	projects, err := store.Projects().ListByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("len = %d, want 2", len(projects))
	}
	if projects[0].Name != "Alpha" || projects[1].Name != "Beta" {
		t.Errorf("order = %s, %s", projects[0].Name, projects[1].Name)
	}
}

func TestTaskRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := createTestUser(t, store, "owner@example.com")
	project := createTestProject(t, store, owner.ID, "Tasks")

	first := models.NewTask(project.ID, "first")
	second := models.NewTask(project.ID, "second")
	for _, task := range []*models.Task{first, second} {
		if err := store.Tasks().Create(ctx, task); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}

	first.Done = true
	if err := store.Tasks().Update(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}

	tasks, err := store.Tasks().ListByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Name != "first" || !tasks[0].Done {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	if err := store.Tasks().Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, _ := store.Tasks().GetByID(ctx, second.ID)
	if gone != nil {
		t.Error("task should be deleted")
	}
}

func TestNoteRepository_ListScopes(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com")
	bob := createTestUser(t, store, "bob@example.com")
	p1 := createTestProject(t, store, alice.ID, "One")
	p2 := createTestProject(t, store, alice.ID, "Two")
	p3 := createTestProject(t, store, bob.ID, "Three")

	for _, n := range []*models.Note{
		models.NewNote(p1.ID, alice.ID, "first note"),
		models.NewNote(p2.ID, alice.ID, "second note"),
		models.NewNote(p1.ID, alice.ID, "third note"),
		models.NewNote(p3.ID, bob.ID, "bob note"),
	} {
		if err := store.Notes().Create(ctx, n); err != nil {
			t.Fatalf("create note: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter NoteFilter
		want   []string
	}{
		{"project", NoteFilter{ProjectID: p1.ID}, []string{"first note", "third note"}},
		{"owner", NoteFilter{OwnerID: alice.ID}, []string{"first note", "second note", "third note"}},
		{"all", NoteFilter{}, []string{"first note", "second note", "third note", "bob note"}},
		{"foreign project", NoteFilter{ProjectID: p3.ID, OwnerID: alice.ID}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := store.Notes().List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(notes) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(notes), len(tt.want))
			}
			for i, n := range notes {
				if n.Message != tt.want[i] {
					t.Errorf("notes[%d] = %q, want %q", i, n.Message, tt.want[i])
				}
			}
		})
	}
}

func TestProjectDelete_CascadesChildren(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := createTestUser(t, store, "owner@example.com")
	project := createTestProject(t, store, owner.ID, "Doomed")
	if err := store.Tasks().Create(ctx, models.NewTask(project.ID, "task")); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := store.Notes().Create(ctx, models.NewNote(project.ID, owner.ID, "note")); err != nil {
		t.Fatalf("create note: %v", err)
	}

	if err := store.Projects().Delete(ctx, project.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	tasks, _ := store.Tasks().ListByProject(ctx, project.ID)
	notes, _ := store.Notes().Count(ctx)
	if len(tasks) != 0 || notes != 0 {
		t.Errorf("children remain: tasks=%d notes=%d", len(tasks), notes)
	}
}

func TestTokenRepository(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, store, "tok@example.com")
	now := time.Now().UTC()

	token, plain, err := models.NewRefreshToken(user.ID, time.Hour, now)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if err := store.Tokens().Create(ctx, token); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Tokens().GetByTokenHash(ctx, models.HashToken(plain))
	if err != nil || got == nil {
		t.Fatalf("lookup: %v, %v", got, err)
	}
	if !got.Usable(now) {
		t.Error("fresh token should be usable")
	}

	if err := store.Tokens().RevokeByTokenHash(ctx, token.TokenHash, now); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got, _ = store.Tokens().GetByTokenHash(ctx, token.TokenHash)
	if got.Usable(now) || got.RevokedAt == nil {
		t.Error("revoked token should not be usable")
	}

	deleted, err := store.Tokens().DeleteExpired(ctx, now.Add(2*time.Hour))
	if err != nil || deleted != 1 {
		t.Errorf("DeleteExpired = %d, %v", deleted, err)
	}
}
