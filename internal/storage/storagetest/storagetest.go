// Package storagetest opens throwaway SQLite stores for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/storage"
)

// Open returns a migrated store in a temporary directory, closed at test end.
func Open(t testing.TB) *storage.SQLiteStorage {
	t.Helper()

	store := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	return store
}

// CreateUser inserts a user with the given names and email.
func CreateUser(t testing.TB, store storage.Storage, first, last, email string) *models.User {
	t.Helper()
	user := models.NewUser(first, last, email)
	user.PasswordHash = "x"
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateProject inserts a project owned by ownerID.
func CreateProject(t testing.TB, store storage.Storage, ownerID, name string) *models.Project {
	t.Helper()
	project := models.NewProject(ownerID, name, "")
	if err := store.Projects().Create(context.Background(), project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}
