// Package testing provides testing utilities and helpers for the horizon project.
package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/horizon/internal/database"
)

// NewTestDB creates a file-backed SQLite database in a temporary directory and
// applies the schema matching name ("history" is the only one with a schema).
// The database is closed when the test finishes.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	dir, err := os.MkdirTemp("", fmt.Sprintf("test_%s_*", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database directory: %v", err)
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(dir, name+".db"),
		Profile: database.ProfileCache,
		Name:    name,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.RemoveAll(dir)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		if err := os.RemoveAll(dir); err != nil {
			t.Logf("Warning: Failed to remove temporary database directory %s: %v", dir, err)
		}
	})

	return db
}
