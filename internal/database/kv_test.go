package database

import (
	"path/filepath"
	"testing"

	"taskline/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	return db
}

func TestPutGetRoundTrip(t *testing.T) {
	db := openTestDB(t)

	in := []models.Assignment{
		{ID: "a-1", Title: "Essay", Deadline: "2026-12-01", Progress: 25, Subtasks: []models.Subtask{
			{ID: 1, Text: "research", Completed: true, Subtasks: []models.Subtask{
				{ID: 2, Text: "sources"},
			}},
		}},
		{ID: "a-2", Title: "Lab report", Deadline: "2026-11-15"},
	}
	if err := db.Put(KeyAssignments, in); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	var out []models.Assignment
	found, err := db.Get(KeyAssignments, &out)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found {
		t.Fatal("Expected key to be found")
	}
	if len(out) != 2 || out[0].ID != "a-1" || out[0].Subtasks[0].Subtasks[0].ID != 2 {
		t.Errorf("Round trip mismatch: %+v", out)
	}
}

func TestPutReplacesValue(t *testing.T) {
	db := openTestDB(t)

	if err := db.Put(KeyCurrentUser, models.User{ID: "u1", Name: "Ann"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := db.Put(KeyCurrentUser, models.User{ID: "u2", Name: "Bob"}); err != nil {
		t.Fatalf("Second Put returned error: %v", err)
	}

	var u models.User
	if _, err := db.Get(KeyCurrentUser, &u); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if u.ID != "u2" {
		t.Errorf("Expected replaced value u2, got %s", u.ID)
	}
}

func TestGetMissingKey(t *testing.T) {
	db := openTestDB(t)

	var out []models.Assignment
	found, err := db.Get(KeyArchived, &out)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if found {
		t.Error("Expected missing key to report not found")
	}
}

func TestDelete(t *testing.T) {
	db := openTestDB(t)

	if err := db.Put(KeyCurrentUser, models.User{ID: "u1"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := db.Delete(KeyCurrentUser); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	var u models.User
	if found, _ := db.Get(KeyCurrentUser, &u); found {
		t.Error("Expected key to be gone after delete")
	}

	// Deleting again is a no-op.
	if err := db.Delete(KeyCurrentUser); err != nil {
		t.Errorf("Delete of missing key returned error: %v", err)
	}
}
