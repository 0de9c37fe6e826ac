package subtask

import (
	"errors"
	"testing"

	"taskline/internal/models"
)

func sampleForest() []models.Subtask {
	return []models.Subtask{
		{ID: 1, Text: "research", Completed: true, Subtasks: []models.Subtask{
			{ID: 3, Text: "find sources", Completed: false},
			{ID: 4, Text: "take notes", Completed: true},
		}},
		{ID: 2, Text: "outline", Completed: false, Subtasks: []models.Subtask{
			{ID: 5, Text: "thesis", Completed: false, Subtasks: []models.Subtask{
				{ID: 6, Text: "draft thesis", Completed: false},
			}},
		}},
	}
}

func TestGet(t *testing.T) {
	forest := sampleForest()

	tests := []struct {
		name   string
		path   Path
		wantID int
	}{
		{"top level", Path{1}, 2},
		{"nested", Path{0, 1}, 4},
		{"deep", Path{1, 0, 0}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Get(forest, tt.path)
			if err != nil {
				t.Fatalf("Get(%v) returned error: %v", tt.path, err)
			}
			if node.ID != tt.wantID {
				t.Errorf("Expected node ID %d, got %d", tt.wantID, node.ID)
			}
		})
	}
}

func TestGetPathNotFound(t *testing.T) {
	forest := sampleForest()

	badPaths := []Path{
		{},
		{5},
		{-1},
		{0, 7},
		{0, 0, 0},
		{1, 0, 0, 3},
	}

	for _, path := range badPaths {
		if _, err := Get(forest, path); !errors.Is(err, ErrPathNotFound) {
			t.Errorf("Get(%v) expected ErrPathNotFound, got %v", path, err)
		}
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	forest := sampleForest()

	paths := []Path{{0}, {0, 1}, {1, 0, 0}}
	for _, path := range paths {
		updated, err := Set(forest, path, func(n models.Subtask) models.Subtask {
			n.Text = "updated"
			n.Completed = true
			return n
		})
		if err != nil {
			t.Fatalf("Set(%v) returned error: %v", path, err)
		}

		got, err := Get(updated, path)
		if err != nil {
			t.Fatalf("Get(%v) after Set returned error: %v", path, err)
		}
		if got.Text != "updated" || !got.Completed {
			t.Errorf("Set/Get round trip at %v: got %+v", path, got)
		}
	}
}

func TestSetDoesNotMutateInput(t *testing.T) {
	forest := sampleForest()

	_, err := Set(forest, Path{0, 0}, func(n models.Subtask) models.Subtask {
		n.Completed = true
		return n
	})
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if forest[0].Subtasks[0].Completed {
		t.Error("Set mutated the input forest")
	}
}

func TestSetStructuralSharing(t *testing.T) {
	forest := sampleForest()

	updated, err := Set(forest, Path{0, 0}, func(n models.Subtask) models.Subtask {
		n.Completed = true
		return n
	})
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	// The sibling subtree off the path must share backing storage.
	if &updated[1].Subtasks[0] != &forest[1].Subtasks[0] {
		t.Error("Expected sibling subtree off the path to be shared, got a copy")
	}
	if updated[0].Subtasks[0].Completed != true {
		t.Error("Expected node on the path to be updated")
	}
}

func TestSetPathNotFound(t *testing.T) {
	forest := sampleForest()

	for _, path := range []Path{{}, {2}, {0, 0, 1}} {
		_, err := Set(forest, path, func(n models.Subtask) models.Subtask { return n })
		if !errors.Is(err, ErrPathNotFound) {
			t.Errorf("Set(%v) expected ErrPathNotFound, got %v", path, err)
		}
	}
}

func TestInsert(t *testing.T) {
	t.Run("top level", func(t *testing.T) {
		forest := sampleForest()
		node := models.Subtask{ID: 7, Text: "review"}

		updated, err := Insert(forest, Path{}, node)
		if err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
		if len(updated) != 3 {
			t.Fatalf("Expected 3 top-level nodes, got %d", len(updated))
		}
		if updated[2].ID != 7 {
			t.Errorf("Expected appended node ID 7, got %d", updated[2].ID)
		}
		if len(forest) != 2 {
			t.Error("Insert mutated the input forest")
		}
	})

	t.Run("nested parent", func(t *testing.T) {
		forest := sampleForest()
		node := models.Subtask{ID: 7, Text: "citations"}

		updated, err := Insert(forest, Path{0, 0}, node)
		if err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
		children := updated[0].Subtasks[0].Subtasks
		if len(children) != 1 || children[0].ID != 7 {
			t.Errorf("Expected node appended under path [0 0], got %+v", children)
		}
	})

	t.Run("empty forest", func(t *testing.T) {
		updated, err := Insert(nil, Path{}, models.Subtask{ID: 1, Text: "first"})
		if err != nil {
			t.Fatalf("Insert into empty forest returned error: %v", err)
		}
		if len(updated) != 1 {
			t.Fatalf("Expected 1 node, got %d", len(updated))
		}
	})

	t.Run("missing parent", func(t *testing.T) {
		if _, err := Insert(sampleForest(), Path{4}, models.Subtask{ID: 7}); !errors.Is(err, ErrPathNotFound) {
			t.Errorf("Expected ErrPathNotFound, got %v", err)
		}
	})
}

func TestRemove(t *testing.T) {
	t.Run("top level", func(t *testing.T) {
		forest := sampleForest()
		updated, err := Remove(forest, Path{0})
		if err != nil {
			t.Fatalf("Remove returned error: %v", err)
		}
		if len(updated) != 1 || updated[0].ID != 2 {
			t.Errorf("Expected only node 2 to remain, got %+v", updated)
		}
	})

	t.Run("nested discards subtree", func(t *testing.T) {
		forest := sampleForest()
		updated, err := Remove(forest, Path{1, 0})
		if err != nil {
			t.Fatalf("Remove returned error: %v", err)
		}
		if len(updated[1].Subtasks) != 0 {
			t.Errorf("Expected subtree removed, got %+v", updated[1].Subtasks)
		}
		// Node 6 lived under the removed node and must be gone too.
		total, _ := Count(updated)
		if total != 4 {
			t.Errorf("Expected 4 remaining nodes, got %d", total)
		}
	})

	t.Run("last remaining node empties the forest", func(t *testing.T) {
		forest := []models.Subtask{{ID: 1, Text: "only"}}
		updated, err := Remove(forest, Path{0})
		if err != nil {
			t.Fatalf("Remove returned error: %v", err)
		}
		if len(updated) != 0 {
			t.Errorf("Expected empty forest, got %+v", updated)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		for _, path := range []Path{{}, {9}, {0, 9}, {3, 0}} {
			if _, err := Remove(sampleForest(), path); !errors.Is(err, ErrPathNotFound) {
				t.Errorf("Remove(%v) expected ErrPathNotFound, got %v", path, err)
			}
		}
	})
}

func TestInsertRemovePair(t *testing.T) {
	forest := sampleForest()

	updated, err := Insert(forest, Path{}, models.Subtask{ID: NextID(forest), Text: "temp"})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	restored, err := Remove(updated, Path{len(updated) - 1})
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}

	if len(restored) != len(forest) {
		t.Fatalf("Expected %d nodes, got %d", len(forest), len(restored))
	}
	for i := range restored {
		if restored[i].ID != forest[i].ID {
			t.Errorf("Node %d: expected ID %d, got %d", i, forest[i].ID, restored[i].ID)
		}
	}
}

func TestNextID(t *testing.T) {
	t.Run("empty forest", func(t *testing.T) {
		if got := NextID(nil); got != 1 {
			t.Errorf("Expected 1 for empty forest, got %d", got)
		}
	})

	t.Run("max anywhere in the tree", func(t *testing.T) {
		forest := sampleForest() // max id 6 sits two levels deep
		if got := NextID(forest); got != 7 {
			t.Errorf("Expected 7, got %d", got)
		}
	})

	t.Run("unique after repeated insert and delete", func(t *testing.T) {
		var forest []models.Subtask
		seen := map[int]bool{}
		for i := 0; i < 10; i++ {
			id := NextID(forest)
			if hasID(forest, id) {
				t.Fatalf("NextID returned existing id %d", id)
			}
			var err error
			forest, err = Insert(forest, Path{}, models.Subtask{ID: id})
			if err != nil {
				t.Fatalf("Insert returned error: %v", err)
			}
			seen[id] = true
			// Remove from the middle every few rounds to shift positions.
			if i%3 == 2 {
				forest, err = Remove(forest, Path{0})
				if err != nil {
					t.Fatalf("Remove returned error: %v", err)
				}
			}
		}
		if len(seen) != 10 {
			t.Errorf("Expected 10 distinct ids, got %d", len(seen))
		}
	})
}

func hasID(forest []models.Subtask, id int) bool {
	for _, n := range forest {
		if n.ID == id || hasID(n.Subtasks, id) {
			return true
		}
	}
	return false
}
