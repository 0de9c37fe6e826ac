package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskline/internal/models"
)

// CollectionStore holds the signed-in user's two disjoint collections:
// active and archived assignments. Both preserve insertion order and an id
// never appears in both at once. All persistence goes through the gateway.
type CollectionStore struct {
	mu      sync.RWMutex
	gateway *SyncGateway

	// Drop manual subtasks from drafts that carry a description, leaving
	// the breakdown to the backend's generator.
	suppressManual bool

	active    []models.Assignment
	archived  []models.Assignment
	currentID string
}

// NewCollectionStore creates an empty store over the gateway.
func NewCollectionStore(gateway *SyncGateway, suppressManualSubtasks bool) *CollectionStore {
	return &CollectionStore{
		gateway:        gateway,
		suppressManual: suppressManualSubtasks,
	}
}

// Load populates both collections, remote-first with local fallback. The
// returned error is the remote failure (if any) for the caller to surface;
// the collections are usable either way.
func (s *CollectionStore) Load(ctx context.Context) error {
	active, _, activeErr := s.gateway.FetchActive(ctx)
	archived, _, archivedErr := s.gateway.FetchArchived(ctx)

	s.mu.Lock()
	s.active = active
	s.archived = archived
	s.mu.Unlock()

	return errors.Join(activeErr, archivedErr)
}

// Active returns a snapshot of the active collection.
func (s *CollectionStore) Active() []models.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Assignment, len(s.active))
	copy(out, s.active)
	return out
}

// Archived returns a snapshot of the archived collection.
func (s *CollectionStore) Archived() []models.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Assignment, len(s.archived))
	copy(out, s.archived)
	return out
}

// SetCurrent marks the assignment open in the detail view.
func (s *CollectionStore) SetCurrent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentID = id
}

// Current returns the currently-viewed assignment, if any.
func (s *CollectionStore) Current() (models.Assignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentID == "" {
		return models.Assignment{}, false
	}
	for _, a := range s.active {
		if a.ID == s.currentID {
			return a, true
		}
	}
	for _, a := range s.archived {
		if a.ID == s.currentID {
			return a, true
		}
	}
	return models.Assignment{}, false
}

// Add validates and creates a new assignment. On remote success the
// server-assigned assignment is appended; on failure the draft is appended
// as-is with its client-generated id and the active collection is mirrored
// to the local cache.
func (s *CollectionStore) Add(ctx context.Context, draft models.Assignment) (models.Assignment, Outcome, error) {
	if err := draft.Validate(); err != nil {
		return models.Assignment{}, OutcomeRejected, err
	}

	if s.suppressManual && draft.Description != "" {
		draft.Subtasks = nil
	}
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.CreatedAt == "" {
		draft.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	created, outcome := s.gateway.Create(ctx, draft)

	s.mu.Lock()
	s.active = append(s.active, created)
	activeCopy := snapshot(s.active)
	s.mu.Unlock()

	if outcome == OutcomeLocal {
		s.gateway.MirrorActive(activeCopy)
	}
	return created, outcome, nil
}

// Update persists a full assignment and replaces the matching active entry
// with the result (gateway-returned value on success, the submitted value on
// fallback). The currently-viewed reference follows the replacement.
func (s *CollectionStore) Update(ctx context.Context, a models.Assignment) (models.Assignment, Outcome, error) {
	if err := a.Validate(); err != nil {
		return models.Assignment{}, OutcomeRejected, err
	}

	updated, outcome := s.gateway.Update(ctx, a)

	s.mu.Lock()
	for i := range s.active {
		if s.active[i].ID == updated.ID {
			s.active[i] = updated
			break
		}
	}
	activeCopy := snapshot(s.active)
	s.mu.Unlock()

	if outcome == OutcomeLocal {
		s.gateway.MirrorActive(activeCopy)
	}
	return updated, outcome, nil
}

// Archive moves an active assignment into the archived collection. Archiving
// an id not present in the active collection is a no-op. Both collections
// are mirrored for future fallback reads regardless of the remote outcome.
func (s *CollectionStore) Archive(ctx context.Context, id string) (Outcome, error) {
	return s.move(ctx, id, true)
}

// Unarchive moves an archived assignment back to active, symmetric to
// Archive.
func (s *CollectionStore) Unarchive(ctx context.Context, id string) (Outcome, error) {
	return s.move(ctx, id, false)
}

func (s *CollectionStore) move(ctx context.Context, id string, archive bool) (Outcome, error) {
	s.mu.RLock()
	source := s.active
	if !archive {
		source = s.archived
	}
	found := false
	for _, a := range source {
		if a.ID == id {
			found = true
			break
		}
	}
	s.mu.RUnlock()
	if !found {
		return OutcomeNoop, nil
	}

	remote, outcome := s.gateway.SetArchived(ctx, id, archive)

	s.mu.Lock()
	var moved models.Assignment
	if archive {
		s.active, moved = extract(s.active, id)
	} else {
		s.archived, moved = extract(s.archived, id)
	}
	if outcome == OutcomeRemote && remote.ID != "" {
		moved = remote
	}
	moved.Archived = archive
	if archive {
		s.archived = append(s.archived, moved)
	} else {
		s.active = append(s.active, moved)
	}
	activeCopy := snapshot(s.active)
	archivedCopy := snapshot(s.archived)
	s.mu.Unlock()

	s.gateway.MirrorActive(activeCopy)
	s.gateway.MirrorArchived(archivedCopy)
	return outcome, nil
}

// Delete removes the id from both collections unconditionally and deletes it
// on the backend, best effort. Local mirrors are updated regardless of the
// remote outcome. The first return reports whether the deleted assignment
// was the one open in the detail view, so the caller can navigate back.
func (s *CollectionStore) Delete(ctx context.Context, id string) (bool, Outcome, error) {
	s.mu.Lock()
	s.active, _ = extract(s.active, id)
	s.archived, _ = extract(s.archived, id)
	wasCurrent := s.currentID == id
	if wasCurrent {
		s.currentID = ""
	}
	activeCopy := snapshot(s.active)
	archivedCopy := snapshot(s.archived)
	s.mu.Unlock()

	outcome := s.gateway.Delete(ctx, id)

	s.gateway.MirrorActive(activeCopy)
	s.gateway.MirrorArchived(archivedCopy)
	return wasCurrent, outcome, nil
}

// extract removes the assignment with the given id, returning the remaining
// slice and the removed value (zero when absent).
func extract(list []models.Assignment, id string) ([]models.Assignment, models.Assignment) {
	for i, a := range list {
		if a.ID == id {
			out := make([]models.Assignment, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, a
		}
	}
	return list, models.Assignment{}
}

func snapshot(list []models.Assignment) []models.Assignment {
	out := make([]models.Assignment, len(list))
	copy(out, list)
	return out
}
