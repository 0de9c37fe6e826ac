package services

import (
	"errors"
	"sync"
	"time"

	"taskline/internal/models"
	"taskline/internal/subtask"
)

// Default placeholder text for a freshly added node, by depth.
const (
	placeholderStep    = "Add a step..."
	placeholderSubtask = "Add a subtask..."
)

const defaultSaveDebounce = 500 * time.Millisecond

// ErrSessionClosed is returned by mutations after Close.
var ErrSessionClosed = errors.New("assignment session is closed")

// SaveFunc persists the working copy; the session invokes it with the latest
// state once the debounce window goes quiet.
type SaveFunc func(models.Assignment)

// SessionStore holds one assignment's working copy for interactive editing.
// Every mutation is synchronous and visible immediately; persistence is
// debounced so a burst of edits produces a single save. The pending save is
// cancelled by Close, never left dangling past the session's lifetime.
type SessionStore struct {
	mu      sync.Mutex
	working models.Assignment
	delay   time.Duration
	save    SaveFunc
	timer   *time.Timer
	closed  bool
}

// NewSessionStore opens an edit session over a deep copy of the assignment.
// A non-positive delay falls back to the 500ms default.
func NewSessionStore(a models.Assignment, delay time.Duration, save SaveFunc) *SessionStore {
	if delay <= 0 {
		delay = defaultSaveDebounce
	}
	return &SessionStore{
		working: a.Clone(),
		delay:   delay,
		save:    save,
	}
}

// Working returns a deep copy of the current working copy.
func (s *SessionStore) Working() models.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

// Toggle flips the completed flag on the node at path.
func (s *SessionStore) Toggle(path subtask.Path) error {
	return s.mutate(func(forest []models.Subtask) ([]models.Subtask, error) {
		return subtask.Set(forest, path, func(n models.Subtask) models.Subtask {
			n.Completed = !n.Completed
			return n
		})
	})
}

// EditText replaces the text of the node at path. Any string is accepted,
// including empty mid-typing states.
func (s *SessionStore) EditText(path subtask.Path, text string) error {
	return s.mutate(func(forest []models.Subtask) ([]models.Subtask, error) {
		return subtask.Set(forest, path, func(n models.Subtask) models.Subtask {
			n.Text = text
			return n
		})
	})
}

// AddSubtask appends a new node under the parent at parentPath; an empty
// path adds at the top level. The new node's id is unique across the whole
// tree.
func (s *SessionStore) AddSubtask(parentPath subtask.Path) (models.Subtask, error) {
	text := placeholderSubtask
	if len(parentPath) == 0 {
		text = placeholderStep
	}

	var added models.Subtask
	err := s.mutate(func(forest []models.Subtask) ([]models.Subtask, error) {
		added = models.Subtask{
			ID:   subtask.NextID(forest),
			Text: text,
		}
		return subtask.Insert(forest, parentPath, added)
	})
	if err != nil {
		return models.Subtask{}, err
	}
	return added, nil
}

// DeleteSubtask removes the node at path with its entire subtree. The caller
// is responsible for confirming the destructive action with the user first.
func (s *SessionStore) DeleteSubtask(path subtask.Path) error {
	return s.mutate(func(forest []models.Subtask) ([]models.Subtask, error) {
		return subtask.Remove(forest, path)
	})
}

// SetProgress sets the manual progress scalar. It only has visible effect
// while the subtask forest is empty; otherwise the derived value wins.
func (s *SessionStore) SetProgress(progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.working.Progress = progress
	if len(s.working.Subtasks) > 0 {
		s.working.Progress = subtask.Completion(s.working.Subtasks)
	}
	s.scheduleSaveLocked()
	return nil
}

func (s *SessionStore) mutate(fn func([]models.Subtask) ([]models.Subtask, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	forest, err := fn(s.working.Subtasks)
	if err != nil {
		return err
	}
	s.working.Subtasks = forest
	s.working.Progress = subtask.ProgressOf(s.working)
	s.scheduleSaveLocked()
	return nil
}

// scheduleSaveLocked arms the single-shot debounce timer, resetting the
// window if one is already pending.
func (s *SessionStore) scheduleSaveLocked() {
	if s.save == nil {
		return
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.fire)
		return
	}
	s.timer.Reset(s.delay)
}

func (s *SessionStore) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	copy := s.working.Clone()
	s.mu.Unlock()
	s.save(copy)
}

// Flush cancels any pending timer and saves the working copy immediately.
func (s *SessionStore) Flush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	copy := s.working.Clone()
	save := s.save
	s.mu.Unlock()

	if save != nil {
		save(copy)
	}
}

// Close tears the session down, cancelling any pending save.
func (s *SessionStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
