package models

import (
	"fmt"
	"time"
)

// DeadlineLayout is the calendar-date format used on the wire ("2025-12-01").
const DeadlineLayout = "2006-01-02"

// ErrValidation is returned when a draft is rejected before any network call.
var ErrValidation = fmt.Errorf("assignment validation failed")

// Assignment is one tracked assignment. Progress is derived from the subtask
// tree whenever the tree is non-empty; with no subtasks it is an independently
// settable scalar. The wire shape matches the backend contract (camelCase for
// createdAt, date string for deadline).
type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Deadline    string    `json:"deadline"`
	Progress    int       `json:"progress"`
	Archived    bool      `json:"archived"`
	CreatedAt   string    `json:"createdAt"`
	Subtasks    []Subtask `json:"subtasks"`
}

// Validate rejects drafts missing the required title or deadline.
func (a Assignment) Validate() error {
	if a.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if a.Deadline == "" {
		return fmt.Errorf("%w: deadline is required", ErrValidation)
	}
	if _, err := time.Parse(DeadlineLayout, a.Deadline); err != nil {
		return fmt.Errorf("%w: deadline must be %s: %v", ErrValidation, DeadlineLayout, err)
	}
	return nil
}

// DeadlineTime parses the deadline date. The zero time is returned together
// with an error when the stored string is malformed.
func (a Assignment) DeadlineTime() (time.Time, error) {
	t, err := time.Parse(DeadlineLayout, a.Deadline)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse deadline %q: %w", a.Deadline, err)
	}
	return t, nil
}

// Clone returns a deep copy, including the subtask forest.
func (a Assignment) Clone() Assignment {
	out := a
	out.Subtasks = CloneForest(a.Subtasks)
	return out
}
