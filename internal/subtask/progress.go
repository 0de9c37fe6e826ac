package subtask

import (
	"math"

	"taskline/internal/models"
)

// Count walks the forest pre-order and returns every node at every depth plus
// how many of them are completed. A parent's completed flag is independent of
// its children's.
func Count(forest []models.Subtask) (total, completed int) {
	for _, n := range forest {
		total++
		if n.Completed {
			completed++
		}
		t, c := Count(n.Subtasks)
		total += t
		completed += c
	}
	return total, completed
}

// Completion returns the completion percentage of a forest in [0,100],
// rounded to the nearest integer with ties away from zero. An empty forest
// yields 0.
func Completion(forest []models.Subtask) int {
	total, completed := Count(forest)
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// ProgressOf derives an assignment's progress: the recursive completion
// percentage when any subtasks exist, otherwise the stored scalar unchanged
// (manual override for assignments with no breakdown).
func ProgressOf(a models.Assignment) int {
	if len(a.Subtasks) == 0 {
		return a.Progress
	}
	return Completion(a.Subtasks)
}
