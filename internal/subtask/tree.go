// Package subtask implements the pure operations over an assignment's
// completion tree: path-addressed lookup and mutation with structural sharing,
// id allocation, and progress aggregation. Nothing here performs I/O.
package subtask

import (
	"errors"
	"fmt"

	"taskline/internal/models"
)

// ErrPathNotFound signals a path whose indices do not resolve in the forest.
// Paths are always constructed by the caller from the tree it holds, so this
// is a programming-contract violation rather than a user-facing condition.
var ErrPathNotFound = errors.New("subtask path not found")

// Path addresses a node positionally: a sequence of sibling indices from the
// root of the forest down to the node. Paths shift under sibling insertion or
// deletion before the target index; they are valid only against the forest
// they were built from.
type Path []int

func pathError(path Path, level int) error {
	return fmt.Errorf("%w: index %d out of range at level %d (path %v)", ErrPathNotFound, path[level], level, path)
}

// Get returns the node addressed by path. The returned value shares its
// Subtasks slice with the forest; callers must not mutate it in place.
func Get(forest []models.Subtask, path Path) (models.Subtask, error) {
	if len(path) == 0 {
		return models.Subtask{}, fmt.Errorf("%w: empty path", ErrPathNotFound)
	}
	current := forest
	for level := 0; level < len(path)-1; level++ {
		idx := path[level]
		if idx < 0 || idx >= len(current) {
			return models.Subtask{}, pathError(path, level)
		}
		current = current[idx].Subtasks
	}
	last := path[len(path)-1]
	if last < 0 || last >= len(current) {
		return models.Subtask{}, pathError(path, len(path)-1)
	}
	return current[last], nil
}

// Set returns a new forest in which the node at path is replaced by
// updater(old). Every ancestor along the path is shallow-copied so untouched
// sibling subtrees keep sharing their backing storage with the input; the
// input forest itself is never mutated.
func Set(forest []models.Subtask, path Path, updater func(models.Subtask) models.Subtask) ([]models.Subtask, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrPathNotFound)
	}
	return setAt(forest, path, 0, updater)
}

func setAt(forest []models.Subtask, path Path, level int, updater func(models.Subtask) models.Subtask) ([]models.Subtask, error) {
	idx := path[level]
	if idx < 0 || idx >= len(forest) {
		return nil, pathError(path, level)
	}

	out := make([]models.Subtask, len(forest))
	copy(out, forest)

	if level == len(path)-1 {
		out[idx] = updater(out[idx])
		return out, nil
	}

	children, err := setAt(out[idx].Subtasks, path, level+1, updater)
	if err != nil {
		return nil, err
	}
	out[idx].Subtasks = children
	return out, nil
}

// Insert appends node under the parent addressed by parentPath, or to the top
// level when parentPath is empty, returning the new forest.
func Insert(forest []models.Subtask, parentPath Path, node models.Subtask) ([]models.Subtask, error) {
	if len(parentPath) == 0 {
		out := make([]models.Subtask, len(forest), len(forest)+1)
		copy(out, forest)
		return append(out, node), nil
	}
	return Set(forest, parentPath, func(parent models.Subtask) models.Subtask {
		children := make([]models.Subtask, len(parent.Subtasks), len(parent.Subtasks)+1)
		copy(children, parent.Subtasks)
		parent.Subtasks = append(children, node)
		return parent
	})
}

// Remove deletes the node at path together with its entire subtree, returning
// the new forest.
func Remove(forest []models.Subtask, path Path) ([]models.Subtask, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrPathNotFound)
	}
	if len(path) == 1 {
		idx := path[0]
		if idx < 0 || idx >= len(forest) {
			return nil, pathError(path, 0)
		}
		out := make([]models.Subtask, 0, len(forest)-1)
		out = append(out, forest[:idx]...)
		out = append(out, forest[idx+1:]...)
		return out, nil
	}

	parentPath := path[:len(path)-1]
	parent, err := Get(forest, parentPath)
	if err != nil {
		return nil, err
	}
	idx := path[len(path)-1]
	if idx < 0 || idx >= len(parent.Subtasks) {
		return nil, pathError(path, len(path)-1)
	}
	return Set(forest, parentPath, func(p models.Subtask) models.Subtask {
		children := make([]models.Subtask, 0, len(p.Subtasks)-1)
		children = append(children, p.Subtasks[:idx]...)
		children = append(children, p.Subtasks[idx+1:]...)
		p.Subtasks = children
		return p
	})
}

// NextID returns an id not present anywhere in the forest: the maximum id of
// any node at any depth plus one, or 1 for an empty forest.
func NextID(forest []models.Subtask) int {
	max := 0
	var walk func(nodes []models.Subtask)
	walk = func(nodes []models.Subtask) {
		for _, n := range nodes {
			if n.ID > max {
				max = n.ID
			}
			walk(n.Subtasks)
		}
	}
	walk(forest)
	return max + 1
}
