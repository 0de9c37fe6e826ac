package models

// Subtask is one node in an assignment's completion tree. A subtask may carry
// arbitrarily nested sub-steps in Subtasks; a node with no children is a leaf.
// IDs are unique across the whole tree of one assignment, not just among
// siblings (see subtask.NextID).
type Subtask struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Subtasks  []Subtask `json:"subtasks"`
}

// Clone returns a deep copy of the subtask and its whole subtree.
func (s Subtask) Clone() Subtask {
	out := s
	out.Subtasks = CloneForest(s.Subtasks)
	return out
}

// CloneForest deep-copies an ordered sequence of subtask trees.
func CloneForest(forest []Subtask) []Subtask {
	if forest == nil {
		return nil
	}
	out := make([]Subtask, len(forest))
	for i, node := range forest {
		out[i] = node.Clone()
	}
	return out
}
