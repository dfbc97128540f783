package vcscore

import "fmt"

// Log walks the commit chain from HEAD through parents, newest first. If
// maxCount <= 0 all reachable commits are returned. An unborn branch
// yields an empty slice.
func (r *Repository) Log(maxCount int) ([]*Commit, error) {
	head, err := r.refs.ReadHead()
	if err != nil {
		return nil, err
	}
	if head.ID == "" {
		return nil, nil
	}

	var result []*Commit
	seen := make(map[Hash]bool)
	current := head.ID
	for current != "" {
		if maxCount > 0 && len(result) >= maxCount {
			break
		}
		if seen[current] {
			return nil, fmt.Errorf("%w: commit cycle at %s", ErrStreamCorrupt, current.Short())
		}
		seen[current] = true

		commit, err := r.store.ReadCommit(current)
		if err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		result = append(result, commit)
		current = commit.Parent
	}
	return result, nil
}
