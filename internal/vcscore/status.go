package vcscore

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// Status labels shared by the classification and its renderers.
const (
	StatusLabelAdded    = "added"
	StatusLabelModified = "modified"
	StatusLabelDeleted  = "deleted"
)

// FileStatus is the classification of a single path against the working
// tree, the index, and the HEAD tree.
type FileStatus struct {
	// Path is the slash-separated path relative to the repository root.
	Path string `json:"path"`

	// IndexStatus describes the change staged relative to HEAD:
	// "added", "modified", "deleted", or "" when the index matches HEAD.
	IndexStatus string `json:"indexStatus,omitempty"`

	// WorkStatus describes the change on disk relative to the index:
	// "modified", "deleted", or "" when the working tree matches the index.
	WorkStatus string `json:"workStatus,omitempty"`

	// IsUntracked is true when the path exists on disk but appears in
	// neither the index nor HEAD.
	IsUntracked bool `json:"untracked,omitempty"`
}

// WorkTreeStatus is the full status report: one FileStatus per path that
// differs from HEAD, differs from the index, or is untracked. Unmodified
// paths are suppressed.
type WorkTreeStatus struct {
	Branch   string       `json:"branch,omitempty"`
	Detached bool         `json:"detached,omitempty"`
	Head     Hash         `json:"head,omitempty"`
	Files    []FileStatus `json:"files"`
}

// Clean reports whether nothing differs anywhere.
func (s *WorkTreeStatus) Clean() bool { return len(s.Files) == 0 }

// statusRecord accumulates the three-way presence and hashes for one path
// before classification.
type statusRecord struct {
	inWork, inIndex, inHead bool
	indexHash, headHash     Hash
	workSize                int64
	workMtimeSec            int64
	workMtimeNsec           int64
}

// Status classifies every path seen in any of the working tree, the index,
// and the HEAD commit tree. Working-tree hashes use the same framed blob
// identity the store assigns, so equality against index hashes is
// meaningful; a stat fast path skips hashing when size and mtime still
// match the staged metadata.
func (r *Repository) Status() (*WorkTreeStatus, error) {
	head, err := r.refs.ReadHead()
	if err != nil {
		return nil, err
	}

	records := make(map[string]*statusRecord)
	record := func(path string) *statusRecord {
		rec, ok := records[path]
		if !ok {
			rec = &statusRecord{}
			records[path] = rec
		}
		return rec
	}

	// Working tree walk, skipping the metadata dir and ignored paths.
	ignore := LoadIgnoreList(r.workDir)
	walkErr := filepath.WalkDir(r.workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == MetaDirName {
			return filepath.SkipDir
		}

		relPath, relErr := filepath.Rel(r.workDir, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		if relPath == "." {
			return nil
		}

		if ignore.Match(relPath, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		rec := record(relPath)
		rec.inWork = true
		rec.workSize = info.Size()
		rec.workMtimeSec = info.ModTime().Unix()
		rec.workMtimeNsec = int64(info.ModTime().Nanosecond())
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking working tree: %w", walkErr)
	}

	// Index entries.
	for _, entry := range r.index.Entries() {
		rec := record(entry.Path)
		rec.inIndex = true
		rec.indexHash = entry.ID
	}

	// HEAD commit tree, flattened to path → blob hash.
	if head.ID != "" {
		treeHash, err := r.store.ReadCommitTreeHash(head.ID)
		if err != nil {
			return nil, fmt.Errorf("reading HEAD commit: %w", err)
		}
		headPaths, err := r.flattenTree(treeHash, "")
		if err != nil {
			return nil, err
		}
		for path, blobHash := range headPaths {
			rec := record(path)
			rec.inHead = true
			rec.headHash = blobHash
		}
	}

	status := &WorkTreeStatus{
		Branch:   head.Branch,
		Detached: head.Detached(),
		Head:     head.ID,
		Files:    make([]FileStatus, 0),
	}

	paths := make([]string, 0, len(records))
	for path := range records {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fileStatus, err := r.classify(path, records[path])
		if err != nil {
			return nil, err
		}
		if fileStatus != nil {
			status.Files = append(status.Files, *fileStatus)
		}
	}
	return status, nil
}

// classify applies the presence table to one record. Returns nil for an
// unmodified path.
func (r *Repository) classify(path string, rec *statusRecord) (*FileStatus, error) {
	switch {
	case rec.inWork && !rec.inIndex && !rec.inHead:
		return &FileStatus{Path: path, IsUntracked: true}, nil

	case rec.inWork && rec.inIndex && !rec.inHead:
		// Staged addition; the work status depends on whether the file
		// changed since staging.
		fs := &FileStatus{Path: path, IndexStatus: StatusLabelAdded}
		same, err := r.workMatchesIndex(path, rec)
		if err != nil {
			return nil, err
		}
		if !same {
			fs.WorkStatus = StatusLabelModified
		}
		return fs, nil

	case rec.inWork && rec.inIndex && rec.inHead:
		fs := &FileStatus{Path: path}
		if rec.indexHash != rec.headHash {
			fs.IndexStatus = StatusLabelModified
		}
		same, err := r.workMatchesIndex(path, rec)
		if err != nil {
			return nil, err
		}
		if !same {
			fs.WorkStatus = StatusLabelModified
		}
		if fs.IndexStatus == "" && fs.WorkStatus == "" {
			return nil, nil
		}
		return fs, nil

	case !rec.inWork && rec.inIndex && rec.inHead:
		return &FileStatus{Path: path, WorkStatus: StatusLabelDeleted}, nil

	case !rec.inWork && !rec.inIndex && rec.inHead:
		return &FileStatus{Path: path, IndexStatus: StatusLabelDeleted}, nil

	case !rec.inWork && rec.inIndex && !rec.inHead:
		return &FileStatus{Path: path, IndexStatus: StatusLabelDeleted}, nil

	case rec.inWork && !rec.inIndex && rec.inHead:
		// Tracked by HEAD but dropped from the index while still on disk;
		// reported as an unstaged modification regardless of content.
		return &FileStatus{Path: path, WorkStatus: StatusLabelModified}, nil
	}
	return nil, nil
}

// workMatchesIndex reports whether the on-disk content still matches the
// staged blob. When size and mtime match the staged metadata the hash is
// assumed unchanged; otherwise the file is rehashed with the framed blob
// identity.
func (r *Repository) workMatchesIndex(path string, rec *statusRecord) (bool, error) {
	entry := r.index.Find(path)
	if entry == nil {
		return false, nil
	}

	if uint32(rec.workSize) == entry.FileSize &&
		uint32(rec.workMtimeSec) == entry.MtimeSec &&
		uint32(rec.workMtimeNsec) == entry.MtimeNsec {
		return true, nil
	}

	diskPath := filepath.Join(r.workDir, filepath.FromSlash(path))
	workHash, _, err := HashBlobFile(diskPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("hashing %s: %w", path, err)
	}
	return workHash == rec.indexHash, nil
}

// flattenTree recursively walks the tree object at treeHash and returns a
// map of every leaf path (slash-separated, relative to the repository
// root) to its blob hash.
func (r *Repository) flattenTree(treeHash Hash, prefix string) (map[string]Hash, error) {
	result := make(map[string]Hash)

	tree, err := r.store.ReadTree(treeHash)
	if err != nil {
		return nil, fmt.Errorf("reading tree %s: %w", treeHash.Short(), err)
	}

	for _, entry := range tree.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = prefix + "/" + entry.Name
		}

		if entry.IsTree() {
			sub, err := r.flattenTree(entry.ID, fullPath)
			if err != nil {
				return nil, err
			}
			for p, h := range sub {
				result[p] = h
			}
		} else {
			result[fullPath] = entry.ID
		}
	}
	return result, nil
}
