package vcscore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// MetaDirName is the repository metadata directory.
	MetaDirName = ".vcs"

	// DefaultBranch is the branch a fresh repository starts on.
	DefaultBranch = "master"
)

// Repository glues the object store, the staging index, and the refs into
// the high-level init/add/commit/status flows.
type Repository struct {
	workDir string
	vcsDir  string

	store *ObjectStore
	refs  *RefStore
	index *Index
}

// Init creates the on-disk layout under path and returns the opened
// repository: .vcs/{objects, refs/heads, refs/tags}, HEAD attached to the
// default branch, and an empty default branch ref. Fails with
// ErrAlreadyInitialized when a metadata directory already exists.
func Init(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	vcsDir := filepath.Join(absPath, MetaDirName)
	if _, err := os.Stat(vcsDir); err == nil {
		return nil, fmt.Errorf("%s: %w", absPath, ErrAlreadyInitialized)
	}

	for _, dir := range []string{
		filepath.Join(vcsDir, "objects"),
		filepath.Join(vcsDir, "refs", "heads"),
		filepath.Join(vcsDir, "refs", "tags"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	refs := NewRefStore(vcsDir)
	if err := refs.WriteHeadAttached(DefaultBranch); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(filepath.Join(vcsDir, "refs", "heads", DefaultBranch), nil, 0o644); err != nil {
		return nil, fmt.Errorf("creating default branch: %w", err)
	}

	return Open(absPath)
}

// Open locates the repository containing path, walking up parent
// directories the way the working-directory commands expect, verifies the
// layout, and loads the index. A missing HEAD fails with ErrNoHead. Stray
// temp files from an interrupted write are unlinked.
func Open(path string) (*Repository, error) {
	workDir, vcsDir, err := findMetaDirectory(path)
	if err != nil {
		return nil, err
	}

	for _, required := range []string{"objects", "refs"} {
		if _, err := os.Stat(filepath.Join(vcsDir, required)); err != nil {
			return nil, fmt.Errorf("%w: missing %s", ErrNotARepository, required)
		}
	}
	if _, err := os.Stat(filepath.Join(vcsDir, headFileName)); err != nil {
		return nil, ErrNoHead
	}

	removeStaleTempFiles(vcsDir)

	index, err := OpenIndex(filepath.Join(vcsDir, "index"))
	if err != nil {
		return nil, err
	}

	return &Repository{
		workDir: workDir,
		vcsDir:  vcsDir,
		store:   NewObjectStore(filepath.Join(vcsDir, "objects")),
		refs:    NewRefStore(vcsDir),
		index:   index,
	}, nil
}

// findMetaDirectory walks up from startPath until a directory containing
// the metadata dir is found.
func findMetaDirectory(startPath string) (workDir, vcsDir string, err error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", "", fmt.Errorf("resolving path: %w", err)
	}

	current := absPath
	for {
		candidate := filepath.Join(current, MetaDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return current, candidate, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", "", fmt.Errorf("%w (searched %s and parents)", ErrNotARepository, absPath)
		}
		current = parent
	}
}

// WorkDir returns the repository's working directory root.
func (r *Repository) WorkDir() string { return r.workDir }

// VCSDir returns the metadata directory path.
func (r *Repository) VCSDir() string { return r.vcsDir }

// Store returns the object store.
func (r *Repository) Store() *ObjectStore { return r.store }

// Refs returns the ref store.
func (r *Repository) Refs() *RefStore { return r.refs }

// Index returns the staging index.
func (r *Repository) Index() *Index { return r.index }

// SkippedPath records a path Add could not stage and why.
type SkippedPath struct {
	Path string
	Err  error
}

// AddResult reports what a single Add call did.
type AddResult struct {
	Staged  []string
	Skipped []SkippedPath
}

// Add stages the given files or directory trees: each regular file is
// hashed, written to the object store as a blob (a no-op when the content
// is already stored), and upserted into the index, which is then saved
// once. Directories recurse; the metadata directory and ignored paths are
// skipped.
//
// Failures on individual paths do not abort the operation — they are
// collected in the result and the remaining paths proceed. Structural
// failures (index save) abort.
func (r *Repository) Add(paths []string) (*AddResult, error) {
	result := &AddResult{}
	ignore := LoadIgnoreList(r.workDir)

	var files []string
	for _, p := range paths {
		expanded, err := r.expandPath(p, ignore)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedPath{Path: p, Err: err})
			continue
		}
		files = append(files, expanded...)
	}
	sort.Strings(files)

	for _, relPath := range files {
		if err := r.stageFile(relPath); err != nil {
			result.Skipped = append(result.Skipped, SkippedPath{Path: relPath, Err: err})
			continue
		}
		result.Staged = append(result.Staged, relPath)
	}

	if err := r.index.Save(); err != nil {
		return nil, err
	}
	return result, nil
}

// expandPath resolves one user-supplied path to repo-relative regular
// files. Directories are walked recursively, skipping the metadata
// directory and ignored paths.
func (r *Repository) expandPath(p string, ignore *IgnoreList) ([]string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", p, err)
	}
	rel, err := filepath.Rel(r.workDir, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("%q: %w: outside the repository", p, ErrInvalidPath)
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%q: %w: not a regular file", p, ErrInvalidPath)
		}
		return []string{filepath.ToSlash(rel)}, nil
	}

	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
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
		if !d.IsDir() && d.Type().IsRegular() {
			files = append(files, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", p, err)
	}
	return files, nil
}

// stageFile writes the blob for one repo-relative file and records it in
// the index. Filenames containing NUL are rejected before any object is
// written, as is anything over the blob size limit.
func (r *Repository) stageFile(relPath string) error {
	diskPath := filepath.Join(r.workDir, filepath.FromSlash(relPath))

	id, _, err := HashBlobFile(diskPath)
	if err != nil {
		return err
	}

	if !r.store.Exists(id) {
		// Within the size cap checked by HashBlobFile; safe to buffer.
		data, err := os.ReadFile(diskPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", relPath, err)
		}
		// Trust the identity the store computed over the bytes it actually
		// wrote, in case the file changed between hashing and reading.
		id, err = r.store.Write(BlobObject, data)
		if err != nil {
			return err
		}
	}

	return r.index.Upsert(r.workDir, relPath, id)
}

// Commit snapshots the index: trees are emitted bottom-up, the commit
// object is written with the current branch tip as parent, the branch ref
// advances, and the index is cleared. Any failure before the ref update
// leaves the repository unchanged. An empty index fails with
// ErrNothingToCommit.
func (r *Repository) Commit(message string) (*Commit, error) {
	if r.index.Len() == 0 {
		return nil, ErrNothingToCommit
	}

	tree := NewPathTree()
	for _, entry := range r.index.Entries() {
		if err := tree.Insert(entry.Path, TreeLeaf{ID: entry.ID, Mode: entry.Mode}); err != nil {
			return nil, fmt.Errorf("building tree: %w", err)
		}
	}

	rootHash, err := tree.WriteTo(r.store)
	if err != nil {
		return nil, err
	}

	head, err := r.refs.ReadHead()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	author, committer := resolveIdentity(r.vcsDir, now)
	commit := &Commit{
		Tree:      rootHash,
		Parent:    head.ID,
		Author:    author,
		Committer: committer,
		Message:   message,
	}

	id, err := r.store.WriteObject(commit)
	if err != nil {
		return nil, err
	}
	commit.ID = id

	if head.Detached() {
		err = r.refs.WriteHeadDetached(id)
	} else {
		err = r.refs.WriteBranchTip(head.Branch, id)
	}
	if err != nil {
		return nil, err
	}

	// The commit is complete once the ref moved; a failure clearing the
	// index leaves staged entries behind but does not undo the commit.
	r.index.Clear()
	if err := r.index.Save(); err != nil {
		return commit, fmt.Errorf("commit %s created, but clearing index failed: %w", id.Short(), err)
	}
	return commit, nil
}

// Head returns the parsed HEAD.
func (r *Repository) Head() (HeadRef, error) {
	return r.refs.ReadHead()
}
