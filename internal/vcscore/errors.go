package vcscore

import "errors"

// Sentinel errors returned by the core. Callers match them with errors.Is;
// every layer wraps with fmt.Errorf("...: %w", err) so the chain keeps both
// the sentinel and the operation context.
var (
	// ErrAlreadyInitialized is returned by Init when the metadata directory
	// already exists at the target path.
	ErrAlreadyInitialized = errors.New("repository already initialized")

	// ErrNotARepository is returned by Open when no metadata directory is
	// found at the path or any of its parents.
	ErrNotARepository = errors.New("not a repository")

	// ErrNoHead is returned when the HEAD file is missing or unreadable.
	ErrNoHead = errors.New("HEAD not found")

	// ErrInvalidHead is returned when HEAD contains neither a symbolic ref
	// nor a valid commit hash.
	ErrInvalidHead = errors.New("invalid HEAD")

	// ErrNothingToCommit is returned by Commit when the index is empty.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrBranchExists is returned when creating a branch that already exists.
	ErrBranchExists = errors.New("branch already exists")

	// ErrBranchDoesNotExist names a missing branch. No function in this
	// package returns it: ReadBranchTip reports an absent ref file as an
	// empty hash.
	ErrBranchDoesNotExist = errors.New("branch does not exist")

	// ErrInvalidHash is returned when a string is not a valid hex object
	// identifier.
	ErrInvalidHash = errors.New("invalid object hash")

	// ErrInvalidObjectType is returned when an object frame carries an
	// unknown kind.
	ErrInvalidObjectType = errors.New("invalid object type")

	// ErrObjectNotFound is returned when no object exists for a hash.
	ErrObjectNotFound = errors.New("object not found")

	// ErrStreamCorrupt is returned when an object frame or payload cannot
	// be parsed.
	ErrStreamCorrupt = errors.New("corrupt object stream")

	// ErrIndexHeader is returned when the index file has a bad magic or an
	// unsupported version.
	ErrIndexHeader = errors.New("invalid index header")

	// ErrFileTooLarge is returned when a file exceeds the blob size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum blob size")

	// ErrInvalidPath is returned when a path contains components that can
	// never be stored (empty, ".", "..", NUL or backslash bytes).
	ErrInvalidPath = errors.New("invalid path component")
)
