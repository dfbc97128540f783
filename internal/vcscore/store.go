package vcscore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ObjectStore is a content-addressed store of framed, zlib-compressed
// objects laid out as objects/<h[0:2]>/<h[2:]>. Objects are write-once:
// writing content that is already present is a no-op.
type ObjectStore struct {
	dir string
}

// NewObjectStore returns a store rooted at dir (the objects directory).
func NewObjectStore(dir string) *ObjectStore {
	return &ObjectStore{dir: dir}
}

// objectPath returns the on-disk location for a hash. The two-character
// prefix directory spreads objects across subdirectories.
func (s *ObjectStore) objectPath(id Hash) string {
	return filepath.Join(s.dir, string(id)[:2], string(id)[2:])
}

// Write frames and stores a payload of the given kind, returning its
// identity. The framed, compressed bytes land via a temp file and rename so
// a reader never observes a partial object. An I/O failure removes the temp
// file and leaves the store unchanged.
func (s *ObjectStore) Write(kind ObjectType, payload []byte) (Hash, error) {
	id := HashObject(kind, payload)
	p := s.objectPath(id)

	if _, err := os.Stat(p); err == nil {
		// Identical content is already present; identity addressing makes
		// this a success.
		return id, nil
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}

	frame := make([]byte, 0, len(payload)+maxFrameHeaderLen)
	frame = append(frame, fmt.Sprintf("%s %d\x00", kind, len(payload))...)
	frame = append(frame, payload...)

	tmp := p + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating object temp file: %w", err)
	}

	if err := compressFrame(f, frame); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("writing object %s: %w", id.Short(), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("closing object %s: %w", id.Short(), err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("placing object %s: %w", id.Short(), err)
	}
	return id, nil
}

// WriteObject serializes and stores any object, returning its identity.
func (s *ObjectStore) WriteObject(o Object) (Hash, error) {
	payload, err := o.Payload()
	if err != nil {
		return "", err
	}
	return s.Write(o.Type(), payload)
}

// Exists reports whether an object with the given hash is stored.
func (s *ObjectStore) Exists(id Hash) bool {
	_, err := os.Stat(s.objectPath(id))
	return err == nil
}

// Read loads, decompresses, and parses the object with the given hash.
func (s *ObjectStore) Read(id Hash) (Object, error) {
	kind, payload, err := s.readFrame(id)
	if err != nil {
		return nil, err
	}

	switch kind {
	case BlobObject:
		return &Blob{ID: id, Data: payload}, nil
	case TreeObject:
		return parseTreeBody(payload, id)
	case CommitObject:
		return parseCommitBody(payload, id)
	case TagObject:
		return parseTagBody(payload, id)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidObjectType, kind)
	}
}

// ReadBlob loads a blob's raw content.
func (s *ObjectStore) ReadBlob(id Hash) ([]byte, error) {
	o, err := s.Read(id)
	if err != nil {
		return nil, err
	}
	blob, ok := o.(*Blob)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a blob", ErrInvalidObjectType, id.Short(), o.Type())
	}
	return blob.Data, nil
}

// ReadTree loads and parses a tree object.
func (s *ObjectStore) ReadTree(id Hash) (*Tree, error) {
	o, err := s.Read(id)
	if err != nil {
		return nil, err
	}
	tree, ok := o.(*Tree)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a tree", ErrInvalidObjectType, id.Short(), o.Type())
	}
	return tree, nil
}

// ReadCommit loads and parses a commit object.
func (s *ObjectStore) ReadCommit(id Hash) (*Commit, error) {
	o, err := s.Read(id)
	if err != nil {
		return nil, err
	}
	commit, ok := o.(*Commit)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a commit", ErrInvalidObjectType, id.Short(), o.Type())
	}
	return commit, nil
}

// ReadCommitTreeHash returns the root tree hash of a commit.
func (s *ObjectStore) ReadCommitTreeHash(commitID Hash) (Hash, error) {
	commit, err := s.ReadCommit(commitID)
	if err != nil {
		return "", err
	}
	return commit.Tree, nil
}

// readFrame opens an object file, inflates it, and splits the frame into
// its kind and payload. The declared size must match the payload exactly.
func (s *ObjectStore) readFrame(id Hash) (ObjectType, []byte, error) {
	if _, err := NewHash(string(id)); err != nil {
		return NoneObject, nil, err
	}

	f, err := os.Open(s.objectPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NoneObject, nil, fmt.Errorf("%s: %w", id.Short(), ErrObjectNotFound)
		}
		return NoneObject, nil, fmt.Errorf("opening object %s: %w", id.Short(), err)
	}
	defer f.Close()

	fr, err := newFrameReader(f)
	if err != nil {
		return NoneObject, nil, fmt.Errorf("object %s: %w", id.Short(), err)
	}
	defer fr.Close()

	header, err := fr.ReadUntilNull(maxFrameHeaderLen)
	if err != nil {
		return NoneObject, nil, fmt.Errorf("object %s: %w", id.Short(), err)
	}

	kindStr, sizeStr, ok := bytes.Cut(header, []byte{' '})
	if !ok {
		return NoneObject, nil, fmt.Errorf("object %s: %w: malformed header", id.Short(), ErrStreamCorrupt)
	}
	kind, err := objectTypeFromKind(string(kindStr))
	if err != nil {
		return NoneObject, nil, fmt.Errorf("object %s: %w", id.Short(), err)
	}
	size, err := strconv.ParseInt(string(sizeStr), 10, 64)
	if err != nil || size < 0 || size > MaxBlobSize {
		return NoneObject, nil, fmt.Errorf("object %s: %w: bad size %q", id.Short(), ErrStreamCorrupt, sizeStr)
	}

	payload := make([]byte, size)
	if err := fr.ReadExact(payload); err != nil {
		return NoneObject, nil, fmt.Errorf("object %s: %w", id.Short(), err)
	}
	if !fr.remainderIsEOF() {
		return NoneObject, nil, fmt.Errorf("object %s: %w: trailing bytes after payload", id.Short(), ErrStreamCorrupt)
	}
	return kind, payload, nil
}
