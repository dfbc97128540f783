package vcscore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// Index file constants.
const (
	// indexMagic is the 4-byte signature that begins every index file.
	indexMagic = "DIRC"

	// indexVersion is the only supported on-disk format version.
	indexVersion = 2

	// indexHeaderSize is magic (4) + version (4) + entry count (4).
	indexHeaderSize = 12

	// indexFixedEntrySize is the byte count of the fixed-size fields of
	// each entry, before the variable-length NUL-terminated path:
	//
	//	ctime_sec   4
	//	ctime_nsec  4
	//	mtime_sec   4
	//	mtime_nsec  4
	//	dev         4
	//	ino         4
	//	mode        4
	//	uid         4
	//	gid         4
	//	file_size   4
	//	hash       32   (raw SHA-256)
	//	flags       2
	//	total      74
	//
	// All integers are little-endian.
	indexFixedEntrySize = 74

	// indexEntryAlignment pads each entry (fixed fields + path + NUL) to a
	// multiple of this boundary.
	indexEntryAlignment = 8

	// indexFlagPathMask isolates the path-length bits of the flags field.
	indexFlagPathMask = 0x0FFF
)

// IndexEntry records one staged path: the blob identity plus the stat
// metadata captured when the path was staged, used to detect later edits
// without rehashing.
type IndexEntry struct {
	CtimeSec  uint32
	CtimeNsec uint32
	MtimeSec  uint32
	MtimeNsec uint32
	Device    uint32
	Inode     uint32
	Mode      uint32
	UID       uint32
	GID       uint32
	FileSize  uint32
	// ID is the framed blob identity recorded for this path.
	ID    Hash
	Flags uint16
	// Path is repository-root relative, forward-slash separated, unique
	// within the index.
	Path string
}

// EntryStatus classifies one path against its index entry.
type EntryStatus int

const (
	// StatusUnmodified means the on-disk metadata matches the entry.
	StatusUnmodified EntryStatus = iota
	// StatusModified means size, mtime, or mode changed since staging.
	StatusModified
	// StatusAdded means the entry was staged in this process since the
	// last save.
	StatusAdded
	// StatusDeleted means the entry's file is gone from the working tree.
	StatusDeleted
	// StatusUntracked means the path has no index entry.
	StatusUntracked
)

// String returns a short human name for the status.
func (s EntryStatus) String() string {
	switch s {
	case StatusUnmodified:
		return "unmodified"
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusUntracked:
		return "untracked"
	default:
		return "unknown"
	}
}

// Index is the staging area: a persistent mapping from working-tree paths
// to blob identities with stat metadata. The on-disk form is rewritten in
// full on every save, via a temp file and rename.
//
// Single-process only. There is no lock file; two processes staging
// concurrently have undefined behavior.
type Index struct {
	path    string
	entries map[string]*IndexEntry
	fresh   map[string]bool // staged since the last save
	dirty   bool
}

// OpenIndex reads the index file at path. A missing file yields an empty,
// valid index — the semantic of "nothing staged yet" rather than a failure.
func OpenIndex(path string) (*Index, error) {
	ix := &Index{
		path:    path,
		entries: make(map[string]*IndexEntry),
		fresh:   make(map[string]bool),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ix, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	if err := ix.parse(data); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	return ix, nil
}

// parse decodes the raw index bytes: header followed by entry records.
func (ix *Index) parse(data []byte) error {
	if len(data) < indexHeaderSize {
		return fmt.Errorf("%w: file too short (%d bytes)", ErrIndexHeader, len(data))
	}
	if string(data[:4]) != indexMagic {
		return fmt.Errorf("%w: bad magic %q", ErrIndexHeader, string(data[:4]))
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != indexVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrIndexHeader, version)
	}
	count := binary.LittleEndian.Uint32(data[8:12])

	offset := indexHeaderSize
	for i := range count {
		entry, consumed, err := parseIndexEntry(data, offset)
		if err != nil {
			return fmt.Errorf("entry %d at offset %d: %w", i, offset, err)
		}
		if _, dup := ix.entries[entry.Path]; dup {
			return fmt.Errorf("%w: duplicate path %q", ErrIndexHeader, entry.Path)
		}
		ix.entries[entry.Path] = entry
		offset += consumed
	}
	return nil
}

// parseIndexEntry decodes one entry starting at startOffset and returns it
// with the total bytes consumed (fixed fields + path + NUL + padding).
func parseIndexEntry(data []byte, startOffset int) (*IndexEntry, int, error) {
	if startOffset+indexFixedEntrySize > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated entry", ErrIndexHeader)
	}

	p := data[startOffset:]
	entry := &IndexEntry{
		CtimeSec:  binary.LittleEndian.Uint32(p[0:4]),
		CtimeNsec: binary.LittleEndian.Uint32(p[4:8]),
		MtimeSec:  binary.LittleEndian.Uint32(p[8:12]),
		MtimeNsec: binary.LittleEndian.Uint32(p[12:16]),
		Device:    binary.LittleEndian.Uint32(p[16:20]),
		Inode:     binary.LittleEndian.Uint32(p[20:24]),
		Mode:      binary.LittleEndian.Uint32(p[24:28]),
		UID:       binary.LittleEndian.Uint32(p[28:32]),
		GID:       binary.LittleEndian.Uint32(p[32:36]),
		FileSize:  binary.LittleEndian.Uint32(p[36:40]),
	}

	var raw [RawHashSize]byte
	copy(raw[:], p[40:40+RawHashSize])
	entry.ID = NewHashFromBytes(raw)
	entry.Flags = binary.LittleEndian.Uint16(p[72:74])

	pathStart := startOffset + indexFixedEntrySize
	nullIdx := bytes.IndexByte(data[pathStart:], 0)
	if nullIdx < 0 {
		return nil, 0, fmt.Errorf("%w: unterminated path", ErrIndexHeader)
	}
	entry.Path = string(data[pathStart : pathStart+nullIdx])

	rawLen := indexFixedEntrySize + nullIdx + 1
	paddedLen := (rawLen + indexEntryAlignment - 1) &^ (indexEntryAlignment - 1)
	if startOffset+paddedLen > len(data) {
		return nil, 0, fmt.Errorf("%w: entry extends past end of file", ErrIndexHeader)
	}
	return entry, paddedLen, nil
}

// Len returns the number of staged entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Dirty reports whether there are unsaved changes.
func (ix *Index) Dirty() bool { return ix.dirty }

// Find returns the entry for a repo-relative path, or nil.
func (ix *Index) Find(path string) *IndexEntry {
	return ix.entries[path]
}

// Entries returns all entries sorted by path.
func (ix *Index) Entries() []*IndexEntry {
	out := make([]*IndexEntry, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Upsert stages relPath (relative to root) with the given blob identity,
// capturing the file's current stat metadata. Fails if the file is absent
// from the working tree or the path cannot be stored.
func (ix *Index) Upsert(root, relPath string, id Hash) error {
	if strings.ContainsAny(relPath, "\x00\\") {
		return fmt.Errorf("%q: %w", relPath, ErrInvalidPath)
	}
	info, err := os.Lstat(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return fmt.Errorf("stat %s: %w", relPath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%q: %w: not a regular file", relPath, ErrInvalidPath)
	}

	entry := &IndexEntry{
		ID:    id,
		Path:  relPath,
		Flags: uint16(len(relPath)) & indexFlagPathMask,
	}
	fillStatMetadata(entry, info)

	ix.entries[relPath] = entry
	ix.fresh[relPath] = true
	ix.dirty = true
	return nil
}

// fillStatMetadata copies the stat fields the index tracks into entry.
func fillStatMetadata(entry *IndexEntry, info os.FileInfo) {
	entry.MtimeSec = uint32(info.ModTime().Unix())
	entry.MtimeNsec = uint32(info.ModTime().Nanosecond())
	entry.Mode = uint32(info.Mode().Perm())
	entry.FileSize = uint32(info.Size())

	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		entry.CtimeSec = uint32(st.Ctim.Sec)
		entry.CtimeNsec = uint32(st.Ctim.Nsec)
		entry.Device = uint32(st.Dev)
		entry.Inode = uint32(st.Ino)
		entry.UID = st.Uid
		entry.GID = st.Gid
	}
}

// Remove drops the entry for path. Reports whether an entry existed.
func (ix *Index) Remove(path string) bool {
	if _, ok := ix.entries[path]; !ok {
		return false
	}
	delete(ix.entries, path)
	delete(ix.fresh, path)
	ix.dirty = true
	return true
}

// Clear drops every entry and marks the index dirty, so the next Save
// truncates the on-disk file to an empty index.
func (ix *Index) Clear() {
	ix.entries = make(map[string]*IndexEntry)
	ix.fresh = make(map[string]bool)
	ix.dirty = true
}

// Status classifies relPath against the index by comparing stat metadata:
// entries staged since the last save report StatusAdded, metadata drift
// reports StatusModified, a missing file reports StatusDeleted.
func (ix *Index) Status(root, relPath string) EntryStatus {
	entry, tracked := ix.entries[relPath]
	info, err := os.Lstat(filepath.Join(root, filepath.FromSlash(relPath)))

	if !tracked {
		return StatusUntracked
	}
	if err != nil {
		return StatusDeleted
	}

	if uint32(info.Size()) != entry.FileSize ||
		uint32(info.ModTime().Unix()) != entry.MtimeSec ||
		uint32(info.ModTime().Nanosecond()) != entry.MtimeNsec ||
		uint32(info.Mode().Perm()) != entry.Mode {
		return StatusModified
	}
	if ix.fresh[relPath] {
		return StatusAdded
	}
	return StatusUnmodified
}

// Save writes the full index to <path>.tmp and renames it over the live
// file, then clears the dirty flag. A no-op when nothing changed. Entries
// are written in sorted path order with an accurate header count.
func (ix *Index) Save() error {
	if !ix.dirty {
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString(indexMagic)
	writeUint32(&buf, indexVersion)
	writeUint32(&buf, uint32(len(ix.entries)))

	for _, entry := range ix.Entries() {
		if err := writeIndexEntry(&buf, entry); err != nil {
			return err
		}
	}

	if err := writeFileAtomic(ix.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	ix.dirty = false
	ix.fresh = make(map[string]bool)
	return nil
}

// writeIndexEntry appends one entry record, padded to the 8-byte boundary.
func writeIndexEntry(buf *bytes.Buffer, entry *IndexEntry) error {
	raw, err := entry.ID.Raw()
	if err != nil {
		return fmt.Errorf("entry %q: %w", entry.Path, err)
	}

	start := buf.Len()
	for _, field := range [10]uint32{
		entry.CtimeSec, entry.CtimeNsec,
		entry.MtimeSec, entry.MtimeNsec,
		entry.Device, entry.Inode,
		entry.Mode, entry.UID, entry.GID,
		entry.FileSize,
	} {
		writeUint32(buf, field)
	}
	buf.Write(raw[:])

	var flags [2]byte
	binary.LittleEndian.PutUint16(flags[:], entry.Flags)
	buf.Write(flags[:])

	buf.WriteString(entry.Path)
	buf.WriteByte(0)

	for (buf.Len()-start)%indexEntryAlignment != 0 {
		buf.WriteByte(0)
	}
	return nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
