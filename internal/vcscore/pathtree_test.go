package vcscore

import (
	"errors"
	"path/filepath"
	"testing"
)

func leafFor(content string) TreeLeaf {
	return TreeLeaf{ID: HashObject(BlobObject, []byte(content)), Mode: 0o644}
}

func TestPathTreeInsertValidation(t *testing.T) {
	tests := []struct {
		name string
		path string
		ok   bool
	}{
		{"plain file", "a.txt", true},
		{"nested file", "src/lib/util.go", true},
		{"empty component", "src//util.go", false},
		{"dot component", "src/./util.go", false},
		{"dotdot component", "../escape", false},
		{"nul byte", "bad\x00name", false},
		{"backslash", `dir\file`, false},
		{"empty path", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPathTree().Insert(tt.path, leafFor("x"))
			if tt.ok && err != nil {
				t.Errorf("Insert(%q) = %v, want success", tt.path, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Insert(%q) = %v, want ErrInvalidPath", tt.path, err)
			}
		})
	}
}

func TestPathTreeInsertOverwrites(t *testing.T) {
	tree := NewPathTree()
	if err := tree.Insert("a.txt", leafFor("one")); err != nil {
		t.Fatal(err)
	}
	if err := tree.Insert("a.txt", leafFor("two")); err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	if tree.Len() != 1 {
		t.Errorf("Len = %d, want 1", tree.Len())
	}

	store := NewObjectStore(filepath.Join(t.TempDir(), "objects"))
	rootHash, err := tree.WriteTo(store)
	if err != nil {
		t.Fatal(err)
	}
	root, err := store.ReadTree(rootHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Entries) != 1 || root.Entries[0].ID != leafFor("two").ID {
		t.Error("second insert did not overwrite the payload")
	}
}

func TestPathTreeFileDirectoryConflicts(t *testing.T) {
	tree := NewPathTree()
	if err := tree.Insert("a/b", leafFor("x")); err != nil {
		t.Fatal(err)
	}

	// "a" already names a directory; it cannot also be a file.
	if err := tree.Insert("a", leafFor("y")); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("file over directory: %v, want ErrInvalidPath", err)
	}
	// "a/b" is a file; nothing can nest beneath it.
	if err := tree.Insert("a/b/c", leafFor("z")); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("path through file: %v, want ErrInvalidPath", err)
	}
}

func TestPathTreeEmitsNestedTrees(t *testing.T) {
	store := NewObjectStore(filepath.Join(t.TempDir(), "objects"))

	tree := NewPathTree()
	for _, p := range []string{"b/d", "a", "b/c"} {
		if err := tree.Insert(p, leafFor(p)); err != nil {
			t.Fatal(err)
		}
	}

	rootHash, err := tree.WriteTo(store)
	if err != nil {
		t.Fatal(err)
	}

	root, err := store.ReadTree(rootHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Entries) != 2 {
		t.Fatalf("root entries = %d, want 2", len(root.Entries))
	}
	if root.Entries[0].Name != "a" || root.Entries[0].IsTree() {
		t.Errorf("first root entry = %+v, want blob a", root.Entries[0])
	}
	if root.Entries[1].Name != "b" || !root.Entries[1].IsTree() {
		t.Errorf("second root entry = %+v, want tree b", root.Entries[1])
	}

	sub, err := store.ReadTree(root.Entries[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sub.Entries) != 2 || sub.Entries[0].Name != "c" || sub.Entries[1].Name != "d" {
		t.Errorf("subtree entries = %+v, want c then d", sub.Entries)
	}
}

func TestPathTreeExecutableMode(t *testing.T) {
	store := NewObjectStore(filepath.Join(t.TempDir(), "objects"))

	tree := NewPathTree()
	if err := tree.Insert("run.sh", TreeLeaf{ID: HashObject(BlobObject, nil), Mode: 0o755}); err != nil {
		t.Fatal(err)
	}
	if err := tree.Insert("data", TreeLeaf{ID: HashObject(BlobObject, nil), Mode: 0o644}); err != nil {
		t.Fatal(err)
	}

	rootHash, err := tree.WriteTo(store)
	if err != nil {
		t.Fatal(err)
	}
	root, err := store.ReadTree(rootHash)
	if err != nil {
		t.Fatal(err)
	}
	if root.Entries[0].Mode != "100644" {
		t.Errorf("data mode = %s, want 100644", root.Entries[0].Mode)
	}
	if root.Entries[1].Mode != "100755" {
		t.Errorf("run.sh mode = %s, want 100755", root.Entries[1].Mode)
	}
}
