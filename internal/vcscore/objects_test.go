package vcscore

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testSignature() Signature {
	loc := time.FixedZone("+0200", 2*3600)
	return Signature{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		When:  time.Unix(1700000000, 0).In(loc),
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	sig := testSignature()

	parsed, err := ParseSignature(sig.String())
	if err != nil {
		t.Fatalf("ParseSignature(%q): %v", sig.String(), err)
	}
	if parsed.Name != sig.Name || parsed.Email != sig.Email {
		t.Errorf("identity changed: got %q <%q>", parsed.Name, parsed.Email)
	}
	if !parsed.When.Equal(sig.When) {
		t.Errorf("timestamp changed: got %v, want %v", parsed.When, sig.When)
	}
	if formatTimezone(parsed.When) != "+0200" {
		t.Errorf("timezone offset lost: got %s", formatTimezone(parsed.When))
	}
}

func TestParseSignatureInvalid(t *testing.T) {
	tests := []string{
		"no email markers 1700000000 +0000",
		"Name <a@b>",
		"Name <a@b> notanumber +0000",
	}
	for _, line := range tests {
		if _, err := ParseSignature(line); err == nil {
			t.Errorf("ParseSignature(%q) succeeded, want error", line)
		}
	}
}

func TestCommitPayloadRoundTrip(t *testing.T) {
	treeHash := HashObject(TreeObject, nil)
	parentHash := HashObject(CommitObject, []byte("fake parent"))

	tests := []struct {
		name   string
		commit *Commit
	}{
		{
			"root commit without parent",
			&Commit{
				Tree:      treeHash,
				Author:    testSignature(),
				Committer: testSignature(),
				Message:   "initial snapshot",
			},
		},
		{
			"commit with parent and multi-line message",
			&Commit{
				Tree:      treeHash,
				Parent:    parentHash,
				Author:    testSignature(),
				Committer: testSignature(),
				Message:   "subject line\n\nbody paragraph",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := tt.commit.Payload()
			if err != nil {
				t.Fatalf("Payload: %v", err)
			}

			if tt.commit.Parent == "" && strings.Contains(string(payload), "parent ") {
				t.Error("root commit payload contains a parent line")
			}

			parsed, err := parseCommitBody(payload, "")
			if err != nil {
				t.Fatalf("parseCommitBody: %v", err)
			}
			if parsed.Tree != tt.commit.Tree {
				t.Errorf("tree = %s, want %s", parsed.Tree, tt.commit.Tree)
			}
			if parsed.Parent != tt.commit.Parent {
				t.Errorf("parent = %q, want %q", parsed.Parent, tt.commit.Parent)
			}
			if parsed.Message != tt.commit.Message {
				t.Errorf("message = %q, want %q", parsed.Message, tt.commit.Message)
			}
			if parsed.Author.Email != tt.commit.Author.Email {
				t.Errorf("author email = %q", parsed.Author.Email)
			}
		})
	}
}

func TestParseCommitBodyRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing tree", "author A <a@b> 1 +0000\ncommitter A <a@b> 1 +0000\n\nmsg"},
		{"unknown header", "tree " + strings.Repeat("a", 64) + "\nfrobnicate yes\n\nmsg"},
		{"duplicate parent", "tree " + strings.Repeat("a", 64) + "\nparent " + strings.Repeat("b", 64) + "\nparent " + strings.Repeat("c", 64) + "\n\nmsg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseCommitBody([]byte(tt.body), ""); err == nil {
				t.Error("parse succeeded, want error")
			}
		})
	}
}

func TestTreePayloadSortedAndBinary(t *testing.T) {
	blobA := HashObject(BlobObject, []byte("a"))
	blobB := HashObject(BlobObject, []byte("b"))
	subTree := HashObject(TreeObject, nil)

	// Entries deliberately out of order; Payload must sort by name.
	tree := &Tree{Entries: []TreeEntry{
		{Mode: "100644", Name: "zeta", ID: blobA},
		{Mode: "40000", Name: "lib", ID: subTree},
		{Mode: "100755", Name: "run.sh", ID: blobB},
	}}

	payload, err := tree.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}

	parsed, err := parseTreeBody(payload, "")
	if err != nil {
		t.Fatalf("parseTreeBody: %v", err)
	}
	if len(parsed.Entries) != 3 {
		t.Fatalf("entry count = %d, want 3", len(parsed.Entries))
	}

	wantOrder := []string{"lib", "run.sh", "zeta"}
	for i, want := range wantOrder {
		if parsed.Entries[i].Name != want {
			t.Errorf("entry %d = %q, want %q", i, parsed.Entries[i].Name, want)
		}
	}
	if !parsed.Entries[0].IsTree() {
		t.Error("lib lost its tree mode")
	}
	if parsed.Entries[1].ID != blobB {
		t.Error("run.sh hash did not survive the binary encoding")
	}

	// Each record is "<mode> <name>\x00" + 32 raw bytes; spot-check the size.
	wantLen := 0
	for _, e := range parsed.Entries {
		wantLen += len(e.Mode) + 1 + len(e.Name) + 1 + RawHashSize
	}
	if len(payload) != wantLen {
		t.Errorf("payload length = %d, want %d", len(payload), wantLen)
	}
}

func TestTreePayloadRejectsBadNames(t *testing.T) {
	blob := HashObject(BlobObject, nil)
	for _, name := range []string{"a/b", "nul\x00byte"} {
		tree := &Tree{Entries: []TreeEntry{{Mode: "100644", Name: name, ID: blob}}}
		if _, err := tree.Payload(); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("name %q: error = %v, want ErrInvalidPath", name, err)
		}
	}
}

func TestParseTreeBodyTruncated(t *testing.T) {
	blob := HashObject(BlobObject, nil)
	tree := &Tree{Entries: []TreeEntry{{Mode: "100644", Name: "f", ID: blob}}}
	payload, err := tree.Payload()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parseTreeBody(payload[:len(payload)-5], ""); !errors.Is(err, ErrStreamCorrupt) {
		t.Errorf("truncated tree: error = %v, want ErrStreamCorrupt", err)
	}
}

func TestTagPayloadRoundTrip(t *testing.T) {
	target := HashObject(CommitObject, []byte("target"))
	tag := &Tag{
		Object:  target,
		ObjType: CommitObject,
		Name:    "v1.0.0",
		Tagger:  testSignature(),
		Message: "first release",
	}

	payload, err := tag.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	parsed, err := parseTagBody(payload, "")
	if err != nil {
		t.Fatalf("parseTagBody: %v", err)
	}
	if parsed.Object != target || parsed.ObjType != CommitObject {
		t.Errorf("target changed: %s (%s)", parsed.Object, parsed.ObjType)
	}
	if parsed.Name != "v1.0.0" || parsed.Message != "first release" {
		t.Errorf("name/message changed: %q %q", parsed.Name, parsed.Message)
	}
}
