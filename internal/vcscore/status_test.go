package vcscore

import (
	"os"
	"path/filepath"
	"testing"
)

// statusByPath computes the status and indexes the result by path.
func statusByPath(t *testing.T, repo *Repository) map[string]FileStatus {
	t.Helper()
	status, err := repo.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	result := make(map[string]FileStatus, len(status.Files))
	for _, f := range status.Files {
		result[f.Path] = f
	}
	return result
}

func TestStatusCleanAfterCommit(t *testing.T) {
	repo := initTestRepo(t)
	addAll(t, repo, []string{"a.txt"}, map[string]string{"a.txt": "hello\n"})
	if _, err := repo.Commit("first"); err != nil {
		t.Fatal(err)
	}

	// Commit clears the index, so the committed file reads as an unstaged
	// modification until it is staged again; restaging the unchanged file
	// brings the index back in line with HEAD.
	addAll(t, repo, []string{"a.txt"}, map[string]string{"a.txt": "hello\n"})

	status, err := repo.Status()
	if err != nil {
		t.Fatal(err)
	}
	if !status.Clean() {
		t.Errorf("status not clean: %+v", status.Files)
	}
	if status.Branch != DefaultBranch || status.Detached {
		t.Errorf("branch = %q detached=%v", status.Branch, status.Detached)
	}
}

func TestStatusUntracked(t *testing.T) {
	repo := initTestRepo(t)
	writeWorkFile(t, repo.WorkDir(), "b.txt", "new\n")

	files := statusByPath(t, repo)
	f, ok := files["b.txt"]
	if !ok || !f.IsUntracked {
		t.Errorf("b.txt = %+v, want untracked", f)
	}
}

func TestStatusStagedNew(t *testing.T) {
	repo := initTestRepo(t)
	addAll(t, repo, []string{"a.txt"}, map[string]string{"a.txt": "hello\n"})

	files := statusByPath(t, repo)
	f := files["a.txt"]
	if f.IndexStatus != StatusLabelAdded || f.WorkStatus != "" || f.IsUntracked {
		t.Errorf("a.txt = %+v, want staged new", f)
	}
}

// Scenario: commit a file, create an untracked file, modify and restage the
// committed one, then modify it again without staging.
func TestStatusStagedAndUnstagedSections(t *testing.T) {
	repo := initTestRepo(t)
	addAll(t, repo, []string{"a.txt"}, map[string]string{"a.txt": "v1\n"})
	if _, err := repo.Commit("first"); err != nil {
		t.Fatal(err)
	}

	writeWorkFile(t, repo.WorkDir(), "b.txt", "untracked\n")
	addAll(t, repo, []string{"a.txt"}, map[string]string{"a.txt": "v2 longer\n"})

	files := statusByPath(t, repo)
	if f := files["a.txt"]; f.IndexStatus != StatusLabelModified || f.WorkStatus != "" {
		t.Errorf("a.txt after restage = %+v, want staged modification only", f)
	}
	if f := files["b.txt"]; !f.IsUntracked {
		t.Errorf("b.txt = %+v, want untracked", f)
	}

	// Modify again without staging: both staged and unstaged changes.
	writeWorkFile(t, repo.WorkDir(), "a.txt", "v3 even longer\n")
	files = statusByPath(t, repo)
	f := files["a.txt"]
	if f.IndexStatus != StatusLabelModified || f.WorkStatus != StatusLabelModified {
		t.Errorf("a.txt after second edit = %+v, want staged+modified", f)
	}
}

func TestStatusStagedNewThenModified(t *testing.T) {
	repo := initTestRepo(t)
	addAll(t, repo, []string{"a.txt"}, map[string]string{"a.txt": "staged\n"})
	writeWorkFile(t, repo.WorkDir(), "a.txt", "edited after staging\n")

	files := statusByPath(t, repo)
	f := files["a.txt"]
	if f.IndexStatus != StatusLabelAdded || f.WorkStatus != StatusLabelModified {
		t.Errorf("a.txt = %+v, want added + modified", f)
	}
}

func TestStatusUnstagedModification(t *testing.T) {
	repo := initTestRepo(t)
	addAll(t, repo, []string{"a.txt"}, map[string]string{"a.txt": "v1\n"})
	if _, err := repo.Commit("first"); err != nil {
		t.Fatal(err)
	}

	writeWorkFile(t, repo.WorkDir(), "a.txt", "edited\n")
	files := statusByPath(t, repo)
	f := files["a.txt"]
	if f.IndexStatus != "" || f.WorkStatus != StatusLabelModified {
		t.Errorf("a.txt = %+v, want unstaged modification", f)
	}
}

func TestStatusDeletions(t *testing.T) {
	repo := initTestRepo(t)
	addAll(t, repo, []string{"kept.txt", "gone.txt", "dropped.txt"}, map[string]string{
		"kept.txt":    "kept\n",
		"gone.txt":    "gone\n",
		"dropped.txt": "dropped\n",
	})
	if _, err := repo.Commit("first"); err != nil {
		t.Fatal(err)
	}

	// Unstaged deletion: remove from disk, index entry remains.
	// After commit the index is empty, so restage everything first.
	addAll(t, repo, []string{"kept.txt", "gone.txt", "dropped.txt"}, map[string]string{
		"kept.txt":    "kept\n",
		"gone.txt":    "gone\n",
		"dropped.txt": "dropped\n",
	})

	if err := os.Remove(filepath.Join(repo.WorkDir(), "gone.txt")); err != nil {
		t.Fatal(err)
	}

	// Staged deletion: remove from disk and from the index.
	if err := os.Remove(filepath.Join(repo.WorkDir(), "dropped.txt")); err != nil {
		t.Fatal(err)
	}
	repo.Index().Remove("dropped.txt")
	if err := repo.Index().Save(); err != nil {
		t.Fatal(err)
	}

	files := statusByPath(t, repo)
	if f := files["gone.txt"]; f.IndexStatus != "" || f.WorkStatus != StatusLabelDeleted {
		t.Errorf("gone.txt = %+v, want unstaged deletion", f)
	}
	if f := files["dropped.txt"]; f.IndexStatus != StatusLabelDeleted || f.WorkStatus != "" {
		t.Errorf("dropped.txt = %+v, want staged deletion", f)
	}
	if _, present := files["kept.txt"]; present {
		t.Error("kept.txt reported despite being unmodified")
	}
}

// A path tracked by HEAD but dropped from the index while still on disk is
// reported as an unstaged modification.
func TestStatusTrackedButUnindexed(t *testing.T) {
	repo := initTestRepo(t)
	addAll(t, repo, []string{"a.txt"}, map[string]string{"a.txt": "v1\n"})
	if _, err := repo.Commit("first"); err != nil {
		t.Fatal(err)
	}

	// The index is empty after commit; a.txt exists on disk and in HEAD.
	files := statusByPath(t, repo)
	f, ok := files["a.txt"]
	if !ok {
		t.Fatal("a.txt not reported")
	}
	if f.WorkStatus != StatusLabelModified || f.IsUntracked {
		t.Errorf("a.txt = %+v, want unstaged modification", f)
	}
}

func TestStatusRespectsIgnoreFile(t *testing.T) {
	repo := initTestRepo(t)
	writeWorkFile(t, repo.WorkDir(), "main.go", "package main\n")
	writeWorkFile(t, repo.WorkDir(), "debug.log", "noise\n")
	writeIgnoreFile(t, repo.WorkDir(), "*.log\n")

	files := statusByPath(t, repo)
	if _, present := files["debug.log"]; present {
		t.Error("ignored file reported in status")
	}
	if f := files["main.go"]; !f.IsUntracked {
		t.Errorf("main.go = %+v, want untracked", f)
	}
	if f := files[IgnoreFileName]; !f.IsUntracked {
		t.Errorf("%s = %+v, want untracked", IgnoreFileName, f)
	}
}

func TestStatusNestedDirectories(t *testing.T) {
	repo := initTestRepo(t)
	addAll(t, repo, []string{"src/pkg/a.go", "src/pkg/b.go"}, map[string]string{
		"src/pkg/a.go": "package pkg\n",
		"src/pkg/b.go": "package pkg\nvar b = 1\n",
	})
	if _, err := repo.Commit("nested"); err != nil {
		t.Fatal(err)
	}

	// The index is empty after commit: restage a.go with new content and
	// b.go unchanged.
	addAll(t, repo, []string{"src/pkg/a.go", "src/pkg/b.go"}, map[string]string{
		"src/pkg/a.go": "package pkg\nvar a = 2\n",
		"src/pkg/b.go": "package pkg\nvar b = 1\n",
	})

	files := statusByPath(t, repo)
	if f := files["src/pkg/a.go"]; f.IndexStatus != StatusLabelModified {
		t.Errorf("a.go = %+v, want staged modification", f)
	}
	if _, present := files["src/pkg/b.go"]; present {
		t.Error("unmodified nested file reported")
	}
}
