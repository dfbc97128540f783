package vcscore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the ignore list read from the repository root.
const IgnoreFileName = ".myignore"

// ignorePattern is one parsed line of the ignore file.
type ignorePattern struct {
	pattern string
	dirOnly bool // trailing '/' in the source line
}

// IgnoreList matches repository-relative paths against the patterns loaded
// from the root ignore file. Matching uses pathname semantics (the pattern
// can match the basename or the full relative path) plus leading-directory
// semantics: a pattern matching any ancestor directory ignores everything
// beneath it.
type IgnoreList struct {
	patterns []ignorePattern
}

// LoadIgnoreList reads <root>/.myignore. A missing file yields an empty
// list. Lines starting with '#' are comments; blank lines are skipped; a
// trailing '/' marks a directory-only pattern.
func LoadIgnoreList(root string) *IgnoreList {
	l := &IgnoreList{}

	f, err := os.Open(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return l
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pat := ignorePattern{pattern: line}
		if strings.HasSuffix(line, "/") {
			pat.dirOnly = true
			pat.pattern = strings.TrimRight(line, "/")
		}
		if pat.pattern == "" {
			continue
		}
		l.patterns = append(l.patterns, pat)
	}
	return l
}

// Match reports whether relPath (forward-slash separated) is ignored.
// isDir indicates whether the path names a directory. The ignore file
// itself is never ignored.
func (l *IgnoreList) Match(relPath string, isDir bool) bool {
	if relPath == IgnoreFileName {
		return false
	}

	for _, pat := range l.patterns {
		if pat.matches(relPath, isDir) {
			return true
		}
	}
	return false
}

// matches applies one pattern with pathname and leading-directory
// semantics.
func (p ignorePattern) matches(relPath string, isDir bool) bool {
	// Directory-only patterns never match plain files directly, but they
	// do match files through an ignored ancestor below.
	if !p.dirOnly || isDir {
		if globMatch(p.pattern, relPath) {
			return true
		}
		if base := pathBase(relPath); globMatch(p.pattern, base) {
			return true
		}
	}

	// Leading-directory semantics: if any ancestor directory of relPath
	// matches, the whole subtree is ignored.
	segments := strings.Split(relPath, "/")
	prefix := ""
	for _, seg := range segments[:len(segments)-1] {
		if prefix == "" {
			prefix = seg
		} else {
			prefix = prefix + "/" + seg
		}
		if globMatch(p.pattern, prefix) || globMatch(p.pattern, seg) {
			return true
		}
	}
	return false
}

// globMatch matches a glob pattern against a candidate, tolerating
// malformed patterns (they simply never match).
func globMatch(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}

func pathBase(relPath string) string {
	if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
		return relPath[idx+1:]
	}
	return relPath
}
