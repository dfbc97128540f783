package vcscore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Identity environment variables, consulted before the config file.
const (
	envAuthorName     = "VCS_AUTHOR_NAME"
	envAuthorEmail    = "VCS_AUTHOR_EMAIL"
	envCommitterName  = "VCS_COMMITTER_NAME"
	envCommitterEmail = "VCS_COMMITTER_EMAIL"
)

// Hardcoded identity fallback when neither environment nor config provide
// one.
const (
	defaultUserName  = "Unknown Author"
	defaultUserEmail = "unknown@localhost"
)

// loadConfig parses the optional flat key=value config file in the metadata
// directory. '#' starts a comment; malformed lines are skipped. A missing
// file yields an empty map.
func loadConfig(vcsDir string) map[string]string {
	cfg := make(map[string]string)

	f, err := os.Open(filepath.Join(vcsDir, "config"))
	if err != nil {
		return cfg
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		cfg[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return cfg
}

// resolveIdentity builds the author and committer signatures for a new
// commit: environment first, then the config file, then the hardcoded
// default. The committer falls back to the author's identity before the
// default.
func resolveIdentity(vcsDir string, now time.Time) (author, committer Signature) {
	cfg := loadConfig(vcsDir)

	authorName := firstNonEmpty(os.Getenv(envAuthorName), cfg["author.name"], defaultUserName)
	authorEmail := firstNonEmpty(os.Getenv(envAuthorEmail), cfg["author.email"], defaultUserEmail)
	committerName := firstNonEmpty(os.Getenv(envCommitterName), cfg["committer.name"], authorName)
	committerEmail := firstNonEmpty(os.Getenv(envCommitterEmail), cfg["committer.email"], authorEmail)

	author = Signature{Name: authorName, Email: authorEmail, When: now}
	committer = Signature{Name: committerName, Email: committerEmail, When: now}
	return author, committer
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
