// Package server provides a live status feed for a repository: a watcher
// that recomputes working-tree status on change, and an HTTP/WebSocket
// server that pushes snapshots to connected clients.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tbickford/vcs/internal/vcscore"
)

// debounceTime coalesces bursts of filesystem events into one recompute.
const debounceTime = 100 * time.Millisecond

// statusPollInterval controls how often the working tree is polled for
// changes fsnotify cannot see (edits in unwatched subdirectories, new
// untracked files).
const statusPollInterval = 2 * time.Second

// Watch recomputes the repository status whenever the metadata directory,
// refs/heads, or the working-tree root directory changes, or the poll
// interval elapses, invoking onChange with each status
// that differs from the previous one. The initial status is always
// delivered. Blocks until ctx is done.
func Watch(ctx context.Context, repoPath string, logger *slog.Logger, onChange func(*vcscore.WorkTreeStatus)) error {
	repo, err := vcscore.Open(repoPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// fsnotify does not recurse: watch the metadata dir and refs/heads
	// explicitly so index, HEAD, and branch updates are all picked up, and
	// the working-tree root for top-level edits. Edits in subdirectories
	// are caught by the poll loop.
	for _, dir := range []string{
		repo.VCSDir(),
		filepath.Join(repo.VCSDir(), "refs", "heads"),
		repo.WorkDir(),
	} {
		if err := watcher.Add(dir); err != nil {
			logger.Warn("failed to watch directory", "dir", dir, "err", err)
		}
	}

	logger.Info("watching repository", "workDir", repo.WorkDir())

	var lastEncoded []byte
	recompute := func() {
		current, err := vcscore.Open(repoPath)
		if err != nil {
			logger.Warn("reopening repository", "err", err)
			return
		}
		status, err := current.Status()
		if err != nil {
			logger.Warn("computing status", "err", err)
			return
		}
		encoded, err := json.Marshal(status)
		if err != nil {
			logger.Warn("encoding status", "err", err)
			return
		}
		if bytes.Equal(encoded, lastEncoded) {
			return
		}
		lastEncoded = encoded
		onChange(status)
	}

	recompute()

	poll := time.NewTicker(statusPollInterval)
	defer poll.Stop()

	var debounce *time.Timer
	debounced := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Every event kind is relevant; debounce so bursts (index
			// rewrite, ref update) trigger one recompute.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceTime, func() {
				select {
				case debounced <- struct{}{}:
				default:
				}
			})
		case <-debounced:
			recompute()
		case <-poll.C:
			recompute()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}
