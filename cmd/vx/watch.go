package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sbalabanov/vx/internal/termcolor"
	"github.com/sbalabanov/vx/internal/vxrepo"
)

const watchDebounce = 100 * time.Millisecond

// runWatch reprints `vx status` whenever the working tree changes, giving a
// live view without a server: changes are debounced into another Status
// call on the same process rather than a broadcast to a remote client.
func runWatch(repo *vxrepo.Repo, _ []string, cw *termcolor.Writer) int {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	defer watcher.Close()

	root := repo.Context().CheckoutPath
	if err := walkAndWatch(watcher, root); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", root)
	runStatus(repo, nil, cw)

	var debounceTimer *time.Timer
	for {
		select {
		case <-sigCh:
			return 0

		case event, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if shouldIgnoreWatchEvent(event) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				fmt.Println()
				runStatus(repo, nil, cw)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			slog.Error("watcher error", "err", err)
		}
	}
}

// walkAndWatch adds fsnotify watches to root and every subdirectory below
// it, skipping the repository's own .vx data directory.
func walkAndWatch(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if !fi.IsDir() {
			return nil
		}
		if filepath.Base(path) == ".vx" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func shouldIgnoreWatchEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	return false
}
