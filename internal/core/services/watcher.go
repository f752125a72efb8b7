package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/keeper-labs/keeper-cli/internal/core/ports/driving"
	"github.com/keeper-labs/keeper-cli/internal/logger"
)

// watchDebounce coalesces the write-event bursts editors produce when
// saving a file.
const watchDebounce = 500 * time.Millisecond

// watchedExtensions are the note formats the watcher indexes.
var watchedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// WatcherService keeps a notes directory in sync with the knowledge
// base: created and modified files are indexed, removed files are
// deindexed. The file path is the document id.
type WatcherService struct {
	assistant driving.AssistantService
	watcher   *fsnotify.Watcher
}

// NewWatcherService creates a watcher feeding the given assistant.
func NewWatcherService(assistant driving.AssistantService) (*WatcherService, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &WatcherService{
		assistant: assistant,
		watcher:   w,
	}, nil
}

// Watch monitors dir until ctx is cancelled. Existing files are indexed
// once up front so a fresh directory starts in sync.
func (s *WatcherService) Watch(ctx context.Context, dir string) error {
	if err := s.indexExisting(ctx, dir); err != nil {
		return err
	}
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Watching %s", dir)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if !watchedExtensions[filepath.Ext(event.Name)] {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[event.Name] = time.Now()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, event.Name)
				if err := s.assistant.Deindex(ctx, event.Name); err != nil {
					logger.Warn("Deindex %s: %v", event.Name, err)
				} else {
					logger.Info("Deindexed %s", event.Name)
				}
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-ticker.C:
			now := time.Now()
			for path, seen := range pending {
				if now.Sub(seen) < watchDebounce {
					continue
				}
				delete(pending, path)
				s.indexFile(ctx, path)
			}
		}
	}
}

// Close stops the watcher.
func (s *WatcherService) Close() error {
	return s.watcher.Close()
}

// indexExisting indexes the notes already present in dir.
func (s *WatcherService) indexExisting(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !watchedExtensions[filepath.Ext(entry.Name())] {
			continue
		}
		s.indexFile(ctx, filepath.Join(dir, entry.Name()))
	}
	return nil
}

// indexFile reads and indexes one note file.
func (s *WatcherService) indexFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Read %s: %v", path, err)
		return
	}
	if len(content) == 0 {
		return
	}
	metadata := map[string]any{
		"title": filepath.Base(path),
		"type":  "note",
	}
	if err := s.assistant.Index(ctx, path, string(content), metadata); err != nil {
		logger.Warn("Index %s: %v", path, err)
		return
	}
	logger.Info("Indexed %s", path)
}
