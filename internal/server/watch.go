package server

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/contentpress/internal/logfields"
)

const rebuildDebounce = 300 * time.Millisecond

// Watch rebuilds the serving state when content files change. Events are
// debounced so a burst of editor writes triggers one rebuild. Blocks until
// ctx is canceled.
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := addRecursive(watcher, s.cfg.Content.Dir); err != nil {
		return err
	}
	slog.Info("Watching content directory", slog.String("dir", s.cfg.Content.Dir))

	var timer *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need their own watches.
			if event.Op&fsnotify.Create != 0 {
				_ = addRecursive(watcher, event.Name)
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(rebuildDebounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))

		case <-rebuild:
			slog.Info("Content changed; rebuilding")
			_ = s.Rebuild(ctx)
		}
	}
}

// SchedulePeriodicRebuild starts a gocron job that rebuilds at a fixed
// interval. Returns a shutdown function; interval <= 0 disables the job.
func (s *Server) SchedulePeriodicRebuild(ctx context.Context, interval time.Duration) (func() error, error) {
	if interval <= 0 {
		return func() error { return nil }, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Info("Periodic rebuild")
			_ = s.Rebuild(ctx)
		}),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	return scheduler.Shutdown, nil
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // A vanished path is not fatal for watching.
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
