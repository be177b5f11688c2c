package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/srcset/internal/adapters/fs"
	"go.trai.ch/srcset/internal/adapters/watcher"
	"go.trai.ch/srcset/internal/core/ports"
)

// Watch builds once and then rebuilds images whose files change until ctx is canceled.
// Failed images never stop the loop; the cache index is flushed after every batch.
func (a *App) Watch(ctx context.Context, paths []string, opts BuildOptions) (err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	opts.KeepGoing = true

	s, err := a.openSession(opts.Config)
	if err != nil {
		return err
	}
	defer func() {
		err = s.close(err)
	}()

	ignored := s.generatedDirs(opts)
	images, err := a.walker.Discover(paths, ignored...)
	if err != nil {
		return err
	}

	if len(images) > 0 {
		if err := a.rebuild(ctx, s, images, opts); err != nil {
			return err
		}
	}

	defer func() {
		_ = a.watcher.Stop()
	}()
	for _, root := range paths {
		if err := a.watcher.Start(ctx, root); err != nil {
			return err
		}
	}

	batches := make(chan []string)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(changed []string) {
		select {
		case batches <- changed:
		case <-ctx.Done():
		}
	})
	go a.collect(debouncer, ignored)

	a.logger.Info(fmt.Sprintf("watching %d path(s) for changes", len(paths)))

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-batches:
			existing := make([]string, 0, len(changed))
			for _, p := range changed {
				if info, err := os.Stat(p); err == nil && !info.IsDir() {
					existing = append(existing, p)
				}
			}
			if len(existing) == 0 {
				continue
			}
			if err := a.rebuild(ctx, s, existing, opts); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.logger.Error(err)
			}
		}
	}
}

// collect feeds changed image paths to debouncer until the watcher stops.
func (a *App) collect(debouncer *watcher.Debouncer, ignored []string) {
	for event := range a.watcher.Events() {
		if event.Operation == ports.OpRemove || !fs.IsImage(event.Path) {
			continue
		}
		path, err := filepath.Abs(event.Path)
		if err != nil || isIgnored(path, ignored) {
			continue
		}
		debouncer.Add(path)
	}
}

func isIgnored(path string, dirs []string) bool {
	for _, dir := range dirs {
		if within(path, dir) {
			return true
		}
	}
	return false
}

// rebuild processes one batch and flushes the cache so progress survives an interrupt.
func (a *App) rebuild(ctx context.Context, s *session, images []string, opts BuildOptions) error {
	if err := a.buildImages(ctx, s, images, opts); err != nil {
		return err
	}
	return s.cache.Flush()
}
