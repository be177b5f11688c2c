// Package app implements the application layer for srcset.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.trai.ch/srcset/internal/adapters/fs"
	"go.trai.ch/srcset/internal/adapters/linear"
	"go.trai.ch/srcset/internal/adapters/telemetry"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/srcset/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	walker       *fs.Walker
	inspector    ports.SourceInspector
	decoder      ports.Decoder
	resizer      ports.Resizer
	caches       ports.VariantCacheFactory
	watcher      ports.Watcher
	logger       ports.Logger
	quietTracer  ports.Tracer

	stdout io.Writer
	stderr io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	walker *fs.Walker,
	inspector ports.SourceInspector,
	decoder ports.Decoder,
	resizer ports.Resizer,
	caches ports.VariantCacheFactory,
	watcher ports.Watcher,
	log ports.Logger,
	quietTracer ports.Tracer,
) *App {
	return &App{
		configLoader: loader,
		walker:       walker,
		inspector:    inspector,
		decoder:      decoder,
		resizer:      resizer,
		caches:       caches,
		watcher:      watcher,
		logger:       log,
		quietTracer:  quietTracer,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithOutput redirects results to stdout and progress to stderr.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// session is one opened cache with the settings it was opened for.
type session struct {
	cwd      string
	settings *domain.Settings
	cache    ports.VariantCache
}

func (a *App) openSession(configPath string) (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to determine working directory")
	}

	settings, err := a.configLoader.Load(cwd, configPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	cache, err := a.caches.Open(settings.CacheDir)
	if err != nil {
		return nil, err
	}

	return &session{cwd: cwd, settings: settings, cache: cache}, nil
}

// generatedDirs are the directories srcset writes to. They never hold sources.
func (s *session) generatedDirs(opts BuildOptions) []string {
	dirs := []string{s.settings.CacheDir}
	if opts.Out != "" {
		dirs = append(dirs, newPublisher(s.cwd, opts.Out).out)
	}
	return dirs
}

// close flushes the cache index; err is the caller's result so far.
func (s *session) close(err error) error {
	if closeErr := s.cache.Close(); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}

// process runs the orchestrator over images, streaming progress unless quiet.
func (a *App) process(ctx context.Context, s *session, images []string, quiet bool) ([]pipeline.Result, error) {
	if quiet {
		return a.orchestrator(s, a.quietTracer).ProcessAll(ctx, images, s.settings.Config)
	}

	renderer := linear.NewRenderer(a.stderr)
	provider := telemetry.NewProvider(renderer)
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()
	tracer := telemetry.NewOTelTracer(provider, "srcset").WithRenderer(renderer)
	orch := a.orchestrator(s, tracer)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	var results []pipeline.Result
	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		var err error
		results, err = orch.ProcessAll(ctx, images, s.settings.Config)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *App) orchestrator(s *session, tracer ports.Tracer) *pipeline.Orchestrator {
	return pipeline.New(
		a.inspector,
		a.decoder,
		a.resizer,
		s.cache,
		tracer,
		a.logger,
		pipeline.WithParallelism(s.settings.Parallelism),
		pipeline.WithAlternates(s.settings.Alternates...),
	)
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// Config names the config file; empty means discovery.
	Config string
	// Prune removes only variant files no index record references.
	Prune bool
}

// Clean removes the variant cache, or with Prune only its unreferenced files.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to determine working directory")
	}

	settings, err := a.configLoader.Load(cwd, opts.Config)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	if !opts.Prune {
		a.logger.Info("removing variant cache...")
		if err := os.RemoveAll(settings.CacheDir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to remove variant cache"), "path", settings.CacheDir)
		}
		a.logger.Info("removed " + settings.CacheDir)
		return nil
	}

	cache, err := a.caches.Open(settings.CacheDir)
	if err != nil {
		return err
	}

	removed, err := cache.Prune()
	if err != nil {
		return errors.Join(err, cache.Close())
	}
	if err := cache.Close(); err != nil {
		return err
	}

	stats := cache.Stats()
	a.logger.Info(fmt.Sprintf("pruned %d unreferenced file(s)", removed))
	a.logger.Info(fmt.Sprintf("cache holds %d variant(s) of %d source(s), %s",
		stats.Records, stats.Sources, humanBytes(stats.Bytes)))
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
