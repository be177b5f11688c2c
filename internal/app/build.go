package app

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/zerr"
)

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// Config names the config file; empty means discovery.
	Config string
	// Out is the directory variants are published to; empty skips publishing.
	Out string
	// Prefix is prepended to published names in the printed srcset.
	Prefix string
	// DisplayWidth is the intended display width in CSS pixels, zero when unknown.
	DisplayWidth int
	// JSON prints a manifest instead of markup lines.
	JSON bool
	// Quiet disables progress output.
	Quiet bool
	// KeepGoing reports failed images as warnings instead of failing the build.
	KeepGoing bool
}

// Build discovers the images under paths, brings their variants up to date and prints the result.
func (a *App) Build(ctx context.Context, paths []string, opts BuildOptions) (err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	s, err := a.openSession(opts.Config)
	if err != nil {
		return err
	}
	defer func() {
		err = s.close(err)
	}()

	images, err := a.walker.Discover(paths, s.generatedDirs(opts)...)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return zerr.With(zerr.Wrap(domain.ErrNoSources, "nothing to build"), "paths", paths)
	}

	return a.buildImages(ctx, s, images, opts)
}

// buildImages processes images, publishes them and prints the report.
func (a *App) buildImages(ctx context.Context, s *session, images []string, opts BuildOptions) error {
	results, err := a.process(ctx, s, images, opts.Quiet)
	if err != nil {
		return err
	}

	pub := newPublisher(s.cwd, opts.Out)

	var failures []error
	for i := range results {
		res := &results[i]
		if res.Err == nil && opts.Out != "" {
			res.Err = pub.publish(res.Set)
		}
		if res.Err != nil {
			a.logger.Warn(fmt.Sprintf("%s: %v", relativeTo(s.cwd, res.Path), res.Err))
			failures = append(failures, res.Err)
		}
	}

	rep := newReport(s, results, opts, pub)
	if err := rep.write(a.stdout, opts.JSON); err != nil {
		return zerr.Wrap(err, "failed to write report")
	}

	if len(failures) == 0 || opts.KeepGoing {
		return nil
	}
	err = errors.Join(append([]error{domain.ErrBuildFailed}, failures...)...)
	return zerr.With(err, "failed", fmt.Sprintf("%d of %d", len(failures), len(results)))
}
