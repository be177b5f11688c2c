// Package pipeline turns source images into candidate sets of cached variants.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/srcset/internal/engine/planner"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Orchestrator drives inspection, planning, cache lookups and variant generation.
type Orchestrator struct {
	inspector   ports.SourceInspector
	decoder     ports.Decoder
	resizer     ports.Resizer
	cache       ports.VariantCache
	tracer      ports.Tracer
	logger      ports.Logger
	parallelism int
	alternates  []domain.Format
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithParallelism bounds how many images, and how many widths per image, are worked on at once.
// Values below one select runtime.NumCPU().
func WithParallelism(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithAlternates requests variants in additional formats, in order of
// preference. Each is produced next to the source format unless it equals it.
func WithAlternates(formats ...domain.Format) Option {
	return func(o *Orchestrator) {
		o.alternates = formats
	}
}

// New creates an Orchestrator over one open cache.
func New(
	inspector ports.SourceInspector,
	decoder ports.Decoder,
	resizer ports.Resizer,
	cache ports.VariantCache,
	tracer ports.Tracer,
	logger ports.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		inspector:   inspector,
		decoder:     decoder,
		resizer:     resizer,
		cache:       cache,
		tracer:      tracer,
		logger:      logger,
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result is the outcome of processing one image in a batch.
type Result struct {
	Path string
	Set  domain.CandidateSet
	Err  error
}

// Process returns the candidate set for the image at sourcePath, generating missing variants.
// Widths whose generation fails are left out and reported as warnings;
// if no width can be produced the call fails with ErrGenerationFailed.
func (o *Orchestrator) Process(ctx context.Context, sourcePath string, cfg domain.Config) (domain.CandidateSet, error) {
	plans, err := planner.New(cfg)
	if err != nil {
		return domain.CandidateSet{}, err
	}
	return o.process(ctx, sourcePath, plans)
}

// ProcessAll processes every path concurrently. The configuration is validated once,
// before any image is touched. Per-image failures are reported in the results and do
// not stop the others; results are in input order.
func (o *Orchestrator) ProcessAll(ctx context.Context, paths []string, cfg domain.Config) ([]Result, error) {
	plans, err := planner.New(cfg)
	if err != nil {
		return nil, err
	}

	o.tracer.EmitPlan(ctx, displayNames(paths))

	results := make([]Result, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(o.parallelism)

	for i, path := range paths {
		g.Go(func() error {
			set, err := o.process(ctx, path, plans)
			results[i] = Result{Path: path, Set: set, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

func (o *Orchestrator) process(ctx context.Context, path string, plans *planner.Planner) (domain.CandidateSet, error) {
	if err := ctx.Err(); err != nil {
		return domain.CandidateSet{}, err
	}

	ctx, span := o.tracer.Start(ctx, displayName(path), ports.WithAttribute(domain.AttrPath, path))
	defer span.End()

	set, err := o.generate(ctx, span, path, plans)
	if err != nil {
		span.RecordError(err)
		return domain.CandidateSet{}, err
	}
	return set, nil
}

// variant is one planned output of an image: a width in one format.
type variant struct {
	format domain.Format
	width  int
	found  bool
	path   string
	err    error
}

//nolint:cyclop // sequential steps of one image
func (o *Orchestrator) generate(
	ctx context.Context,
	span ports.Span,
	path string,
	plans *planner.Planner,
) (domain.CandidateSet, error) {
	src, err := o.inspector.Inspect(path)
	if err != nil {
		return domain.CandidateSet{}, err
	}
	if !src.Format.Encodable() {
		err := zerr.Wrap(domain.ErrUnsupportedFormat, "variants cannot be encoded")
		return domain.CandidateSet{}, zerr.With(zerr.With(err, "path", path), "format", src.Format.String())
	}

	if err := o.cache.InvalidateStale(path, src.Fingerprint, src.ModTime); err != nil {
		o.warn(span, fmt.Sprintf("could not remove stale variants of %s", path), err)
	}

	plan, err := plans.Plan(src.Width)
	if err != nil {
		return domain.CandidateSet{}, zerr.With(zerr.Wrap(err, "failed to plan widths"), "path", path)
	}

	formats := src.OutputFormats(o.alternates)
	variants := make([]variant, 0, len(formats)*len(plan))
	var misses []int

	for _, format := range formats {
		for _, width := range plan {
			v := variant{format: format, width: width}
			key := o.key(src, format, width)
			if _, ok := o.cache.Lookup(key); ok {
				v.found = true
				v.path = o.variantPath(key)
			} else {
				misses = append(misses, len(variants))
			}
			variants = append(variants, v)
		}
	}
	hits := len(variants) - len(misses)

	if len(misses) > 0 {
		o.fill(ctx, src, variants, misses)
	}
	if err := ctx.Err(); err != nil {
		return domain.CandidateSet{}, err
	}

	set := domain.CandidateSet{
		Source:      path,
		Fingerprint: src.Fingerprint,
		Width:       src.Width,
		Height:      src.Height,
		Format:      src.Format,
	}
	generated, dropped := 0, 0
	for _, format := range formats {
		alt := domain.Alternate{Format: format}
		for _, v := range variants {
			if v.format != format {
				continue
			}
			if v.found {
				alt.Candidates = append(alt.Candidates, domain.Candidate{Width: v.width, Path: v.path})
				continue
			}
			alt.Dropped = append(alt.Dropped, domain.DroppedVariant{Width: v.width, Err: v.err})
		}
		generated += len(alt.Candidates)
		dropped += len(alt.Dropped)

		if format == src.Format {
			set.Candidates, set.Dropped = alt.Candidates, alt.Dropped
		} else {
			set.Alternates = append(set.Alternates, alt)
		}
	}

	span.SetAttribute(domain.AttrHits, hits)
	span.SetAttribute(domain.AttrGenerated, generated-hits)
	span.SetAttribute(domain.AttrDropped, dropped)

	if len(set.Candidates) == 0 {
		causes := make([]error, 0, len(set.Dropped)+1)
		causes = append(causes, domain.ErrGenerationFailed)
		for _, d := range set.Dropped {
			causes = append(causes, d.Err)
		}
		return domain.CandidateSet{}, zerr.With(errors.Join(causes...), "path", path)
	}

	for _, alt := range set.Alternates {
		for _, d := range alt.Dropped {
			o.warn(span, fmt.Sprintf("dropped %dw %s variant of %s", d.Width, alt.Format, path), d.Err)
		}
	}
	for _, d := range set.Dropped {
		o.warn(span, fmt.Sprintf("dropped %dw variant of %s", d.Width, path), d.Err)
	}

	return set, nil
}

// fill generates the missing variants. The source is decoded once and shared
// by every format and width; each variant is resized, encoded and stored
// independently.
func (o *Orchestrator) fill(ctx context.Context, src domain.SourceImage, variants []variant, misses []int) {
	img, err := o.decoder.Decode(src.Path, src.Fingerprint)
	if err != nil {
		for _, i := range misses {
			variants[i].err = err
		}
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(o.parallelism)

	for _, i := range misses {
		g.Go(func() error {
			v := &variants[i]
			if err := ctx.Err(); err != nil {
				v.err = err
				return nil
			}

			var chunks []domain.Chunk
			if v.format == domain.FormatPNG {
				chunks = src.Chunks
			}
			data, err := o.resizer.Resize(img, v.format, v.width, chunks...)
			if err != nil {
				v.err = zerr.With(zerr.Wrap(err, "failed to resize variant"), "width", v.width)
				return nil
			}

			key := o.key(src, v.format, v.width)
			if _, err := o.cache.Store(key, data); err != nil {
				v.err = zerr.With(zerr.Wrap(err, "failed to store variant"), "width", v.width)
				return nil
			}

			v.found = true
			v.path = o.variantPath(key)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) key(src domain.SourceImage, format domain.Format, width int) domain.VariantKey {
	return domain.VariantKey{Fingerprint: src.Fingerprint, Width: width, Format: format}
}

// variantPath is the absolute path of a cached variant. It is derived from
// the key, never from the stored record.
func (o *Orchestrator) variantPath(key domain.VariantKey) string {
	return filepath.Join(o.cache.Root(), filepath.FromSlash(key.RelPath()))
}

func (o *Orchestrator) warn(span ports.Span, msg string, err error) {
	line := msg + ": " + err.Error()
	_, _ = span.Write([]byte(line + "\n"))
	o.logger.Warn(line)
}

func displayName(path string) string {
	return filepath.Base(path)
}

func displayNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = displayName(p)
	}
	return names
}
