package pipeline_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/srcset/internal/adapters/cas"
	"go.trai.ch/srcset/internal/adapters/fs"
	"go.trai.ch/srcset/internal/adapters/raster"
	"go.trai.ch/srcset/internal/adapters/telemetry"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/srcset/internal/core/ports/mocks"
	"go.trai.ch/srcset/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

// testConfig plans [50 80 110 140 170 200] for a 200px wide image.
var testConfig = domain.Config{MaxViewportWidth: 100, WidthMin: 50, WidthStep: 30}

type countingDecoder struct {
	ports.Decoder
	calls atomic.Int32
}

func (d *countingDecoder) Decode(path string, fp domain.Fingerprint) (image.Image, error) {
	d.calls.Add(1)
	return d.Decoder.Decode(path, fp)
}

type countingResizer struct {
	ports.Resizer
	calls atomic.Int32
	// failWidths lists widths that fail with ErrEncodeFailed.
	failWidths map[int]bool
}

func (r *countingResizer) Resize(img image.Image, format domain.Format, width int, chunks ...domain.Chunk) ([]byte, error) {
	r.calls.Add(1)
	if r.failWidths[width] {
		return nil, errors.Join(domain.ErrEncodeFailed, errors.New("encoder exploded"))
	}
	return r.Resizer.Resize(img, format, width, chunks...)
}

// failingStoreCache refuses to store one width and passes everything else through.
type failingStoreCache struct {
	ports.VariantCache
	width int
}

func (c *failingStoreCache) Store(key domain.VariantKey, data []byte) (domain.VariantRecord, error) {
	if key.Width == c.width {
		return domain.VariantRecord{}, errors.Join(domain.ErrCacheWriteFailed, errors.New("disk full"))
	}
	return c.VariantCache.Store(key, data)
}

type harness struct {
	orch    *pipeline.Orchestrator
	cache   *cas.Store
	decoder *countingDecoder
	resizer *countingResizer
	logger  *mocks.MockLogger
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	cache, err := cas.Open(t.TempDir())
	require.NoError(t, err)

	h := &harness{
		cache:   cache,
		decoder: &countingDecoder{Decoder: raster.NewDecoder()},
		resizer: &countingResizer{Resizer: raster.NewResizer(), failWidths: map[int]bool{}},
		logger:  logger,
	}
	h.orch = pipeline.New(fs.NewInspector(), h.decoder, h.resizer, cache, telemetry.NewNoOpTracer(), logger)
	return h
}

func writeSource(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, imaging.Save(imaging.New(w, h, c), path))
}

func TestProcess_GeneratesPlannedWidths(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	src := filepath.Join(t.TempDir(), "photo.png")
	writeSource(t, src, 200, 100, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	set, err := h.orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.Equal(t, []int{50, 80, 110, 140, 170, 200}, set.Widths())
	assert.Equal(t, src, set.Source)
	assert.Equal(t, 200, set.Width)
	assert.Equal(t, 100, set.Height)
	assert.Equal(t, domain.FormatPNG, set.Format)
	assert.False(t, set.Degraded())

	for _, c := range set.Candidates {
		img, err := imaging.Open(c.Path)
		require.NoError(t, err)
		assert.Equal(t, c.Width, img.Bounds().Dx())
		assert.Equal(t, domain.ScaledHeight(200, 100, c.Width), img.Bounds().Dy())
	}
}

func TestProcess_Idempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	src := filepath.Join(t.TempDir(), "photo.png")
	writeSource(t, src, 200, 100, color.White)

	first, err := h.orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)
	resizes := h.resizer.calls.Load()
	assert.Equal(t, int32(6), resizes)

	second, err := h.orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, resizes, h.resizer.calls.Load(), "second run must not resize")
	assert.Equal(t, int32(1), h.decoder.calls.Load(), "second run must not decode")
}

func TestProcess_ContentAddressed(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	dir := t.TempDir()
	original := filepath.Join(dir, "a.png")
	writeSource(t, original, 200, 100, color.Black)

	first, err := h.orch.Process(context.Background(), original, testConfig)
	require.NoError(t, err)

	data, err := os.ReadFile(original)
	require.NoError(t, err)
	renamed := filepath.Join(dir, "moved", "b.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(renamed), 0o750))
	require.NoError(t, os.WriteFile(renamed, data, 0o600))

	resizes := h.resizer.calls.Load()
	second, err := h.orch.Process(context.Background(), renamed, testConfig)
	require.NoError(t, err)

	assert.Equal(t, resizes, h.resizer.calls.Load())
	assert.Equal(t, first.Candidates, second.Candidates)
	assert.Equal(t, renamed, second.Source)
}

func TestProcess_RegeneratesAfterEdit(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	src := filepath.Join(t.TempDir(), "photo.png")
	writeSource(t, src, 200, 100, color.White)

	before, err := h.orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	writeSource(t, src, 200, 100, color.NRGBA{R: 255, A: 255})
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(src, later, later))

	after, err := h.orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.Equal(t, int32(12), h.resizer.calls.Load())
	assert.NotEqual(t, before.Fingerprint, after.Fingerprint)
	for i := range before.Candidates {
		assert.NotEqual(t, before.Candidates[i].Path, after.Candidates[i].Path)
		assert.NoFileExists(t, before.Candidates[i].Path)
		assert.FileExists(t, after.Candidates[i].Path)
	}
}

func TestProcess_DecodesOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	src := filepath.Join(t.TempDir(), "photo.jpg")
	writeSource(t, src, 200, 100, color.Gray{Y: 90})

	set, err := h.orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.Len(t, set.Candidates, 6)
	assert.Equal(t, int32(1), h.decoder.calls.Load())
	assert.Equal(t, int32(6), h.resizer.calls.Load())
}

func TestProcess_PartialDegradation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).Times(2)

	cache, err := cas.Open(t.TempDir())
	require.NoError(t, err)
	resizer := &countingResizer{Resizer: raster.NewResizer(), failWidths: map[int]bool{80: true, 140: true}}
	orch := pipeline.New(fs.NewInspector(), raster.NewDecoder(), resizer, cache, telemetry.NewNoOpTracer(), logger)

	src := filepath.Join(t.TempDir(), "photo.png")
	writeSource(t, src, 200, 100, color.White)

	set, err := orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.Equal(t, []int{50, 110, 170, 200}, set.Widths())
	require.Len(t, set.Dropped, 2)
	assert.Equal(t, 80, set.Dropped[0].Width)
	assert.Equal(t, 140, set.Dropped[1].Width)
	assert.ErrorIs(t, set.Dropped[0].Err, domain.ErrEncodeFailed)
	assert.True(t, set.Degraded())
}

func TestProcess_StoreFailureDropsWidth(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		assert.Contains(t, msg, "dropped 110w variant of")
		assert.Contains(t, msg, "disk full")
	}).Times(1)

	store, err := cas.Open(t.TempDir())
	require.NoError(t, err)
	failing := &failingStoreCache{VariantCache: store, width: 110}
	orch := pipeline.New(fs.NewInspector(), raster.NewDecoder(), raster.NewResizer(), failing,
		telemetry.NewNoOpTracer(), logger)

	src := filepath.Join(t.TempDir(), "photo.png")
	writeSource(t, src, 200, 100, color.White)

	set, err := orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.Equal(t, []int{50, 80, 140, 170, 200}, set.Widths())
	require.Len(t, set.Dropped, 1)
	assert.Equal(t, 110, set.Dropped[0].Width)
	require.ErrorIs(t, set.Dropped[0].Err, domain.ErrCacheWriteFailed)
	for _, c := range set.Candidates {
		assert.FileExists(t, c.Path)
	}

	key := domain.VariantKey{Fingerprint: set.Fingerprint, Width: 110, Format: domain.FormatPNG}
	_, ok := store.Lookup(key)
	assert.False(t, ok, "a failed store leaves no index entry")

	resizer := &countingResizer{Resizer: raster.NewResizer()}
	healthy := pipeline.New(fs.NewInspector(), raster.NewDecoder(), resizer, store,
		telemetry.NewNoOpTracer(), logger)
	again, err := healthy.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.Equal(t, []int{50, 80, 110, 140, 170, 200}, again.Widths())
	assert.Empty(t, again.Dropped)
	assert.Equal(t, int32(1), resizer.calls.Load(), "only the dropped width is generated")
}

func TestProcess_Alternates(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	orch := pipeline.New(fs.NewInspector(), h.decoder, h.resizer, h.cache, telemetry.NewNoOpTracer(), h.logger,
		pipeline.WithAlternates(domain.FormatWebP))

	src := filepath.Join(t.TempDir(), "photo.jpg")
	writeSource(t, src, 200, 100, color.Gray{Y: 90})

	set, err := orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatJPEG, set.Format)
	assert.Equal(t, []int{50, 80, 110, 140, 170, 200}, set.Widths())
	require.Len(t, set.Alternates, 1)
	alt := set.Alternates[0]
	assert.Equal(t, domain.FormatWebP, alt.Format)
	require.Len(t, alt.Candidates, 6)
	for i, c := range alt.Candidates {
		assert.Equal(t, set.Candidates[i].Width, c.Width)
		assert.Equal(t, ".webp", filepath.Ext(c.Path))
		img, err := imaging.Open(c.Path)
		require.NoError(t, err)
		assert.Equal(t, c.Width, img.Bounds().Dx())
	}
	assert.Equal(t, int32(1), h.decoder.calls.Load(), "one decode serves every format")
	assert.Equal(t, int32(12), h.resizer.calls.Load())

	again, err := orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)
	assert.Equal(t, set, again)
	assert.Equal(t, int32(12), h.resizer.calls.Load())
}

func TestProcess_SnippetKeepsPNGOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	orch := pipeline.New(fs.NewInspector(), h.decoder, h.resizer, h.cache, telemetry.NewNoOpTracer(), h.logger,
		pipeline.WithAlternates(domain.FormatWebP))

	snippet := domain.Chunk{Type: domain.SnippetChunkType, Data: []byte("<vi>add</vi>")}
	data, err := raster.NewResizer().Resize(imaging.New(200, 100, color.White), domain.FormatPNG, 200, snippet)
	require.NoError(t, err)
	src := filepath.Join(t.TempDir(), "snippet.png")
	require.NoError(t, os.WriteFile(src, data, 0o600))

	set, err := orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.Empty(t, set.Alternates, "no other format can carry the snippet")
	require.Len(t, set.Candidates, 6)
	for _, c := range set.Candidates {
		variant, err := fs.NewInspector().Inspect(c.Path)
		require.NoError(t, err)
		assert.Equal(t, []domain.Chunk{snippet}, variant.Chunks, "width %d", c.Width)
	}
}

func TestProcess_DetectsEditWithRestoredModTime(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	src := filepath.Join(t.TempDir(), "photo.bmp")
	writeSource(t, src, 200, 100, color.White)
	info, err := os.Stat(src)
	require.NoError(t, err)

	before, err := h.orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	writeSource(t, src, 200, 100, color.NRGBA{R: 255, A: 255})
	require.NoError(t, os.Chtimes(src, info.ModTime(), info.ModTime()))
	edited, err := os.Stat(src)
	require.NoError(t, err)
	require.Equal(t, info.Size(), edited.Size())

	after, err := h.orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	assert.NotEqual(t, before.Fingerprint, after.Fingerprint)
	served, err := imaging.Open(after.Candidates[0].Path)
	require.NoError(t, err)
	r, g, b, _ := served.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b}, "the served variant shows the edit")
}

func TestProcess_AllWidthsFail(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for _, w := range []int{50, 80, 110, 140, 170, 200} {
		h.resizer.failWidths[w] = true
	}

	src := filepath.Join(t.TempDir(), "photo.png")
	writeSource(t, src, 200, 100, color.White)

	set, err := h.orch.Process(context.Background(), src, testConfig)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.ErrorIs(t, err, domain.ErrEncodeFailed)
	assert.Empty(t, set.Candidates)
}

func TestProcess_DecodeFailureKeepsCachedWidths(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	src := filepath.Join(t.TempDir(), "photo.png")
	writeSource(t, src, 200, 100, color.White)

	_, err := h.orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	decoder := mocks.NewMockDecoder(ctrl)
	decoder.EXPECT().Decode(src, gomock.Any()).Return(nil, domain.ErrDecodeFailed).Times(1)

	orch := pipeline.New(fs.NewInspector(), decoder, h.resizer, h.cache, telemetry.NewNoOpTracer(), h.logger)

	// Plans [50 70 90 110 130 150 170 190 200]; 50, 110, 170 and 200 are cached.
	other := domain.Config{MaxViewportWidth: 100, WidthMin: 50, WidthStep: 20}
	set, err := orch.Process(context.Background(), src, other)
	require.NoError(t, err)

	assert.Equal(t, []int{50, 110, 170, 200}, set.Widths())
	assert.Len(t, set.Dropped, 5)
	for _, d := range set.Dropped {
		assert.ErrorIs(t, d.Err, domain.ErrDecodeFailed)
	}
}

func TestProcess_InvalidConfigurationTouchesNothing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	// No expectations: any call fails the test.
	orch := pipeline.New(
		mocks.NewMockSourceInspector(ctrl),
		mocks.NewMockDecoder(ctrl),
		mocks.NewMockResizer(ctrl),
		mocks.NewMockVariantCache(ctrl),
		mocks.NewMockTracer(ctrl),
		mocks.NewMockLogger(ctrl),
	)

	bad := domain.Config{MaxViewportWidth: 1000, WidthMin: 500, WidthStep: 0}

	_, err := orch.Process(context.Background(), "/src/a.png", bad)
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	results, err := orch.ProcessAll(context.Background(), []string{"/src/a.png"}, bad)
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Nil(t, results)
}

func TestProcess_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	inspector := mocks.NewMockSourceInspector(ctrl)
	inspector.EXPECT().Inspect("/src/vector.svg").Return(domain.SourceImage{
		Path:        "/src/vector.svg",
		Fingerprint: "abcdef0123456789",
		Width:       800,
		Height:      600,
		Format:      domain.FormatUnknown,
	}, nil)

	orch := pipeline.New(
		inspector,
		mocks.NewMockDecoder(ctrl),
		mocks.NewMockResizer(ctrl),
		mocks.NewMockVariantCache(ctrl),
		telemetry.NewNoOpTracer(),
		mocks.NewMockLogger(ctrl),
	)

	_, err := orch.Process(context.Background(), "/src/vector.svg", domain.DefaultConfig())
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestProcess_SpanAttributes(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	src := filepath.Join(t.TempDir(), "photo.png")
	writeSource(t, src, 200, 100, color.White)

	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	tracer.EXPECT().Start(gomock.Any(), "photo.png", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		})
	gomock.InOrder(
		span.EXPECT().SetAttribute(domain.AttrHits, 0),
		span.EXPECT().SetAttribute(domain.AttrGenerated, 6),
		span.EXPECT().SetAttribute(domain.AttrDropped, 0),
		span.EXPECT().End(),
	)

	orch := pipeline.New(fs.NewInspector(), h.decoder, h.resizer, h.cache, tracer, h.logger)
	_, err := orch.Process(context.Background(), src, testConfig)
	require.NoError(t, err)
}

func TestProcess_SpanRecordsFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	inspector := mocks.NewMockSourceInspector(ctrl)

	readErr := errors.Join(domain.ErrSourceReadFailed, os.ErrNotExist)
	inspector.EXPECT().Inspect("/src/gone.png").Return(domain.SourceImage{}, readErr)
	tracer.EXPECT().Start(gomock.Any(), "gone.png", gomock.Any()).Return(context.Background(), span)
	span.EXPECT().RecordError(readErr)
	span.EXPECT().End()

	orch := pipeline.New(
		inspector,
		mocks.NewMockDecoder(ctrl),
		mocks.NewMockResizer(ctrl),
		mocks.NewMockVariantCache(ctrl),
		tracer,
		mocks.NewMockLogger(ctrl),
	)

	_, err := orch.Process(context.Background(), "/src/gone.png", domain.DefaultConfig())
	require.ErrorIs(t, err, domain.ErrSourceReadFailed)
}

func TestProcessAll(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.jpg")
	broken := filepath.Join(dir, "broken.png")
	small := filepath.Join(dir, "small.gif")

	writeSource(t, a, 200, 100, color.White)
	writeSource(t, b, 120, 120, color.Black)
	writeSource(t, small, 30, 10, color.White)
	require.NoError(t, os.WriteFile(broken, []byte("not an image"), 0o600))

	paths := []string{a, broken, b, small}
	results, err := h.orch.ProcessAll(context.Background(), paths, testConfig)
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
	}

	require.NoError(t, results[0].Err)
	assert.Equal(t, []int{50, 80, 110, 140, 170, 200}, results[0].Set.Widths())

	require.ErrorIs(t, results[1].Err, domain.ErrDecodeFailed)

	require.NoError(t, results[2].Err)
	assert.Equal(t, []int{50, 80, 110, 120}, results[2].Set.Widths())

	require.NoError(t, results[3].Err)
	assert.Equal(t, []int{30}, results[3].Set.Widths())
}

func TestProcessAll_DuplicateContentConverges(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.png")
	writeSource(t, first, 200, 100, color.White)
	data, err := os.ReadFile(first)
	require.NoError(t, err)

	paths := []string{first}
	for _, name := range []string{"second.png", "third.png", "fourth.png"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o600))
		paths = append(paths, p)
	}

	results, err := h.orch.ProcessAll(context.Background(), paths, testConfig)
	require.NoError(t, err)

	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, results[0].Set.Candidates, r.Set.Candidates)
	}
	assert.Equal(t, 6, h.cache.Stats().Records)
}

func TestProcessAll_Canceled(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	src := filepath.Join(t.TempDir(), "photo.png")
	writeSource(t, src, 200, 100, color.White)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := h.orch.ProcessAll(ctx, []string{src}, testConfig)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Equal(t, int32(0), h.resizer.calls.Load())
}
