package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/grindlemire/graft"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/srcset/internal/adapters/cas"
	"go.trai.ch/srcset/internal/adapters/fs"
	"go.trai.ch/srcset/internal/adapters/raster"
	"go.trai.ch/srcset/internal/adapters/telemetry"
	"go.trai.ch/srcset/internal/app"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/srcset/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// testConfig plans [50 80 110 140 170 200] for a 200px wide image.
var testConfig = domain.Config{MaxViewportWidth: 100, WidthMin: 50, WidthStep: 30}

// goldenDir is resolved before fixtures chdir into their temp directories.
var goldenDir, _ = filepath.Abs("testdata")

// syncBuffer is a bytes.Buffer safe for the concurrent writes of watch mode.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	dir     string
	app     *app.App
	loader  *mocks.MockConfigLoader
	logger  *mocks.MockLogger
	watcher *mocks.MockWatcher
	stdout  *syncBuffer
	stderr  *syncBuffer
}

func newFixture(t *testing.T, opts ...func(*domain.Settings)) *fixture {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	dir := t.TempDir()
	t.Chdir(dir)
	// Resolve symlinked temp roots so printed paths are relative to cwd.
	dir, err := os.Getwd()
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	f := &fixture{
		dir:     dir,
		loader:  mocks.NewMockConfigLoader(ctrl),
		logger:  mocks.NewMockLogger(ctrl),
		watcher: mocks.NewMockWatcher(ctrl),
		stdout:  &syncBuffer{},
		stderr:  &syncBuffer{},
	}

	settings := &domain.Settings{
		Config:   testConfig,
		CacheDir: filepath.Join(dir, ".srcset", "cache"),
	}
	for _, opt := range opts {
		opt(settings)
	}
	f.loader.EXPECT().Load(dir, gomock.Any()).Return(settings, nil).AnyTimes()

	f.app = app.New(
		f.loader,
		fs.NewWalker(),
		fs.NewInspector(),
		raster.NewDecoder(),
		raster.NewResizer(),
		cas.NewFactory(),
		f.watcher,
		f.logger,
		telemetry.NewNoOpTracer(),
	).WithOutput(f.stdout, f.stderr)

	return f
}

func (f *fixture) image(t *testing.T, rel string, width, height int) string {
	t.Helper()
	path := filepath.Join(f.dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, imaging.Save(imaging.New(width, height, color.NRGBA{R: 200, A: 255}), path))
	return path
}

func TestApp_Build(t *testing.T) {
	f := newFixture(t)
	f.image(t, "hero.png", 200, 100)

	err := f.app.Build(t.Context(), nil, app.BuildOptions{Prefix: "/img", Quiet: true})
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir(goldenDir))
	g.Assert(t, "build_text", []byte(f.stdout.String()))

	entries, err := os.ReadDir(filepath.Join(f.dir, ".srcset", "cache"))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"index.json", "variants"}, names, "the index is flushed at build end")
}

func TestApp_BuildProgress(t *testing.T) {
	f := newFixture(t)
	f.image(t, "hero.png", 200, 100)

	err := f.app.Build(t.Context(), []string{"hero.png"}, app.BuildOptions{})
	require.NoError(t, err)

	progress := f.stderr.String()
	assert.Contains(t, progress, "Processing 1 image(s)\n")
	assert.Contains(t, progress, "[hero.png] Starting...\n")
	assert.Contains(t, progress, "[hero.png] ✓ Completed in")
	assert.Contains(t, progress, "(0 cached, 6 generated)\n")
	assert.Contains(t, progress, "Processed 1 image(s) (0 cached, 6 generated)\n")
}

func TestApp_BuildPublishes(t *testing.T) {
	f := newFixture(t)
	f.image(t, "hero.png", 200, 100)
	f.image(t, filepath.Join("gallery", "photo.jpg"), 200, 100)

	err := f.app.Build(t.Context(), []string{"."}, app.BuildOptions{Out: "public", Prefix: "/static", Quiet: true})
	require.NoError(t, err)

	for _, name := range []string{
		"hero-50.png", "hero-140.png", "hero.png",
		filepath.Join("gallery", "photo-50.jpg"), filepath.Join("gallery", "photo.jpg"),
	} {
		assert.FileExists(t, filepath.Join(f.dir, "public", name))
	}

	src, err := imaging.Open(filepath.Join(f.dir, "public", "hero-80.png"))
	require.NoError(t, err)
	assert.Equal(t, 80, src.Bounds().Dx())
	assert.Equal(t, 40, src.Bounds().Dy())

	assert.Contains(t, f.stdout.String(), `/static/gallery/photo-50.jpg 50w`)
}

func TestApp_BuildTwiceIntoOutputInsideSources(t *testing.T) {
	f := newFixture(t)
	f.image(t, "hero.png", 200, 100)
	opts := app.BuildOptions{Out: "public", Prefix: "/static", Quiet: true}

	require.NoError(t, f.app.Build(t.Context(), nil, opts))
	first := f.stdout.String()
	require.NoError(t, f.app.Build(t.Context(), nil, opts))
	second := strings.TrimPrefix(f.stdout.String(), first)

	assert.Equal(t, first, second, "published variants are not picked up as sources")
	assert.NoDirExists(t, filepath.Join(f.dir, "public", "public"))
	assert.NoDirExists(t, filepath.Join(f.dir, "public", ".srcset"))
	assert.FileExists(t, filepath.Join(f.dir, "public", "hero-50.png"))
}

func TestApp_BuildAlternates(t *testing.T) {
	f := newFixture(t, func(s *domain.Settings) {
		s.Alternates = []domain.Format{domain.FormatWebP}
	})
	f.image(t, "hero.png", 200, 100)

	err := f.app.Build(t.Context(), nil, app.BuildOptions{Out: "public", Prefix: "/img", Quiet: true})
	require.NoError(t, err)

	out := f.stdout.String()
	assert.Contains(t, out, `  source type="image/webp" srcset="/img/hero-50.webp 50w, /img/hero-80.webp 80w, `+
		`/img/hero-110.webp 110w, /img/hero-140.webp 140w, /img/hero-170.webp 170w, /img/hero.webp 200w"`)
	assert.Less(t, strings.Index(out, "source type="), strings.Index(out, "  srcset="),
		"the alternate is offered before the source format")

	webp, err := imaging.Open(filepath.Join(f.dir, "public", "hero-80.webp"))
	require.NoError(t, err)
	assert.Equal(t, 80, webp.Bounds().Dx())
	assert.FileExists(t, filepath.Join(f.dir, "public", "hero-80.png"))
}

func TestApp_BuildJSON(t *testing.T) {
	f := newFixture(t)
	f.image(t, "hero.png", 200, 100)

	err := f.app.Build(t.Context(), nil, app.BuildOptions{JSON: true, Quiet: true, DisplayWidth: 64})
	require.NoError(t, err)

	var manifest struct {
		Images []struct {
			Source     string `json:"source"`
			Width      int    `json:"width"`
			Height     int    `json:"height"`
			Format     string `json:"format"`
			Srcset     string `json:"srcset"`
			Sizes      string `json:"sizes"`
			Candidates []struct {
				Width int    `json:"width"`
				Path  string `json:"path"`
				URL   string `json:"url"`
			} `json:"candidates"`
		} `json:"images"`
		Failed []any `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(f.stdout.String()), &manifest))

	require.Len(t, manifest.Images, 1)
	img := manifest.Images[0]
	assert.Equal(t, "hero.png", img.Source)
	assert.Equal(t, 200, img.Width)
	assert.Equal(t, 100, img.Height)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, "min(64px, 100vw)", img.Sizes)
	require.Len(t, img.Candidates, 6)
	for _, c := range img.Candidates {
		assert.FileExists(t, c.Path)
		assert.Equal(t, c.Path, c.URL, "without prefix or output the cache path is the URL")
	}
	assert.Empty(t, manifest.Failed)
}

func TestApp_BuildFailure(t *testing.T) {
	f := newFixture(t)
	f.image(t, "hero.png", 200, 100)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "broken.png"), []byte("not an image"), domain.FilePerm))

	f.logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		assert.True(t, strings.HasPrefix(msg, "broken.png: "), msg)
	}).Times(1)

	err := f.app.Build(t.Context(), nil, app.BuildOptions{Quiet: true})
	require.ErrorIs(t, err, domain.ErrBuildFailed)
	require.ErrorIs(t, err, domain.ErrDecodeFailed)

	assert.Contains(t, f.stdout.String(), "hero.png\n", "successful images are still reported")
}

func TestApp_BuildKeepGoing(t *testing.T) {
	f := newFixture(t)
	f.image(t, "hero.png", 200, 100)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "broken.png"), []byte("not an image"), domain.FilePerm))

	f.logger.EXPECT().Warn(gomock.Any()).Times(1)

	err := f.app.Build(t.Context(), nil, app.BuildOptions{Quiet: true, KeepGoing: true})
	require.NoError(t, err)
}

func TestApp_BuildNoSources(t *testing.T) {
	f := newFixture(t)

	err := f.app.Build(t.Context(), nil, app.BuildOptions{Quiet: true})
	require.ErrorIs(t, err, domain.ErrNoSources)
}

func TestApp_BuildConfigError(t *testing.T) {
	t.Chdir(t.TempDir())
	imgDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, imaging.Save(imaging.New(10, 10, color.Black), filepath.Join(imgDir, "a.png")))

	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(imgDir, "bad.yaml").Return(nil, domain.ErrInvalidConfiguration)

	a := app.New(loader, fs.NewWalker(), fs.NewInspector(), raster.NewDecoder(), raster.NewResizer(),
		cas.NewFactory(), mocks.NewMockWatcher(ctrl), mocks.NewMockLogger(ctrl), telemetry.NewNoOpTracer())

	err = a.Build(t.Context(), nil, app.BuildOptions{Config: "bad.yaml", Quiet: true})
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, statErr := os.Stat(filepath.Join(imgDir, ".srcset"))
	assert.True(t, os.IsNotExist(statErr), "no cache is created for an invalid config")
}

func TestApp_Plan(t *testing.T) {
	f := newFixture(t)

	err := f.app.Plan(t.Context(), app.PlanOptions{Width: 200})
	require.NoError(t, err)

	assert.Contains(t, f.stdout.String(), "200px (max viewport 100px, min 50px, step 30px)")
	assert.True(t, strings.HasSuffix(f.stdout.String(), "\n50 80 110 140 170 200\n"))
}

func TestApp_PlanInvalidWidth(t *testing.T) {
	f := newFixture(t)

	err := f.app.Plan(t.Context(), app.PlanOptions{Width: 0})
	require.ErrorIs(t, err, domain.ErrInvalidDimensions)
}

func TestApp_Clean(t *testing.T) {
	f := newFixture(t)
	f.image(t, "hero.png", 200, 100)
	require.NoError(t, f.app.Build(t.Context(), nil, app.BuildOptions{Quiet: true}))

	f.logger.EXPECT().Info(gomock.Any()).Times(2)

	require.NoError(t, f.app.Clean(t.Context(), app.CleanOptions{}))

	_, err := os.Stat(filepath.Join(f.dir, ".srcset", "cache"))
	assert.True(t, os.IsNotExist(err))
}

func TestApp_CleanPrune(t *testing.T) {
	f := newFixture(t)
	f.image(t, "hero.png", 200, 100)
	require.NoError(t, f.app.Build(t.Context(), nil, app.BuildOptions{Quiet: true}))

	orphan := filepath.Join(f.dir, ".srcset", "cache", "variants", "zz", "zz00000000000000-10.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(orphan), domain.DirPerm))
	require.NoError(t, os.WriteFile(orphan, []byte("x"), domain.FilePerm))

	var infos []string
	f.logger.EXPECT().Info(gomock.Any()).Do(func(msg string) { infos = append(infos, msg) }).Times(2)

	require.NoError(t, f.app.Clean(t.Context(), app.CleanOptions{Prune: true}))

	assert.NoFileExists(t, orphan)
	require.Len(t, infos, 2)
	assert.Equal(t, "pruned 1 unreferenced file(s)", infos[0])
	assert.True(t, strings.HasPrefix(infos[1], "cache holds 6 variant(s) of 1 source(s), "), infos[1])
}

func TestApp_Watch(t *testing.T) {
	f := newFixture(t)
	hero := f.image(t, "hero.png", 200, 100)

	events := make(chan ports.WatchEvent, 4)
	f.watcher.EXPECT().Start(gomock.Any(), ".").Return(nil)
	f.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
		for ev := range events {
			if !yield(ev) {
				return
			}
		}
	}))
	f.watcher.EXPECT().Stop().DoAndReturn(func() error {
		close(events)
		return nil
	})
	f.logger.EXPECT().Info("watching 1 path(s) for changes")

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- f.app.Watch(ctx, nil, app.BuildOptions{Prefix: "/img", Quiet: true})
	}()

	require.Eventually(t, func() bool {
		return strings.Count(f.stdout.String(), "hero.png\n") == 1
	}, 5*time.Second, 10*time.Millisecond, "initial build")

	// Replace the image with a wider one and report the change.
	require.NoError(t, imaging.Save(imaging.New(300, 150, color.White), hero))
	events <- ports.WatchEvent{Path: filepath.Join(f.dir, ".srcset", "cache", "variants", "x.png"), Operation: ports.OpCreate}
	events <- ports.WatchEvent{Path: filepath.Join(f.dir, "notes.txt"), Operation: ports.OpWrite}
	events <- ports.WatchEvent{Path: hero, Operation: ports.OpWrite}

	require.Eventually(t, func() bool {
		return strings.Count(f.stdout.String(), "hero.png\n") == 2
	}, 5*time.Second, 10*time.Millisecond, "rebuild after change")
	assert.Contains(t, f.stdout.String(), "/img/hero-200.png 200w", "the wider source is clamped to twice the viewport")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestApp_WatchStopsWatcherWhenStartFails(t *testing.T) {
	f := newFixture(t)
	f.image(t, filepath.Join("a", "hero.png"), 200, 100)
	f.image(t, filepath.Join("b", "logo.png"), 200, 100)

	errLimit := errors.New("inotify watch limit reached")
	gomock.InOrder(
		f.watcher.EXPECT().Start(gomock.Any(), "a").Return(nil),
		f.watcher.EXPECT().Start(gomock.Any(), "b").Return(errLimit),
		f.watcher.EXPECT().Stop().Return(nil),
	)

	err := f.app.Watch(t.Context(), []string{"a", "b"}, app.BuildOptions{Quiet: true})
	require.ErrorIs(t, err, errLimit)
}

func TestComponentsNode(t *testing.T) {
	t.Chdir(t.TempDir())

	c, _, err := graft.ExecuteFor[*app.Components](t.Context())
	require.NoError(t, err)
	require.NotNil(t, c.App)
	require.NotNil(t, c.Logger)
}
