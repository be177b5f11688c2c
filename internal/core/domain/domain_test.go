package domain_test

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/srcset/internal/core/domain"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     domain.Config
		wantErr bool
	}{
		{name: "defaults", cfg: domain.DefaultConfig()},
		{name: "min equal to ceiling", cfg: domain.Config{MaxViewportWidth: 250, WidthMin: 500, WidthStep: 1}},
		{name: "zero viewport", cfg: domain.Config{MaxViewportWidth: 0, WidthMin: 500, WidthStep: 300}, wantErr: true},
		{name: "negative min", cfg: domain.Config{MaxViewportWidth: 1000, WidthMin: -1, WidthStep: 300}, wantErr: true},
		{name: "zero step", cfg: domain.Config{MaxViewportWidth: 1000, WidthMin: 500, WidthStep: 0}, wantErr: true},
		{name: "min above ceiling", cfg: domain.Config{MaxViewportWidth: 200, WidthMin: 500, WidthStep: 300}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    domain.Format
		ext       string
		mime      string
		encodable bool
	}{
		{name: "jpeg", format: domain.FormatJPEG, ext: ".jpg", mime: "image/jpeg", encodable: true},
		{name: "png", format: domain.FormatPNG, ext: ".png", mime: "image/png", encodable: true},
		{name: "gif", format: domain.FormatGIF, ext: ".gif", mime: "image/gif", encodable: true},
		{name: "tiff", format: domain.FormatTIFF, ext: ".tif", mime: "image/tiff", encodable: true},
		{name: "bmp", format: domain.FormatBMP, ext: ".bmp", mime: "image/bmp", encodable: true},
		{name: "webp", format: domain.FormatWebP, ext: ".webp", mime: "image/webp", encodable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.format, domain.ParseFormat(tt.name))
			assert.Equal(t, tt.name, tt.format.String())
			assert.Equal(t, tt.ext, tt.format.Ext())
			assert.Equal(t, tt.mime, tt.format.MIMEType())
			assert.Equal(t, tt.encodable, tt.format.Encodable())
			assert.Equal(t, tt.format, domain.FormatFromExtension(tt.ext))
		})
	}

	t.Run("unknown", func(t *testing.T) {
		assert.Equal(t, domain.FormatUnknown, domain.ParseFormat("svg"))
		assert.Equal(t, domain.FormatUnknown, domain.FormatFromExtension(".svg"))
		assert.False(t, domain.FormatUnknown.Encodable())
		assert.False(t, domain.Format(200).Encodable())
	})

	t.Run("extension aliases", func(t *testing.T) {
		assert.Equal(t, domain.FormatJPEG, domain.FormatFromExtension(".JPEG"))
		assert.Equal(t, domain.FormatTIFF, domain.FormatFromExtension(".tiff"))
	})

	t.Run("text round trip", func(t *testing.T) {
		text, err := domain.FormatPNG.MarshalText()
		require.NoError(t, err)

		var f domain.Format
		require.NoError(t, f.UnmarshalText(text))
		assert.Equal(t, domain.FormatPNG, f)
	})
}

func TestFingerprint(t *testing.T) {
	a := domain.NewFingerprint([]byte("image bytes"))
	b := domain.NewFingerprint([]byte("image bytes"))
	c := domain.NewFingerprint([]byte("other bytes"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a.String(), 16)
	assert.Equal(t, a.String()[:2], a.Shard())
	assert.Equal(t, "00", domain.Fingerprint("").Shard())
}

func TestScaledHeight(t *testing.T) {
	tests := []struct {
		name                   string
		srcW, srcH, width, want int
	}{
		{name: "exact", srcW: 2000, srcH: 1000, width: 500, want: 250},
		{name: "rounds half up", srcW: 4, srcH: 3, width: 2, want: 2},
		{name: "clamps to one", srcW: 3, srcH: 1, width: 1, want: 1},
		{name: "odd ratio", srcW: 1920, srcH: 1080, width: 500, want: 281},
		{name: "never zero", srcW: 5000, srcH: 1, width: 10, want: 1},
		{name: "invalid source", srcW: 0, srcH: 10, width: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ScaledHeight(tt.srcW, tt.srcH, tt.width))
		})
	}

	src := domain.SourceImage{Width: 800, Height: 600}
	assert.Equal(t, 375, src.HeightFor(500))
}

func TestVariantKey(t *testing.T) {
	key := domain.VariantKey{
		Fingerprint: domain.Fingerprint("abcdef0123456789"),
		Width:       800,
		Format:      domain.FormatPNG,
	}

	assert.Equal(t, "abcdef0123456789-800.png", key.String())
	assert.Equal(t, "variants/ab/abcdef0123456789-800.png", key.RelPath())
	assert.True(t, key.Valid())

	for name, bad := range map[string]domain.VariantKey{
		"traversal":   {Fingerprint: "../../../etc/pa", Width: 800, Format: domain.FormatPNG},
		"upper hex":   {Fingerprint: "ABCDEF0123456789", Width: 800, Format: domain.FormatPNG},
		"short":       {Fingerprint: "abcdef", Width: 800, Format: domain.FormatPNG},
		"zero width":  {Fingerprint: key.Fingerprint, Width: 0, Format: domain.FormatPNG},
		"unknown fmt": {Fingerprint: key.Fingerprint, Width: 800},
	} {
		assert.False(t, bad.Valid(), name)
	}
}

func TestResolutionPlan_Max(t *testing.T) {
	assert.Equal(t, 0, domain.ResolutionPlan(nil).Max())
	assert.Equal(t, 800, domain.ResolutionPlan{500, 800}.Max())
}

func TestCandidateSet(t *testing.T) {
	set := domain.CandidateSet{
		Source: "/docs/images/diagram.png",
		Width:  1200,
		Height: 600,
		Format: domain.FormatPNG,
		Candidates: []domain.Candidate{
			{Width: 500, Path: "diagram-500.png"},
			{Width: 800, Path: "diagram-800.png"},
			{Width: 1100, Path: "diagram-1100.png"},
			{Width: 1200, Path: "diagram.png"},
		},
	}

	t.Run("widths", func(t *testing.T) {
		assert.Equal(t, []int{500, 800, 1100, 1200}, set.Widths())
		assert.False(t, set.Degraded())
	})

	t.Run("degraded", func(t *testing.T) {
		degraded := set
		degraded.Dropped = []domain.DroppedVariant{{Width: 1400, Err: errors.New("disk full")}}
		assert.True(t, degraded.Degraded())
	})

	t.Run("degraded alternate", func(t *testing.T) {
		degraded := set
		degraded.Alternates = []domain.Alternate{{
			Format:  domain.FormatWebP,
			Dropped: []domain.DroppedVariant{{Width: 800, Err: errors.New("disk full")}},
		}}
		assert.True(t, degraded.Degraded())
	})

	t.Run("alternate srcset", func(t *testing.T) {
		alt := domain.Alternate{
			Format: domain.FormatWebP,
			Candidates: []domain.Candidate{
				{Width: 500, Path: "diagram-500.webp"},
				{Width: 1200, Path: "diagram.webp"},
			},
		}
		assert.Equal(t, "diagram-500.webp 500w, diagram.webp 1200w", alt.Srcset(nil))
	})

	t.Run("markup", func(t *testing.T) {
		prefixed := func(c domain.Candidate) string { return "/_images/" + c.Path }

		out := "srcset=\"" + set.Srcset(prefixed) + "\"\n" +
			"sizes=\"" + set.Sizes(0, 1000) + "\"\n" +
			"sizes=\"" + set.Sizes(640, 1000) + "\"\n" +
			"raw=\"" + set.Srcset(nil) + "\"\n"

		g := goldie.New(t)
		g.Assert(t, "candidate_markup", []byte(out))
	})
}

func TestSourceImage_OutputFormats(t *testing.T) {
	snippet := []domain.Chunk{{Type: domain.SnippetChunkType, Data: []byte("vi")}}

	tests := []struct {
		name       string
		src        domain.SourceImage
		alternates []domain.Format
		want       []domain.Format
	}{
		{
			name: "source format only",
			src:  domain.SourceImage{Format: domain.FormatPNG},
			want: []domain.Format{domain.FormatPNG},
		},
		{
			name:       "alternate first",
			src:        domain.SourceImage{Format: domain.FormatJPEG},
			alternates: []domain.Format{domain.FormatWebP},
			want:       []domain.Format{domain.FormatWebP, domain.FormatJPEG},
		},
		{
			name:       "alternate equal to source",
			src:        domain.SourceImage{Format: domain.FormatWebP},
			alternates: []domain.Format{domain.FormatWebP},
			want:       []domain.Format{domain.FormatWebP},
		},
		{
			name:       "duplicates and unencodable skipped",
			src:        domain.SourceImage{Format: domain.FormatPNG},
			alternates: []domain.Format{domain.FormatWebP, domain.FormatUnknown, domain.FormatWebP},
			want:       []domain.Format{domain.FormatWebP, domain.FormatPNG},
		},
		{
			name:       "snippet keeps source format",
			src:        domain.SourceImage{Format: domain.FormatPNG, Chunks: snippet},
			alternates: []domain.Format{domain.FormatWebP},
			want:       []domain.Format{domain.FormatPNG},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.src.OutputFormats(tt.alternates))
		})
	}
}
