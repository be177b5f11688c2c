package fs

import (
	"bufio"
	"errors"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/zerr"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

var _ ports.SourceInspector = (*Inspector)(nil)

// Inspector fingerprints source images and reads their headers.
// Every call hashes the whole file: size and modification time are not
// trusted as a proxy for content.
type Inspector struct{}

// NewInspector creates a new Inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect hashes the file at path and decodes its header. Pixel data is not decoded.
func (i *Inspector) Inspect(path string) (domain.SourceImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.SourceImage{}, zerr.With(errors.Join(domain.ErrSourceReadFailed, err), "path", path)
	}

	img, err := inspectFile(path)
	if err != nil {
		return domain.SourceImage{}, err
	}
	img.ModTime = info.ModTime()
	return img, nil
}

// inspectFile reads the file once, feeding every byte to the hash and the
// chunk scanner while the image header is parsed from the same stream.
func inspectFile(path string) (domain.SourceImage, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return domain.SourceImage{}, zerr.With(errors.Join(domain.ErrSourceReadFailed, err), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	counter := &countingWriter{}
	scanner := &chunkScanner{}
	sink := io.MultiWriter(hasher, counter, scanner)
	tee := io.TeeReader(f, sink)

	cfg, name, decodeErr := image.DecodeConfig(bufio.NewReader(tee))

	if _, err := io.Copy(sink, f); err != nil {
		return domain.SourceImage{}, zerr.With(errors.Join(domain.ErrSourceReadFailed, err), "path", path)
	}

	if decodeErr != nil {
		return domain.SourceImage{}, zerr.With(errors.Join(domain.ErrDecodeFailed, decodeErr), "path", path)
	}

	format := domain.ParseFormat(name)
	if format == domain.FormatUnknown {
		err := zerr.Wrap(domain.ErrUnsupportedFormat, "no matching format")
		return domain.SourceImage{}, zerr.With(zerr.With(err, "path", path), "format", name)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidDimensions, "image has no pixels"), "path", path)
		return domain.SourceImage{}, zerr.With(zerr.With(err, "width", cfg.Width), "height", cfg.Height)
	}

	return domain.SourceImage{
		Path:        path,
		Fingerprint: domain.FingerprintFromSum(hasher.Sum64()),
		Size:        counter.n,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      format,
		Chunks:      scanner.chunks,
	}, nil
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
