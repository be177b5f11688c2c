// Package raster decodes, resizes and encodes images with disintegration/imaging.
package raster

import (
	"bytes"
	"errors"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/zerr"
	_ "golang.org/x/image/webp" // register WebP decoder
)

var _ ports.Decoder = (*Decoder)(nil)

// Decoder reads source images into memory.
type Decoder struct{}

// NewDecoder creates a new Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads path and decodes it. The bytes must still hash to fingerprint,
// otherwise the file was edited after inspection and ErrSourceChanged is returned.
func (d *Decoder) Decode(path string, fingerprint domain.Fingerprint) (image.Image, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrSourceReadFailed, err), "path", path)
	}

	if got := domain.NewFingerprint(data); got != fingerprint {
		err := zerr.With(zerr.Wrap(domain.ErrSourceChanged, "fingerprint mismatch"), "path", path)
		return nil, zerr.With(zerr.With(err, "expected", fingerprint.String()), "actual", got.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrDecodeFailed, err), "path", path)
	}
	return img, nil
}
