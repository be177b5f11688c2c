package ports

import (
	"image"

	"go.trai.ch/srcset/internal/core/domain"
)

// Decoder decodes source images into pixel data.
//
//go:generate mockgen -source=raster.go -destination=mocks/mock_raster.go -package=mocks
type Decoder interface {
	// Decode reads and decodes the file at path.
	// It fails with domain.ErrSourceChanged if the file no longer matches fingerprint.
	Decode(path string, fingerprint domain.Fingerprint) (image.Image, error)
}

// Resizer produces encoded variants of a decoded image.
// Implementations must be safe for concurrent use.
type Resizer interface {
	// Resize scales img to width, preserving its aspect ratio, and encodes it in format.
	// Chunks are written into the output and are only accepted for PNG.
	Resize(img image.Image, format domain.Format, width int, chunks ...domain.Chunk) ([]byte, error)
}
