package raster

import (
	"bytes"
	"errors"
	"image"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/zerr"
)

// JPEGQuality is the quality used for every JPEG variant.
const JPEGQuality = 80

var _ ports.Resizer = (*Resizer)(nil)

// Resizer scales images with a Lanczos filter and encodes them in the requested format.
// It holds no state and is safe for concurrent use.
type Resizer struct{}

// NewResizer creates a new Resizer.
func NewResizer() *Resizer {
	return &Resizer{}
}

// Resize scales img to width, keeping its aspect ratio, and encodes it as format.
// A width equal to the source width re-encodes without resampling.
// Widths above the source width are rejected.
// Chunks are inserted before IEND and are rejected for any format but PNG.
func (r *Resizer) Resize(img image.Image, format domain.Format, width int, chunks ...domain.Chunk) ([]byte, error) {
	if !format.Encodable() {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "format cannot be encoded"), "format", format.String())
	}
	if len(chunks) > 0 && format != domain.FormatPNG {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "chunks can only be kept in png"), "format", format.String())
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if width <= 0 || width > srcW || srcH <= 0 {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidDimensions, "width out of range"), "width", width)
		return nil, zerr.With(err, "source_width", srcW)
	}

	out := img
	if width != srcW {
		out = imaging.Resize(img, width, domain.ScaledHeight(srcW, srcH, width), imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := encode(&buf, out, format); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrEncodeFailed, err), "format", format.String())
	}
	if len(chunks) == 0 {
		return buf.Bytes(), nil
	}
	data, err := insertChunks(buf.Bytes(), chunks)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrEncodeFailed, err), "format", format.String())
	}
	return data, nil
}

func encode(buf *bytes.Buffer, img image.Image, format domain.Format) error {
	if format == domain.FormatWebP {
		// nativewebp only writes lossless VP8L.
		return nativewebp.Encode(buf, img, nil)
	}
	target, opts, ok := encoding(format)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "no encoder"), "format", format.String())
	}
	return imaging.Encode(buf, img, target, opts...)
}

// encoding maps a format to its imaging encoder and options.
func encoding(format domain.Format) (imaging.Format, []imaging.EncodeOption, bool) {
	switch format {
	case domain.FormatJPEG:
		return imaging.JPEG, []imaging.EncodeOption{imaging.JPEGQuality(JPEGQuality)}, true
	case domain.FormatPNG:
		return imaging.PNG, []imaging.EncodeOption{imaging.PNGCompressionLevel(png.BestCompression)}, true
	case domain.FormatGIF:
		return imaging.GIF, nil, true
	case domain.FormatTIFF:
		return imaging.TIFF, nil, true
	case domain.FormatBMP:
		return imaging.BMP, nil, true
	default:
		return 0, nil, false
	}
}
