package domain

import "strings"

// Format is the closed set of raster formats the pipeline understands.
type Format uint8

const (
	// FormatUnknown is the zero value and never valid for a source.
	FormatUnknown Format = iota
	// FormatJPEG is the JPEG format.
	FormatJPEG
	// FormatPNG is the PNG format.
	FormatPNG
	// FormatGIF is the GIF format.
	FormatGIF
	// FormatTIFF is the TIFF format.
	FormatTIFF
	// FormatBMP is the BMP format.
	FormatBMP
	// FormatWebP is the WebP format. Variants are encoded losslessly.
	FormatWebP
)

type formatInfo struct {
	name      string
	ext       string
	mime      string
	encodable bool
}

var formats = [...]formatInfo{
	FormatUnknown: {name: "unknown"},
	FormatJPEG:    {name: "jpeg", ext: ".jpg", mime: "image/jpeg", encodable: true},
	FormatPNG:     {name: "png", ext: ".png", mime: "image/png", encodable: true},
	FormatGIF:     {name: "gif", ext: ".gif", mime: "image/gif", encodable: true},
	FormatTIFF:    {name: "tiff", ext: ".tif", mime: "image/tiff", encodable: true},
	FormatBMP:     {name: "bmp", ext: ".bmp", mime: "image/bmp", encodable: true},
	FormatWebP:    {name: "webp", ext: ".webp", mime: "image/webp", encodable: true},
}

var extensions = map[string]Format{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
	".webp": FormatWebP,
}

// ParseFormat maps a decoder name as reported by image.DecodeConfig to a Format.
func ParseFormat(name string) Format {
	name = strings.ToLower(name)
	for f, info := range formats {
		if f != int(FormatUnknown) && info.name == name {
			return Format(f)
		}
	}
	return FormatUnknown
}

// FormatFromExtension maps a file extension (with dot) to a Format.
func FormatFromExtension(ext string) Format {
	return extensions[strings.ToLower(ext)]
}

func (f Format) info() formatInfo {
	if int(f) >= len(formats) {
		return formats[FormatUnknown]
	}
	return formats[f]
}

// String returns the decoder name of the format.
func (f Format) String() string {
	return f.info().name
}

// Ext returns the canonical file extension, including the leading dot.
func (f Format) Ext() string {
	return f.info().ext
}

// MIMEType returns the media type of the format.
func (f Format) MIMEType() string {
	return f.info().mime
}

// Encodable reports whether variants can be written in this format.
func (f Format) Encodable() bool {
	return f.info().encodable
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	*f = ParseFormat(string(text))
	return nil
}
