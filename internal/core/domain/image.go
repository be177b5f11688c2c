package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies file content independently of its path.
type Fingerprint string

// NewFingerprint computes the content fingerprint of data.
func NewFingerprint(data []byte) Fingerprint {
	return FingerprintFromSum(xxhash.Sum64(data))
}

// FingerprintFromSum renders a 64-bit xxhash digest as a fingerprint.
func FingerprintFromSum(sum uint64) Fingerprint {
	return Fingerprint(fmt.Sprintf("%016x", sum))
}

// String returns the fingerprint as hex.
func (f Fingerprint) String() string {
	return string(f)
}

// Shard returns the two-character directory prefix used to spread files on disk.
func (f Fingerprint) Shard() string {
	if len(f) < 2 {
		return "00"
	}
	return string(f[:2])
}

// SourceImage is a source file as observed at the start of processing.
type SourceImage struct {
	// Path is the absolute path of the file.
	Path string
	// Fingerprint is the hash of the file bytes.
	Fingerprint Fingerprint
	// ModTime is the last modification time reported by the filesystem.
	ModTime time.Time
	// Size is the file size in bytes.
	Size int64
	// Width and Height are the intrinsic pixel dimensions.
	Width  int
	Height int
	// Format is the encoded format of the file.
	Format Format
	// Chunks are private PNG chunks that every variant must keep.
	Chunks []Chunk
}

// OutputFormats returns the formats variants are produced in, by preference:
// each encodable alternate first, the source format last. A source with
// chunks to keep is produced in its own format only, since no other format
// can carry them.
func (s SourceImage) OutputFormats(alternates []Format) []Format {
	out := make([]Format, 0, len(alternates)+1)
	if len(s.Chunks) == 0 {
		for _, f := range alternates {
			if f != s.Format && f.Encodable() && !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return append(out, s.Format)
}

// HeightFor returns the height that preserves the aspect ratio at the given width.
func (s SourceImage) HeightFor(width int) int {
	return ScaledHeight(s.Width, s.Height, width)
}

// ScaledHeight returns round(width * srcHeight / srcWidth), never less than one.
func ScaledHeight(srcWidth, srcHeight, width int) int {
	if srcWidth <= 0 {
		return 0
	}
	h := (2*width*srcHeight + srcWidth) / (2 * srcWidth)
	if h < 1 {
		return 1
	}
	return h
}
