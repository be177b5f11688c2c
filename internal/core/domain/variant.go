package domain

import (
	"path"
	"strconv"
	"time"
)

// ResolutionPlan is a strictly increasing list of target widths.
type ResolutionPlan []int

// Max returns the largest planned width, or zero for an empty plan.
func (p ResolutionPlan) Max() int {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// VariantKey identifies a generated variant by content, not by path.
type VariantKey struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	Width       int         `json:"width"`
	Format      Format      `json:"format"`
}

// String returns the key in its index form: <fingerprint>-<width><ext>.
func (k VariantKey) String() string {
	return k.Fingerprint.String() + "-" + strconv.Itoa(k.Width) + k.Format.Ext()
}

// Valid reports whether the key names a variant srcset could have produced:
// a 16-digit lowercase hex fingerprint, a positive width and an encodable format.
func (k VariantKey) Valid() bool {
	if len(k.Fingerprint) != 16 || k.Width <= 0 || !k.Format.Encodable() {
		return false
	}
	for _, c := range k.Fingerprint {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// RelPath returns the slash-separated path of the variant file relative to the cache root.
func (k VariantKey) RelPath() string {
	return path.Join(VariantsDirName, k.Fingerprint.Shard(), k.String())
}

// VariantRecord describes a variant file committed to the cache.
type VariantRecord struct {
	Key       VariantKey `json:"key"`
	Path      string     `json:"path"`
	Size      int64      `json:"size"`
	CreatedAt time.Time  `json:"created_at"`
}

// SourceEntry is what the cache remembers about a source path between builds.
type SourceEntry struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	ModTime     time.Time   `json:"mod_time"`
}

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Records int
	Sources int
	Bytes   int64
}
