package ports

import (
	"time"

	"go.trai.ch/srcset/internal/core/domain"
)

// VariantCache is the content-addressed store of generated variants.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type VariantCache interface {
	// Root returns the absolute cache directory. Record paths are relative to it.
	Root() string

	// Lookup returns the record for key if its file is still present.
	// A record whose file is gone is removed from the index and reported as a miss.
	Lookup(key domain.VariantKey) (domain.VariantRecord, bool)

	// Store writes data as the variant for key and commits it to the index.
	// Either both the file and the index entry become visible or neither does.
	Store(key domain.VariantKey, data []byte) (domain.VariantRecord, error)

	// InvalidateStale drops records of sourcePath's previous content when its
	// fingerprint changed. It must be called before lookups for that source.
	InvalidateStale(sourcePath string, fingerprint domain.Fingerprint, modTime time.Time) error

	// Stats summarizes the index.
	Stats() domain.CacheStats

	// Prune removes variant files no record references and returns how many were removed.
	Prune() (int, error)

	// Flush persists the index.
	Flush() error

	// Close flushes the index and releases the cache.
	Close() error
}

// VariantCacheFactory opens variant caches.
type VariantCacheFactory interface {
	// Open loads or creates the cache rooted at dir.
	Open(dir string) (VariantCache, error)
}
