package domain

import "fmt"

// Span attribute keys set on every processed image.
const (
	AttrPath      = "srcset.path"
	AttrHits      = "srcset.hits"
	AttrGenerated = "srcset.generated"
	AttrDropped   = "srcset.dropped"
)

// ImageSummary counts what happened to the variants of one image, or of a whole build.
type ImageSummary struct {
	// Hits are variants served from the cache.
	Hits int
	// Generated are variants encoded and stored in this run.
	Generated int
	// Dropped are planned variants that could not be produced.
	Dropped int
}

// Add returns the sum of s and o.
func (s ImageSummary) Add(o ImageSummary) ImageSummary {
	return ImageSummary{Hits: s.Hits + o.Hits, Generated: s.Generated + o.Generated, Dropped: s.Dropped + o.Dropped}
}

// IsZero reports whether nothing was counted.
func (s ImageSummary) IsZero() bool {
	return s == ImageSummary{}
}

// String renders the counts, e.g. "3 cached, 2 generated, 1 dropped".
// Dropped is omitted when zero.
func (s ImageSummary) String() string {
	out := fmt.Sprintf("%d cached, %d generated", s.Hits, s.Generated)
	if s.Dropped > 0 {
		out += fmt.Sprintf(", %d dropped", s.Dropped)
	}
	return out
}
