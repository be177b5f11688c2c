package domain

import (
	"strconv"
	"strings"
)

// Candidate is one entry of a candidate set.
type Candidate struct {
	Width int    `json:"width"`
	Path  string `json:"path"`
}

// DroppedVariant is a planned width that could not be produced.
type DroppedVariant struct {
	Width int
	Err   error
}

// CandidateSet lists the available variants of one source image, ascending by width.
type CandidateSet struct {
	Source      string      `json:"source"`
	Fingerprint Fingerprint `json:"fingerprint"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Format      Format      `json:"format"`
	Candidates  []Candidate `json:"candidates"`

	// Alternates are renditions in other formats, in order of preference.
	Alternates []Alternate `json:"alternates,omitempty"`

	// Dropped lists widths omitted because their generation failed.
	Dropped []DroppedVariant `json:"-"`
}

// Alternate is the source rendered in another format, offered to browsers
// ahead of the source format as a <source type="..."> element.
type Alternate struct {
	Format     Format      `json:"format"`
	Candidates []Candidate `json:"candidates"`

	Dropped []DroppedVariant `json:"-"`
}

// Srcset renders the width-descriptor list of the alternate.
func (a Alternate) Srcset(urlFor func(Candidate) string) string {
	return srcset(a.Candidates, urlFor)
}

// Widths returns the candidate widths in order.
func (c CandidateSet) Widths() []int {
	widths := make([]int, len(c.Candidates))
	for i, cand := range c.Candidates {
		widths[i] = cand.Width
	}
	return widths
}

// Degraded reports whether some planned widths are missing, in any format.
func (c CandidateSet) Degraded() bool {
	if len(c.Dropped) > 0 {
		return true
	}
	for _, a := range c.Alternates {
		if len(a.Dropped) > 0 {
			return true
		}
	}
	return false
}

// Srcset renders the width-descriptor list, e.g. "a-500.png 500w, a.png 800w".
// urlFor maps each candidate to the URL a browser should fetch.
func (c CandidateSet) Srcset(urlFor func(Candidate) string) string {
	return srcset(c.Candidates, urlFor)
}

func srcset(candidates []Candidate, urlFor func(Candidate) string) string {
	if urlFor == nil {
		urlFor = func(cand Candidate) string { return cand.Path }
	}
	parts := make([]string, len(candidates))
	for i, cand := range candidates {
		parts[i] = urlFor(cand) + " " + strconv.Itoa(cand.Width) + "w"
	}
	return strings.Join(parts, ", ")
}

// Sizes renders the sizes attribute. displayWidth is the width the document
// asks the image to be shown at, or zero when unconstrained.
func (c CandidateSet) Sizes(displayWidth, maxViewportWidth int) string {
	if displayWidth > 0 {
		return "min(" + strconv.Itoa(displayWidth) + "px, 100vw)"
	}
	return "min(min(" + strconv.Itoa(c.Width) + "px, 100vw), " + strconv.Itoa(maxViewportWidth) + "px)"
}
