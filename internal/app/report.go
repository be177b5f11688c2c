package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/engine/pipeline"
)

// report is the build output, printed as markup lines or as a JSON manifest.
type report struct {
	Images []imageReport   `json:"images"`
	Failed []failureReport `json:"failed,omitempty"`
}

type imageReport struct {
	Source      string             `json:"source"`
	Fingerprint domain.Fingerprint `json:"fingerprint"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Format      domain.Format      `json:"format"`
	Srcset      string             `json:"srcset"`
	Sizes       string             `json:"sizes"`
	Candidates  []candidateReport  `json:"candidates"`
	Alternates  []alternateReport  `json:"alternates,omitempty"`
	Dropped     []failureReport    `json:"dropped,omitempty"`
}

// alternateReport is a <source> element offered ahead of the image itself.
type alternateReport struct {
	Format     domain.Format     `json:"format"`
	Type       string            `json:"type"`
	Srcset     string            `json:"srcset"`
	Candidates []candidateReport `json:"candidates"`
}

type candidateReport struct {
	Width int    `json:"width"`
	Path  string `json:"path"`
	URL   string `json:"url"`
}

type failureReport struct {
	Source string `json:"source,omitempty"`
	Width  int    `json:"width,omitempty"`
	Error  string `json:"error"`
}

func newReport(s *session, results []pipeline.Result, opts BuildOptions, pub *publisher) *report {
	urlFor := func(set domain.CandidateSet, format domain.Format, c domain.Candidate) string {
		if opts.Out == "" && opts.Prefix == "" {
			return c.Path
		}
		return joinURL(opts.Prefix, pub.relPath(set, format, c))
	}

	rep := &report{Images: []imageReport{}}
	for _, res := range results {
		source := relativeTo(s.cwd, res.Path)
		if res.Err != nil {
			rep.Failed = append(rep.Failed, failureReport{Source: source, Error: res.Err.Error()})
			continue
		}

		set := res.Set
		img := imageReport{
			Source:      source,
			Fingerprint: set.Fingerprint,
			Width:       set.Width,
			Height:      set.Height,
			Format:      set.Format,
			Srcset:      set.Srcset(func(c domain.Candidate) string { return urlFor(set, set.Format, c) }),
			Sizes:       set.Sizes(opts.DisplayWidth, s.settings.MaxViewportWidth),
			Candidates:  make([]candidateReport, len(set.Candidates)),
		}
		for i, c := range set.Candidates {
			img.Candidates[i] = candidateReport{Width: c.Width, Path: c.Path, URL: urlFor(set, set.Format, c)}
		}
		for _, alt := range set.Alternates {
			if len(alt.Candidates) == 0 {
				continue
			}
			ar := alternateReport{
				Format:     alt.Format,
				Type:       alt.Format.MIMEType(),
				Srcset:     alt.Srcset(func(c domain.Candidate) string { return urlFor(set, alt.Format, c) }),
				Candidates: make([]candidateReport, len(alt.Candidates)),
			}
			for i, c := range alt.Candidates {
				ar.Candidates[i] = candidateReport{Width: c.Width, Path: c.Path, URL: urlFor(set, alt.Format, c)}
			}
			img.Alternates = append(img.Alternates, ar)
		}
		for _, d := range set.Dropped {
			img.Dropped = append(img.Dropped, failureReport{Width: d.Width, Error: d.Err.Error()})
		}
		rep.Images = append(rep.Images, img)
	}
	return rep
}

func (r *report) write(w io.Writer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	for _, img := range r.Images {
		if _, err := fmt.Fprintf(w, "%s\n", img.Source); err != nil {
			return err
		}
		for _, alt := range img.Alternates {
			if _, err := fmt.Fprintf(w, "  source type=%q srcset=%q\n", alt.Type, alt.Srcset); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "  srcset=%q\n  sizes=%q\n", img.Srcset, img.Sizes); err != nil {
			return err
		}
	}
	return nil
}

func joinURL(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return strings.TrimSuffix(prefix, "/") + "/" + rel
}
