package app

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/zerr"
)

// publisher names variants after their source and copies them into an output directory.
type publisher struct {
	cwd string
	out string
}

func newPublisher(cwd, out string) *publisher {
	if out != "" && !filepath.IsAbs(out) {
		out = filepath.Join(cwd, out)
	}
	return &publisher{cwd: cwd, out: out}
}

// relPath returns the slash-separated published path of c in format: the
// source's directory relative to cwd, then <stem>-<width><ext>, or <stem><ext>
// for the intrinsic-width variant. The source's own extension is kept for its
// own format. Sources outside cwd are flattened.
func (p *publisher) relPath(set domain.CandidateSet, format domain.Format, c domain.Candidate) string {
	srcExt := filepath.Ext(set.Source)
	stem := strings.TrimSuffix(filepath.Base(set.Source), srcExt)
	ext := srcExt
	if format != set.Format {
		ext = format.Ext()
	}

	name := stem + ext
	if c.Width != set.Width {
		name = stem + "-" + strconv.Itoa(c.Width) + ext
	}

	dir := filepath.Dir(set.Source)
	rel := "."
	if within(dir, p.cwd) {
		rel, _ = filepath.Rel(p.cwd, dir)
	}
	return filepath.ToSlash(filepath.Join(rel, name))
}

// publish copies every candidate of set, alternates included, into the
// output directory. A destination that is the source file itself is left untouched.
func (p *publisher) publish(set domain.CandidateSet) error {
	if err := p.publishAll(set, set.Format, set.Candidates); err != nil {
		return err
	}
	for _, alt := range set.Alternates {
		if err := p.publishAll(set, alt.Format, alt.Candidates); err != nil {
			return err
		}
	}
	return nil
}

func (p *publisher) publishAll(set domain.CandidateSet, format domain.Format, candidates []domain.Candidate) error {
	for _, c := range candidates {
		dest := filepath.Join(p.out, filepath.FromSlash(p.relPath(set, format, c)))
		if dest == set.Source {
			continue
		}
		if err := copyAtomic(c.Path, dest); err != nil {
			return zerr.With(zerr.With(err, "path", dest), "width", c.Width)
		}
	}
	return nil
}

// copyAtomic copies src to dest through a temp file in dest's directory.
func copyAtomic(src, dest string) (err error) {
	fail := func(err error) error {
		return errors.Join(domain.ErrPublishFailed, err)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return fail(err)
	}

	in, err := os.Open(src) //nolint:gosec // src is a cache path
	if err != nil {
		return fail(err)
	}
	defer func() {
		_ = in.Close()
	}()

	tmp, err := os.CreateTemp(dir, domain.TempPattern)
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fail(err)
	}
	return nil
}
