// Package linear provides a line-buffered progress renderer for terminals and CI logs.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/srcset/internal/ui/output"
	"go.trai.ch/srcset/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer by printing chronological, image-prefixed lines.
type Renderer struct {
	w      io.Writer
	output *termenv.Output

	mu        sync.Mutex
	images    map[string]*imageState
	completed int
	failed    int
	totals    domain.ImageSummary
}

type imageState struct {
	name      string
	startTime time.Time
	buf       bytes.Buffer
}

// NewRenderer creates a Renderer writing to w. A nil w means stderr.
func NewRenderer(w io.Writer) *Renderer {
	if w == nil {
		w = os.Stderr
	}

	return &Renderer{
		w:      w,
		output: output.NewWithProfile(w, output.ColorProfileANSI),
		images: make(map[string]*imageState),
	}
}

// Start is a no-op; the renderer prints synchronously.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes partial lines and prints a summary.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, img := range r.images {
		r.flushLocked(img)
	}

	if r.completed == 0 && r.failed == 0 {
		return nil
	}

	summary := fmt.Sprintf("Processed %d image(s)", r.completed+r.failed)
	if !r.totals.IsZero() {
		summary += " (" + r.totals.String() + ")"
	}
	if r.failed > 0 {
		summary += fmt.Sprintf(", %d failed", r.failed)
	}
	_, _ = fmt.Fprintln(r.w, summary)
	return nil
}

// Wait is a no-op; the renderer prints synchronously.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints how many images are about to be processed.
func (r *Renderer) OnPlanEmit(images []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.w, "Processing %d image(s)\n", len(images))
}

// OnImageStart records the image and prints a start line.
func (r *Renderer) OnImageStart(spanID, _, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.images[spanID] = &imageState{name: name, startTime: startTime}

	_, _ = fmt.Fprintf(r.w, "%s Starting...\n", r.prefix(name))
}

// OnImageLog buffers data and prints each complete line with the image prefix.
func (r *Renderer) OnImageLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, ok := r.images[spanID]
	if !ok {
		return
	}

	img.buf.Write(data)
	for {
		idx := bytes.IndexByte(img.buf.Bytes(), '\n')
		if idx < 0 {
			return
		}
		line := img.buf.Next(idx + 1)
		r.printLineLocked(img.name, line)
	}
}

// OnImageComplete flushes the image's output and prints its outcome with its variant counts.
func (r *Renderer) OnImageComplete(spanID string, endTime time.Time, summary domain.ImageSummary, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, ok := r.images[spanID]
	if !ok {
		return
	}
	delete(r.images, spanID)

	r.flushLocked(img)

	duration := endTime.Sub(img.startTime).Round(time.Millisecond)
	if err != nil {
		r.failed++
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.w, "%s %s Failed after %v: %v\n", r.prefix(img.name), symbol, duration, err)
		return
	}

	r.completed++
	r.totals = r.totals.Add(summary)
	symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
	line := fmt.Sprintf("%s %s Completed in %v", r.prefix(img.name), symbol, duration)
	if !summary.IsZero() {
		line += " " + r.output.String("("+summary.String()+")").Faint().String()
	}
	_, _ = fmt.Fprintln(r.w, line)
}

func (r *Renderer) prefix(name string) string {
	return r.output.String("[" + name + "]").Faint().String()
}

// flushLocked prints a pending partial line. r.mu must be held.
func (r *Renderer) flushLocked(img *imageState) {
	if img.buf.Len() > 0 {
		r.printLineLocked(img.name, img.buf.Bytes())
		img.buf.Reset()
	}
}

// printLineLocked prints one line with the image prefix. r.mu must be held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}

	_, _ = fmt.Fprintf(r.w, "%s %s\n", r.prefix(name), line)
}
