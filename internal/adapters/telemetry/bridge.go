package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge is a span processor that turns image spans into progress events.
// The variant counts an image span carries as attributes reach the renderer
// with its completion.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a Bridge reporting to renderer. A nil renderer drops every event.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// NewProvider returns a tracer provider that reports every span to renderer.
func NewProvider(renderer ports.Renderer) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewBridge(renderer)),
	)
}

// OnStart announces the image to the renderer.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	sc := s.SpanContext()
	if b.renderer == nil || !sc.IsValid() {
		return
	}

	var parentID string
	if p := trace.SpanContextFromContext(parent); p.IsValid() {
		parentID = p.SpanID().String()
	}
	b.renderer.OnImageStart(sc.SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd reports the image outcome and its variant counts.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	sc := s.SpanContext()
	if b.renderer == nil || !sc.IsValid() {
		return
	}
	b.renderer.OnImageComplete(sc.SpanID().String(), s.EndTime(), summarize(s.Attributes()), failure(s.Status()))
}

// summarize reads the variant counts set by the pipeline.
func summarize(attrs []attribute.KeyValue) domain.ImageSummary {
	var sum domain.ImageSummary
	for _, kv := range attrs {
		if kv.Value.Type() != attribute.INT64 {
			continue
		}
		n := int(kv.Value.AsInt64())
		switch string(kv.Key) {
		case domain.AttrHits:
			sum.Hits = n
		case domain.AttrGenerated:
			sum.Generated = n
		case domain.AttrDropped:
			sum.Dropped = n
		}
	}
	return sum
}

func failure(status sdktrace.Status) error {
	if status.Code != codes.Error {
		return nil
	}
	if status.Description == "" {
		return errors.New("image failed")
	}
	return errors.New(status.Description)
}

// ForceFlush does nothing; events are delivered synchronously.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
