package trace

import (
	"context"
	"time"
)

type (
	tracerKey struct{}
	spanKey   struct{}
	laneKey   struct{}
)

// FromContext returns the tracer stored in ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx. A nil t detaches tracing.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// CurrentSpan returns the ID of the innermost span started through ctx.
func CurrentSpan(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(spanKey{}).(uint64)
	return id
}

// WithLane tags everything traced through ctx with a worker lane. The
// chrome output draws one track per lane.
func WithLane(ctx context.Context, lane int) context.Context {
	if lane < 0 {
		lane = 0
	}
	return context.WithValue(ctx, laneKey{}, uint64(lane))
}

// Lane returns the worker lane of ctx, 0 outside a worker.
func Lane(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	lane, _ := ctx.Value(laneKey{}).(uint64)
	return lane
}

// StartSpan opens a span below the one carried by ctx and returns a context
// carrying the new span.
func StartSpan(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	span := Begin(FromContext(ctx), scope, name, CurrentSpan(ctx), Lane(ctx))
	if !span.Recording() {
		return ctx, span
	}
	return context.WithValue(ctx, spanKey{}, span.ID()), span
}

// Point emits an instant event at scope.
func Point(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: CurrentSpan(ctx),
		Lane:     Lane(ctx),
		Name:     name,
		Detail:   detail,
	})
}
