package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/domain/registry"
)

// Observer opens a span around every manager build and extension hook.
type Observer struct {
	tracer trace.Tracer
}

var (
	_ registry.Observer  = (*Observer)(nil)
	_ extension.Observer = (*Observer)(nil)
)

// NewObserver creates an observer using tracer.
func NewObserver(tracer trace.Tracer) *Observer {
	return &Observer{tracer: tracer}
}

// BuildStarted implements registry.Observer.
func (o *Observer) BuildStarted(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := o.tracer.Start(ctx, SpanManagerBuild,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String(AttrManagerName, name)),
	)
	return ctx, func(err error) {
		if err == nil {
			span.AddEvent(EventBuildSuccess)
		}
		End(span, err)
	}
}

// HookStarted implements extension.Observer.
func (o *Observer) HookStarted(ctx context.Context, phase, runID, name string) (context.Context, func(error)) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrExtensionName, name),
		attribute.String(AttrHookPhase, phase),
	}
	if runID != "" {
		attrs = append(attrs, attribute.String(AttrBootRunID, runID))
	}

	ctx, span := o.tracer.Start(ctx, SpanPrefixHook+phase,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) { End(span, err) }
}

// StartResolve opens a span for resolving className against manager's chain.
func (o *Observer) StartResolve(ctx context.Context, manager, className string) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, SpanClassResolve,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrManagerName, manager),
			attribute.String(AttrClassName, className),
		),
	)
}

// AnnotateResolution records which link of the chain claimed the class.
func AnnotateResolution(span trace.Span, link int, origin string) {
	span.SetAttributes(
		attribute.Int(AttrChainLink, link),
		attribute.String(AttrChainOrigin, origin),
	)
}

// End records err (if any) on span and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorType, fmt.Sprintf("%T", err)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
