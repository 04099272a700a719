package otel

import (
	"context"
	"sync"
	"time"

	eventbus "github.com/hanpama/querytrainer/internal/eventbus"
	events "github.com/hanpama/querytrainer/internal/events"
	reqid "github.com/hanpama/querytrainer/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Attach(otel.Tracer("querytrainer"))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Attach turns bus events into spans of tracer. Query spans nest under the
// HTTP span of the same request.
func Attach(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register()
}

type subscriber struct {
	tracer     trace.Tracer
	httpSpans  sync.Map // rid -> trace.Span
	querySpans sync.Map // rid -> trace.Span
}

func (s *subscriber) parent(ctx context.Context, rid string) context.Context {
	if v, ok := s.httpSpans.Load(rid); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}

func (s *subscriber) register() func() {
	offs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) {
			_, span := s.tracer.Start(ctx, "http.request")
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				attribute.String("http.target", e.Request.URL.Path),
				attribute.String("http.request_id", e.RequestID),
			)
			s.httpSpans.Store(e.RequestID, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			v, ok := s.httpSpans.LoadAndDelete(e.RequestID)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				semconv.HTTPStatusCodeKey.Int(e.Status),
				semconv.HTTPRouteKey.String(e.Route),
			)
			if e.Status >= 500 {
				span.SetStatus(codes.Error, "server error")
			}
			span.End()
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.QueryStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx, rid), "trainer.query")
			span.SetAttributes(attribute.String("trainer.root", e.Root))
			s.querySpans.Store(rid, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.QueryFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.querySpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.String("trainer.root", e.Root),
				attribute.Int("trainer.rows", e.Rows),
			)
			if e.ErrorCode != "" {
				span.SetAttributes(attribute.String("trainer.error_code", e.ErrorCode))
			}
			span.End()
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GradeFinish) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx, rid), "trainer.grade",
				trace.WithTimestamp(time.Now().Add(-e.Duration)))
			span.SetAttributes(
				attribute.Int("trainer.task_id", e.TaskID),
				attribute.String("trainer.state", e.State),
				attribute.Bool("trainer.newly_solved", e.NewlySolved),
			)
			span.End()
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
