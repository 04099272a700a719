// Package logging builds the process logger and logs bus events with it.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	eventbus "github.com/hanpama/querytrainer/internal/eventbus"
	events "github.com/hanpama/querytrainer/internal/events"
	reqid "github.com/hanpama/querytrainer/internal/reqid"
)

// New returns a logger writing to stderr. format is "json" or "text".
func New(level, format string) (*zap.Logger, error) {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch format {
	case "", "json":
		enc = zapcore.NewJSONEncoder(cfg)
	case "text":
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	default:
		return nil, fmt.Errorf("log format %q: want json or text", format)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// Attach logs HTTP, query and grade events.
func Attach(log *zap.Logger) (unsubscribe func()) {
	offs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			log.Info("http request",
				zap.String("request_id", e.RequestID),
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.String("route", e.Route),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.QueryFinish) {
			fields := append(requestFields(ctx),
				zap.String("root", e.Root),
				zap.Int("rows", e.Rows),
				zap.Duration("duration", e.Duration),
			)
			if e.ErrorCode != "" {
				log.Debug("query rejected", append(fields, zap.String("code", e.ErrorCode))...)
				return
			}
			log.Debug("query answered", fields...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GradeFinish) {
			fields := append(requestFields(ctx),
				zap.Int("task", e.TaskID),
				zap.String("state", e.State),
				zap.Duration("duration", e.Duration),
			)
			if e.Learner != "" {
				fields = append(fields, zap.String("learner", e.Learner))
			}
			if e.ErrorCode != "" {
				fields = append(fields, zap.String("code", e.ErrorCode))
			}
			if e.NewlySolved {
				log.Info("task solved", fields...)
				return
			}
			log.Debug("submission graded", fields...)
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func requestFields(ctx context.Context) []zap.Field {
	if rid, ok := reqid.FromContext(ctx); ok {
		return []zap.Field{zap.String("request_id", rid)}
	}
	return nil
}
