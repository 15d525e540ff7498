package buildopts

import (
	"context"
	"log/slog"
	"time"
)

// ResolutionStage names the step that produced a ResolutionEvent.
type ResolutionStage string

const (
	StagePackage  ResolutionStage = "package"
	StageGlobal   ResolutionStage = "global"
	StageConflict ResolutionStage = "conflict"
	StageMeson    ResolutionStage = "meson"
	StageConan    ResolutionStage = "conan"
	StageTool     ResolutionStage = "introspect"
)

// ResolutionEvent is a diagnostic line produced while resolving or formatting.
type ResolutionEvent struct {
	Stage   ResolutionStage
	Package string
	Option  string
	Value   Value
	Message string
	Err     error
}

// Logger records resolution diagnostics. Logging is advisory and never changes
// a resolved value.
type Logger interface {
	LogResolution(ResolutionEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(ResolutionEvent)

// LogResolution implements Logger.
func (f LoggerFunc) LogResolution(event ResolutionEvent) {
	if f != nil {
		f(event)
	}
}

// EvaluatorLogEvent describes a condition evaluation attempt.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Package  string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogResolution(ResolutionEvent)   {}
func (noopLogger) LogEvaluation(EvaluatorLogEvent) {}

// SlogLogger writes diagnostics through a slog.Logger. It satisfies both
// Logger and EvaluatorLogger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger; nil falls back to slog.Default at call time.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) target() *slog.Logger {
	if l == nil || l.logger == nil {
		return slog.Default()
	}
	return l.logger
}

// LogResolution implements Logger.
func (l *SlogLogger) LogResolution(event ResolutionEvent) {
	level := slog.LevelInfo
	if event.Err != nil || event.Stage == StageConflict {
		level = slog.LevelError
	}
	attrs := []slog.Attr{slog.String("stage", string(event.Stage))}
	if event.Package != "" {
		attrs = append(attrs, slog.String("package", event.Package))
	}
	if event.Option != "" {
		attrs = append(attrs, slog.String("option", event.Option))
	}
	if !event.Value.IsAbsent() {
		attrs = append(attrs, slog.String("value", event.Value.String()))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	l.target().LogAttrs(context.Background(), level, event.Message, attrs...)
}

// LogEvaluation implements EvaluatorLogger.
func (l *SlogLogger) LogEvaluation(event EvaluatorLogEvent) {
	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("engine", event.Engine),
		slog.String("expr", event.Expr),
		slog.Duration("duration", event.Duration),
	}
	if event.Package != "" {
		attrs = append(attrs, slog.String("package", event.Package))
	}
	if event.Err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	l.target().LogAttrs(context.Background(), level, "condition evaluated", attrs...)
}
