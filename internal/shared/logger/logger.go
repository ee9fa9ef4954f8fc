package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"afi-portal/internal/shared/contextkeys"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logFormatJSON = "json"

	envProduction = "production"
	envProd       = "prod"

	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
	textTimestamp   = "2006-01-02 15:04:05"
)

// Logger defines the interface for structured logging operations.
//
// The unformatted methods accept zap.Field values mixed with plain arguments:
// fields become structured logrus fields, everything else forms the message.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithComponent(component string) Logger
}

// LogrusLogger implements the Logger interface using logrus
type LogrusLogger struct {
	entry *logrus.Entry
}

var _ Logger = (*LogrusLogger)(nil)

// NewLogger creates a logger configured from LOG_LEVEL, LOG_FORMAT and ENVIRONMENT.
func NewLogger() Logger {
	return NewLoggerWithConfig(os.Getenv("LOG_LEVEL"), resolveFormat(os.Getenv("LOG_FORMAT"), os.Getenv("ENVIRONMENT")))
}

// NewLoggerWithConfig creates a logger with an explicit level and format.
func NewLoggerWithConfig(level string, format string) Logger {
	return NewLoggerWithWriter(level, format, os.Stdout)
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(level, format string, w io.Writer) Logger {
	l := logrus.New()
	l.SetLevel(parseLevel(level))
	l.SetFormatter(formatterFor(format))
	l.SetOutput(w)
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

func (l *LogrusLogger) Debug(args ...interface{}) { l.log(logrus.DebugLevel, args) }
func (l *LogrusLogger) Info(args ...interface{})  { l.log(logrus.InfoLevel, args) }
func (l *LogrusLogger) Warn(args ...interface{})  { l.log(logrus.WarnLevel, args) }
func (l *LogrusLogger) Error(args ...interface{}) { l.log(logrus.ErrorLevel, args) }

// Fatal logs a fatal message and exits
func (l *LogrusLogger) Fatal(args ...interface{}) {
	entry, rest := l.split(args)
	entry.Fatal(rest...)
}

func (l *LogrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *LogrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *LogrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *LogrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *LogrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

// WithFields adds structured fields to the logger
func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithContext copies the portal request identifiers found in ctx into fields.
func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	fields := logrus.Fields{}
	addContextField(ctx, contextkeys.ClientIDKey, "client_id", fields)
	addContextField(ctx, contextkeys.UserEmailKey, "user_email", fields)
	addContextField(ctx, contextkeys.RoleKey, "role", fields)
	addContextField(ctx, contextkeys.RequestIDKey, "request_id", fields)
	return &LogrusLogger{entry: l.entry.WithFields(fields)}
}

// WithComponent adds component name to the logger
func (l *LogrusLogger) WithComponent(component string) Logger {
	return &LogrusLogger{entry: l.entry.WithField("component", component)}
}

func (l *LogrusLogger) log(level logrus.Level, args []interface{}) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}
	entry, rest := l.split(args)
	entry.Log(level, rest...)
}

// split separates zap fields from message arguments.
func (l *LogrusLogger) split(args []interface{}) (*logrus.Entry, []interface{}) {
	var enc *zapcore.MapObjectEncoder
	rest := args[:0:0]
	for _, a := range args {
		f, ok := a.(zap.Field)
		if !ok {
			rest = append(rest, a)
			continue
		}
		if enc == nil {
			enc = zapcore.NewMapObjectEncoder()
		}
		f.AddTo(enc)
	}
	if enc == nil {
		return l.entry, rest
	}
	return l.entry.WithFields(logrus.Fields(enc.Fields)), rest
}

func addContextField(ctx context.Context, key interface{}, fieldName string, fields logrus.Fields) {
	if ctx == nil {
		return
	}
	if val, ok := ctx.Value(key).(string); ok && val != "" {
		fields[fieldName] = val
	}
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func resolveFormat(format, env string) string {
	if format != "" {
		return format
	}
	if env == envProduction || env == envProd {
		return logFormatJSON
	}
	return "text"
}

func formatterFor(format string) logrus.Formatter {
	if format == logFormatJSON {
		return &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: textTimestamp,
	}
}

// Global logger instance
var defaultLogger Logger = NewLogger()

// SetDefault replaces the package-level logger.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the package-level logger.
func Default() Logger { return defaultLogger }

// Package-level convenience functions

func Debug(args ...interface{}) { defaultLogger.Debug(args...) }
func Info(args ...interface{})  { defaultLogger.Info(args...) }
func Warn(args ...interface{})  { defaultLogger.Warn(args...) }
func Error(args ...interface{}) { defaultLogger.Error(args...) }
func Fatal(args ...interface{}) { defaultLogger.Fatal(args...) }

func Infof(format string, args ...interface{})  { defaultLogger.Infof(format, args...) }
func Errorf(format string, args ...interface{}) { defaultLogger.Errorf(format, args...) }

// WithContext creates a logger with context information
func WithContext(ctx context.Context) Logger { return defaultLogger.WithContext(ctx) }

// WithComponent creates a logger with component information
func WithComponent(component string) Logger { return defaultLogger.WithComponent(component) }

// Nop returns a logger that discards everything, for tests.
func Nop() Logger {
	return NewLoggerWithWriter("error", "text", io.Discard)
}

// String renders a logger level for diagnostics.
func (l *LogrusLogger) String() string {
	return fmt.Sprintf("logrus(%s)", l.entry.Logger.GetLevel())
}
