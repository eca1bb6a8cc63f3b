// Package logger provides structured logging built on logrus with
// typed field helpers and correlation ID propagation.
package logger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CorrelationIDFieldKey is the field key used for correlation ID in log entries
const CorrelationIDFieldKey = "correlation_id"

// Context key for correlation ID
type contextKey string

const correlationIDContextKey contextKey = "correlation_id"

// LogField represents a structured log field with concrete types
type LogField struct {
	Key   string
	Value string
}

// Logger interface with simplified, focused methods
type Logger interface {
	Info(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)
	Debug(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	WithFields(fields ...LogField) Logger
	WithCorrelationID(id string) Logger
	HTTPMiddleware(next http.Handler) http.Handler
}

// Config represents logger configuration
type Config struct {
	Level   Level
	Format  string
	Service string
	Output  io.Writer // Optional: defaults to os.Stdout if nil
}

// logger implements the Logger interface
type logger struct {
	logrus  *logrus.Logger
	fields  []LogField
	service string
}

// NewLogger creates a new logger instance with the given configuration
func NewLogger(config Config) Logger {
	logrusLogger := logrus.New()

	// Set formatter
	if config.Format == "text" {
		logrusLogger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logrusLogger.SetFormatter(&logrus.JSONFormatter{})
	}

	// Set output (default to stdout if not specified)
	if config.Output != nil {
		logrusLogger.SetOutput(config.Output)
	} else {
		logrusLogger.SetOutput(os.Stdout)
	}

	// Set level
	switch config.Level {
	case DebugLevel:
		logrusLogger.SetLevel(logrus.DebugLevel)
	case WarnLevel:
		logrusLogger.SetLevel(logrus.WarnLevel)
	case ErrorLevel:
		logrusLogger.SetLevel(logrus.ErrorLevel)
	default:
		logrusLogger.SetLevel(logrus.InfoLevel)
	}

	// Add service field if provided
	var serviceFields []LogField
	if config.Service != "" {
		serviceFields = []LogField{{Key: "service", Value: config.Service}}
	}

	return &logger{
		logrus:  logrusLogger,
		fields:  serviceFields,
		service: config.Service,
	}
}

// WithFields returns a new logger with additional fields (immutable)
func (l *logger) WithFields(fields ...LogField) Logger {
	newFields := make([]LogField, 0, len(l.fields)+len(fields))
	newFields = append(newFields, l.fields...)
	newFields = append(newFields, fields...)

	return &logger{
		logrus:  l.logrus,
		fields:  newFields,
		service: l.service,
	}
}

// WithCorrelationID returns a new logger with correlation ID field
func (l *logger) WithCorrelationID(id string) Logger {
	return l.WithFields(LogField{Key: CorrelationIDFieldKey, Value: id})
}

// Info logs an info message with optional fields
func (l *logger) Info(msg string, fields ...LogField) {
	l.log(logrus.InfoLevel, msg, fields...)
}

// Error logs an error message with optional fields
func (l *logger) Error(msg string, fields ...LogField) {
	l.log(logrus.ErrorLevel, msg, fields...)
}

// Debug logs a debug message with optional fields
func (l *logger) Debug(msg string, fields ...LogField) {
	l.log(logrus.DebugLevel, msg, fields...)
}

// Warn logs a warning message with optional fields
func (l *logger) Warn(msg string, fields ...LogField) {
	l.log(logrus.WarnLevel, msg, fields...)
}

// log is the internal logging method
func (l *logger) log(level logrus.Level, msg string, fields ...LogField) {
	allFields := make([]LogField, 0, len(l.fields)+len(fields))
	allFields = append(allFields, l.fields...)
	allFields = append(allFields, fields...)

	logrusFields := make(logrus.Fields, len(allFields))
	for _, field := range allFields {
		logrusFields[field.Key] = field.Value
	}

	entry := l.logrus.WithFields(logrusFields)
	switch level {
	case logrus.InfoLevel:
		entry.Info(msg)
	case logrus.ErrorLevel:
		entry.Error(msg)
	case logrus.DebugLevel:
		entry.Debug(msg)
	case logrus.WarnLevel:
		entry.Warn(msg)
	}
}

// Helper functions for common field types

// StringField returns a LogField for a string value.
func StringField(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// IntField returns a LogField for an integer value.
func IntField(key string, value int) LogField {
	return LogField{Key: key, Value: strconv.Itoa(value)}
}

// Int64Field returns a LogField for an int64 value.
func Int64Field(key string, value int64) LogField {
	return LogField{Key: key, Value: strconv.FormatInt(value, 10)}
}

// BoolField returns a LogField for a boolean value.
func BoolField(key string, value bool) LogField {
	return LogField{Key: key, Value: strconv.FormatBool(value)}
}

// Float64Field returns a LogField for a float64 value.
func Float64Field(key string, value float64) LogField {
	return LogField{Key: key, Value: strconv.FormatFloat(value, 'f', -1, 64)}
}

// DurationField returns a LogField for a time.Duration value.
func DurationField(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}

// TimeField returns a LogField for a time.Time value formatted as RFC3339.
func TimeField(key string, value time.Time) LogField {
	return LogField{Key: key, Value: value.Format(time.RFC3339)}
}

// ErrorField returns a LogField for an error value.
func ErrorField(err error) LogField {
	if err == nil {
		return LogField{Key: "error", Value: "<nil>"}
	}
	return LogField{Key: "error", Value: err.Error()}
}

// ChatIDField returns a LogField for a chat identifier.
func ChatIDField(chatID int64) LogField {
	return Int64Field("chat_id", chatID)
}

// MessageIDField returns a LogField for a transport message identifier.
func MessageIDField(messageID int) LogField {
	return IntField("message_id", messageID)
}

// CorrelationIDField returns a LogField for a correlation ID.
func CorrelationIDField(id string) LogField {
	return StringField(CorrelationIDFieldKey, id)
}

// Field creates a log field with automatic type conversion for less common types
func Field[T any](key string, value T) LogField {
	return LogField{Key: key, Value: convertValue(value)}
}

// convertValue converts various types to string representation
func convertValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case time.Duration:
		return v.String()
	case error:
		if v == nil {
			return "<nil>"
		}
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Correlation ID context helpers

// WithCorrelationIDContext adds correlation ID to context
func WithCorrelationIDContext(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey, correlationID)
}

// GetCorrelationIDFromContext retrieves correlation ID from context
func GetCorrelationIDFromContext(ctx context.Context) string {
	if correlationID, ok := ctx.Value(correlationIDContextKey).(string); ok {
		return correlationID
	}
	return ""
}

// EnsureCorrelationID ensures context has a correlation ID, generating one if needed
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if correlationID := GetCorrelationIDFromContext(ctx); correlationID != "" {
		return ctx, correlationID
	}

	correlationID := uuid.New().String()
	ctx = WithCorrelationIDContext(ctx, correlationID)
	return ctx, correlationID
}

// GetLoggerFromContext returns a logger with correlation ID from context automatically injected
func GetLoggerFromContext(ctx context.Context, baseLogger Logger) Logger {
	correlationID := GetCorrelationIDFromContext(ctx)
	if correlationID != "" {
		return baseLogger.WithCorrelationID(correlationID)
	}
	return baseLogger
}

// responseWriter wraps http.ResponseWriter to capture status code and bytes written
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMiddleware implements chi-compatible HTTP middleware for request logging
func (l *logger) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		} else if _, err := uuid.Parse(correlationID); err != nil {
			correlationID = uuid.New().String()
		}
		r = r.WithContext(WithCorrelationIDContext(r.Context(), correlationID))

		requestLogger := l.WithFields(
			StringField("client_ip", r.RemoteAddr),
			StringField("http_method", r.Method),
			StringField("http_path", r.URL.Path),
			CorrelationIDField(correlationID),
		)

		requestLogger.Info("HTTP request received")

		wrappedWriter := newResponseWriter(w)
		next.ServeHTTP(wrappedWriter, r)

		requestLogger.WithFields(
			IntField("http_status", wrappedWriter.statusCode),
			IntField("response_bytes", wrappedWriter.bytesWritten),
			DurationField("duration", time.Since(start)),
		).Info("HTTP response sent")
	})
}
