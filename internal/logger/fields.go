package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldComponent names the subsystem that wrote the entry.
	FieldComponent = "component"
	// FieldRequestID carries the X-Request-ID of an HTTP request.
	FieldRequestID = "request_id"
	// FieldRemoteAddr carries the client address of an HTTP request.
	FieldRemoteAddr = "remote_addr"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithComponent tags every entry of logger with the component name.
func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldComponent, Value: component})...)
}

// RequestFields returns the fields identifying one HTTP request. Empty values
// are ignored.
func RequestFields(requestID, remoteAddr string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRequestID, Value: requestID},
		StringField{Key: FieldRemoteAddr, Value: remoteAddr},
	)
}
