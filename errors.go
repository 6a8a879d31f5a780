package orm

import (
	"fmt"
)

// UnknownFieldError is returned when a field name is not present in the
// model's metadata. It is raised at access time, never at prefetch time.
type UnknownFieldError struct {
	Model string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("orm: no such field %q in model %s", e.Field, e.Model)
}

// NoSuchRecordError is returned when a field access needed a row the
// server no longer has. Read omits dead ids silently; the access that
// depended on the missing row reports it.
type NoSuchRecordError struct {
	Model string
	ID    int64
}

func (e *NoSuchRecordError) Error() string {
	return fmt.Sprintf("orm: record %s(%d) does not exist", e.Model, e.ID)
}

// AmbiguousModelError is returned by Object.Model when the model registry
// does not contain exactly one match for a model name.
type AmbiguousModelError struct {
	Model   string
	Matches int
}

func (e *AmbiguousModelError) Error() string {
	return fmt.Sprintf("orm: expected exactly one ir.model record for %q, got %d", e.Model, e.Matches)
}

// ServerError is a failure reported by the remote service. Transports
// produce it; the cache/record layer propagates it unmodified.
type ServerError struct {
	Code    int
	Message string
	Data    string
}

func (e *ServerError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("orm: server error %d: %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("orm: server error %d: %s", e.Code, e.Message)
}
