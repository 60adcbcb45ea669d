package models

import "fmt"

// ConfigurationError means the engine cannot start, typically because
// provider credentials are missing. Fatal at startup.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// UnsupportedFormatError is returned when an upload declares a source type
// no extraction strategy handles. Non-fatal; the index is never touched.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Extension)
}

// NotFoundError is returned by update/delete when no chunks exist for the
// given logical document id.
type NotFoundError struct {
	DocumentID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.DocumentID)
}

// StorageError wraps index read/write failures, including embedding
// provider errors raised while persisting.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// GenerationError wraps a model-invocation failure. Chat and entity paths
// convert it into an in-band apologetic answer; callers observe it only
// through the result status.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
