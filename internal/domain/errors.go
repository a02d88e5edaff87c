package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key (such as a slug) is already taken.
	ErrConflict = errors.New("already exists")
	// ErrEmptyGeneration means the text generator answered with no text.
	ErrEmptyGeneration = errors.New("empty response from text generator")
	// ErrMissingContent means the generated text had no usable CONTENT section.
	ErrMissingContent = errors.New("generated text has no content section")
)

// GenerationError wraps any failure of the text-generation step.
type GenerationError struct {
	Topic string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("blog generation failed: %v", e.Err)
	}
	return fmt.Sprintf("blog generation failed for %q: %v", e.Topic, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StorageError wraps a content store failure with the operation name.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// WrapStorage returns nil for a nil err and a *StorageError otherwise.
// ErrNotFound passes through wrapped so errors.Is keeps working.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// SchedulingConfigError reports an invalid cadence or timezone at construction time.
type SchedulingConfigError struct {
	Duty string
	Spec string
	Err  error
}

func (e *SchedulingConfigError) Error() string {
	if e.Duty == "" {
		return fmt.Sprintf("scheduling config: %v", e.Err)
	}
	return fmt.Sprintf("scheduling config for %s (%q): %v", e.Duty, e.Spec, e.Err)
}

func (e *SchedulingConfigError) Unwrap() error { return e.Err }
