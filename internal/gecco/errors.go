package gecco

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration error so callers can
// reject an invocation before any data is processed.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrDataConsistency is wrapped by errors that indicate corrupt upstream
// data. These abort the current batch and are never retried.
var ErrDataConsistency = errors.New("inconsistent data")

// UnknownModeError is returned when an extraction mode name is not one of
// single, overlap or group.
type UnknownModeError struct {
	Mode string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown feature extraction mode %q", e.Mode)
}

func (e *UnknownModeError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidConfig)...)
}

func dataErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrDataConsistency)...)
}

// ExternalToolError is a hard failure of one of the external binaries the
// pipeline orchestrates (prodigal, hmmsearch, crfsuite). The combined
// stdout/stderr of the tool is kept for the error message.
type ExternalToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("failed to execute %s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("failed to execute %s: %v: %s", e.Tool, e.Err, e.Output)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}
