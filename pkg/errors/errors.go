// Package errors provides the typed, wrapped error vocabulary used across
// gbdt. All constructors produce errors compatible with errors.Is/errors.As.
// The re-exported New/Wrap/Wrapf come from github.com/cockroachdb/errors and
// carry a stack trace on %+v; the typed constructors (NewConfigError,
// NewIOError, NewNetworkError, NewInvariantError, NewModelError) return
// plain structs that capture no stack trace.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Re-exported so callers don't need a second import for the common cases.
var (
	New   = errors.New
	Wrap  = errors.Wrap
	Wrapf = errors.Wrapf
	Is    = errors.Is
	As    = errors.As
)

// Sentinel errors usable with errors.Is.
var (
	ErrNotImplemented = errors.New("not implemented")
	ErrEmptyData      = errors.New("empty data")
)

// ModelError wraps an underlying cause with operation context.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

func NewModelError(op, message string, err error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: err}
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("gbdt: %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ConfigError reports a bad configuration value, fatal at construction time.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func NewConfigError(field string, value interface{}, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("gbdt: config: field %q = %v: %s", e.Field, e.Value, e.Reason)
}

// IOError reports a failure reading or writing a persisted artifact.
type IOError struct {
	Step   string
	Reason string
	Err    error
}

func NewIOError(step, reason string, err error) *IOError {
	return &IOError{Step: step, Reason: reason, Err: err}
}

func (e *IOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gbdt: io: %s: %s: %v", e.Step, e.Reason, e.Err)
	}
	return fmt.Sprintf("gbdt: io: %s: %s", e.Step, e.Reason)
}

func (e *IOError) Unwrap() error { return e.Err }

// NetworkError reports an unreachable peer rank in the distributed topology.
type NetworkError struct {
	Rank   int
	Reason string
	Err    error
}

func NewNetworkError(rank int, reason string, err error) *NetworkError {
	return &NetworkError{Rank: rank, Reason: reason, Err: err}
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gbdt: network: rank %d: %s", e.Rank, e.Reason)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InvariantError reports a structural invariant violation (a programmer
// error or corrupt state), always fatal.
type InvariantError struct {
	Where  string
	Reason string
}

func NewInvariantError(where, reason string) *InvariantError {
	return &InvariantError{Where: where, Reason: reason}
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("gbdt: invariant violated in %s: %s", e.Where, e.Reason)
}
