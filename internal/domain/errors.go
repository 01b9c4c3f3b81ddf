package domain

import (
	"errors"
	"fmt"
)

// DataError reports missing or unusable input data: unresolvable columns,
// an empty corpus, labels outside the binary domain.
type DataError struct {
	Msg string
	Err error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return "data error: " + e.Msg + ": " + e.Err.Error()
	}
	return "data error: " + e.Msg
}

func (e *DataError) Unwrap() error { return e.Err }

// NewDataError builds a DataError wrapping cause (which may be nil)
func NewDataError(cause error, format string, args ...any) error {
	return &DataError{Msg: fmt.Sprintf(format, args...), Err: cause}
}

// StateError reports an operation invoked outside its required pipeline stage
type StateError struct {
	Op       string
	Current  string
	Required string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error: %s requires stage %s, pipeline is %s", e.Op, e.Required, e.Current)
}

// ConfigError reports a configuration that cannot produce a usable model,
// e.g. an empty effective vocabulary.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Msg
}

// NewConfigError builds a ConfigError
func NewConfigError(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// IsDataError reports whether err wraps a DataError
func IsDataError(err error) bool {
	var target *DataError
	return errors.As(err, &target)
}

// IsStateError reports whether err wraps a StateError
func IsStateError(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

// IsConfigError reports whether err wraps a ConfigError
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}
