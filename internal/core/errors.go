package core

import "fmt"

// ValidationError reports bad rule or configuration data at write time.
// The offending write is blocked; nothing is persisted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// StateError reports an action invoked from a disallowed state.
// The action aborts and the order is left unchanged.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// AuthorizationError reports a caller lacking a required capability.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// ConfigurationError reports missing accounting setup (receivable account,
// journal) that prevents an operation from proceeding.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// NotFoundError reports a missing entity referenced by the caller.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func stateErrorf(format string, args ...any) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

func authorizationErrorf(format string, args ...any) error {
	return &AuthorizationError{Msg: fmt.Sprintf(format, args...)}
}

func configurationErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

func notFoundErrorf(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}
