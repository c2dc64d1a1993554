package hook

import (
	"errors"
	"fmt"
)

// RegistrationErrorCode categorizes registration failures.
type RegistrationErrorCode string

const (
	// ErrCodeUnknownPath indicates a watch or condition path that does not
	// exist on the type's schema.
	ErrCodeUnknownPath RegistrationErrorCode = "UNKNOWN_PATH"

	// ErrCodeInvalidTrigger indicates an unknown trigger name.
	ErrCodeInvalidTrigger RegistrationErrorCode = "INVALID_TRIGGER"

	// ErrCodeMalformed indicates an inconsistent declaration, e.g. value
	// constraints without a watch path or a missing handler.
	ErrCodeMalformed RegistrationErrorCode = "MALFORMED"

	// ErrCodeFrozen indicates a registration attempted after the type's
	// table was built by a first dispatch.
	ErrCodeFrozen RegistrationErrorCode = "FROZEN"
)

// RegistrationError is a fatal declaration-time failure. It is surfaced
// immediately from Add, never deferred to dispatch.
type RegistrationError struct {
	Code     RegistrationErrorCode
	TypeName string
	Hook     string
	Path     string
	Message  string
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: hook %q on %s: %s (path %q)", e.Code, e.Hook, e.TypeName, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: hook %q on %s: %s", e.Code, e.Hook, e.TypeName, e.Message)
}

// IsRegistrationError reports whether err is (or wraps) a RegistrationError.
func IsRegistrationError(err error) bool {
	var re *RegistrationError
	return errors.As(err, &re)
}
