package errors

import (
	"errors"
	"fmt"
)

// Common error types for the market client
var (
	// Session errors
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrSessionInitializing = errors.New("session is initializing")
	ErrForbidden           = errors.New("insufficient role")

	// Credential errors
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialExpired  = errors.New("credential expired")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrEncodeBody     = errors.New("encode request body")
	ErrNotJSON        = errors.New("response is not json")

	// Config errors
	ErrInvalidConfig = errors.New("invalid config")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Invalidf returns an ErrInvalidRequest carrying a reason
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidRequest}, args...)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
