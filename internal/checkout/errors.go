package checkout

import (
	"errors"
	"fmt"
)

// ValidationKind names why a payment request could not be built.
type ValidationKind string

const (
	MissingAmount ValidationKind = "MISSING_AMOUNT"
	MissingMedium ValidationKind = "MISSING_MEDIUM"
	InvalidPhone  ValidationKind = "INVALID_PHONE"
)

// ValidationError blocks a submission before anything reaches the network.
type ValidationError struct {
	Kind  ValidationKind
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Kind)
}

// AsValidation unwraps a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ErrMissingTarget is returned when a flow is created without a reference id.
var ErrMissingTarget = errors.New("missing target reference")
