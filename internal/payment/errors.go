package payment

import (
	"errors"
	"fmt"
)

// TransportError is a network failure or a non-2xx response that carried no
// structured body.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ErrGatewayNotFound is returned by the catalog for an unknown medium key.
var ErrGatewayNotFound = errors.New("gateway not found")
