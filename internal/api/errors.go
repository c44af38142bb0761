package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoTokenSource is returned by authenticated calls on a client built without one
var ErrNoTokenSource = errors.New("api: client has no token source")

// APIError is a non-2xx response from the remote API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, msg)
}

// IsUnauthorized reports whether err is a 401 response from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
