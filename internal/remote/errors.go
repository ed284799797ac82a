package remote

import (
	"fmt"
	"net/http"
	"strings"
)

// Error kinds reported by ErrorKind.
const (
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindTimeout      = "timeout"
	KindNetwork      = "network"
	KindUnavailable  = "unavailable"
	KindInternal     = "internal"
)

// Error is a failure reported by, or on the way to, the backend.
type Error struct {
	Code    string
	Message string
	// Status is the HTTP status; zero for transport failures.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "remote call failed"
	}
	if e.Code == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorKind exposes the structured code for classification.
func (e *Error) ErrorKind() string {
	return e.Code
}

// kindForStatus maps an HTTP status to an error kind when the body carries none.
func kindForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return KindTimeout
	case status == http.StatusTooManyRequests, status == http.StatusBadGateway, status == http.StatusServiceUnavailable:
		return KindUnavailable
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		return KindValidation
	default:
		return KindInternal
	}
}
