package replay

import (
	"context"
	"errors"
	"strings"

	"storesync/internal/mutation"
	"storesync/internal/remote"
)

// Class is the retry disposition of a failed replay.
type Class int

const (
	Retryable Class = iota
	Permanent
)

func (c Class) String() string {
	if c == Permanent {
		return "permanent"
	}
	return "retryable"
}

// ErrorClassifier lets errors declare a kind for classification.
type ErrorClassifier interface {
	ErrorKind() string
}

// Only authorization and permission denials are permanent. Validation and
// not-found answers stay retryable: an edit queued behind the create of the
// same product can see not_found until the create lands.
var permanentKinds = map[string]struct{}{
	remote.KindUnauthorized: {},
	remote.KindForbidden:    {},
}

var retryableKinds = map[string]struct{}{
	remote.KindNetwork:     {},
	remote.KindTimeout:     {},
	remote.KindUnavailable: {},
	remote.KindInternal:    {},
	remote.KindValidation:  {},
	remote.KindNotFound:    {},
}

// Message fragments used when an error carries no kind. Matching is a
// fallback only: backend wording changes silently alter the outcome.
var (
	retryableMarkers = []string{"network", "timeout", "timed out", "connection", "offline", "fetch", "unreachable"}
	permanentMarkers = []string{"unauthorized", "not authorized", "permission", "forbidden", "access denied"}
)

// Classify decides whether err is worth retrying. Unknown errors are retryable.
func Classify(err error) Class {
	switch {
	case err == nil:
		return Retryable
	case errors.Is(err, remote.ErrUnsupported),
		errors.Is(err, mutation.ErrInvalidParams),
		errors.Is(err, mutation.ErrNoHandler):
		return Permanent
	case errors.Is(err, context.DeadlineExceeded):
		return Retryable
	}

	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		kind := classifier.ErrorKind()
		if _, ok := permanentKinds[kind]; ok {
			return Permanent
		}
		if _, ok := retryableKinds[kind]; ok {
			return Retryable
		}
	}

	// Permanent markers win: "Unauthorized: connection rejected" is a denial.
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return Permanent
		}
	}
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return Retryable
		}
	}
	return Retryable
}
