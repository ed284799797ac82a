package replay_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storesync/internal/mutation"
	"storesync/internal/remote"
	"storesync/internal/replay"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want replay.Class
	}{
		{"network message", errors.New("TypeError: Failed to fetch"), replay.Retryable},
		{"timeout message", errors.New("request timed out"), replay.Retryable},
		{"unauthorized message", errors.New("Unauthorized: caller is anonymous"), replay.Permanent},
		{"permission message", errors.New("You do not have permission to do that"), replay.Permanent},
		{"unknown defaults retryable", errors.New("something odd happened"), replay.Retryable},
		{"structured forbidden", &remote.Error{Code: remote.KindForbidden, Message: "nope"}, replay.Permanent},
		{"structured validation", &remote.Error{Code: remote.KindValidation, Message: "bad price"}, replay.Retryable},
		{"structured not found", &remote.Error{Code: remote.KindNotFound, Message: "Product not found"}, replay.Retryable},
		{"structured validation with denial text", &remote.Error{Code: remote.KindValidation, Message: "permission field invalid"}, replay.Retryable},
		{"denial beats connection wording", errors.New("Unauthorized: connection rejected"), replay.Permanent},
		{"permission beats timeout wording", errors.New("permission check timed out"), replay.Permanent},
		{"structured unavailable", &remote.Error{Code: remote.KindUnavailable, Message: "Unauthorized proxy"}, replay.Retryable},
		{"wrapped structured", fmt.Errorf("replay: %w", &remote.Error{Code: remote.KindUnauthorized}), replay.Permanent},
		{"unsupported", fmt.Errorf("%w: editProduct", remote.ErrUnsupported), replay.Permanent},
		{"invalid params", fmt.Errorf("%w: bad", mutation.ErrInvalidParams), replay.Permanent},
		{"deadline", context.DeadlineExceeded, replay.Retryable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := replay.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}
