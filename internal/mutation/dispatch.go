package mutation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storesync/internal/cache"
	"storesync/internal/queue"
	"storesync/internal/remote"
)

var (
	// ErrInvalidParams reports a payload that cannot be decoded or whose
	// identifiers cannot be reconstructed. Replaying it can never succeed.
	ErrInvalidParams = errors.New("invalid mutation params")
	// ErrNoHandler reports a queue type missing from the dispatch table.
	ErrNoHandler = errors.New("no dispatch handler for mutation type")
)

type kind struct {
	newPayload  func() Payload
	invalidates []cache.Key
}

var table = map[queue.Type]kind{
	queue.TypeSaveArtifact: {
		newPayload:  func() Payload { return &SaveArtifact{} },
		invalidates: []cache.Key{cache.KeySavedArtifacts},
	},
	queue.TypeRemoveSavedArtifact: {
		newPayload:  func() Payload { return &RemoveSavedArtifact{} },
		invalidates: []cache.Key{cache.KeySavedArtifacts},
	},
	queue.TypeCreateOrder: {
		newPayload:  func() Payload { return &CreateOrder{} },
		invalidates: []cache.Key{cache.KeyMyOrders, cache.KeyAllOrders},
	},
	queue.TypeCreateProduct: {
		newPayload:  func() Payload { return &CreateProduct{} },
		invalidates: []cache.Key{cache.KeyProducts},
	},
	queue.TypeEditProduct: {
		newPayload:  func() Payload { return &EditProduct{} },
		invalidates: []cache.Key{cache.KeyProducts, cache.KeyProduct},
	},
	queue.TypeUpdateStock: {
		newPayload:  func() Payload { return &UpdateStock{} },
		invalidates: []cache.Key{cache.KeyProducts, cache.KeyProduct},
	},
	queue.TypeAssignAdminRole: {
		newPayload:  func() Payload { return &AssignAdminRole{} },
		invalidates: []cache.Key{cache.KeyAdmins},
	},
	queue.TypeRemoveAdminRole: {
		newPayload:  func() Payload { return &RemoveAdminRole{} },
		invalidates: []cache.Key{cache.KeyAdmins},
	},
	queue.TypeCreateFeedback: {
		newPayload:  func() Payload { return &CreateFeedback{} },
		invalidates: []cache.Key{cache.KeyFeedback},
	},
}

// Invalidates returns the cache views a successful t write makes stale.
func Invalidates(t queue.Type) []cache.Key {
	k, ok := table[t]
	if !ok {
		return nil
	}
	out := make([]cache.Key, len(k.invalidates))
	copy(out, k.invalidates)
	return out
}

// Decode parses raw params of type t into its payload.
func Decode(t queue.Type, raw json.RawMessage) (Payload, error) {
	k, ok := table[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoHandler, t)
	}
	p := k.newPayload()
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, invalid(t, err)
	}
	return p, nil
}

// Validate reports whether p's identifiers can be reconstructed.
func Validate(p Payload) error {
	_, err := p.bind()
	return err
}

// Dispatch replays one queued mutation against actor.
func Dispatch(ctx context.Context, actor remote.Actor, m queue.Mutation) error {
	p, err := Decode(m.Type, m.Params)
	if err != nil {
		return err
	}
	return Call(ctx, actor, p)
}

// Call binds p and invokes it on actor.
func Call(ctx context.Context, actor remote.Actor, p Payload) error {
	fn, err := p.bind()
	if err != nil {
		return err
	}
	return fn(ctx, actor)
}

// FromParams builds a payload of type t from flat key=value pairs, as typed on
// a command line. productIds is comma separated and rating is an integer.
func FromParams(t queue.Type, params map[string]string) (Payload, error) {
	k, ok := table[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoHandler, t)
	}
	obj := make(map[string]any, len(params))
	for key, value := range params {
		switch key {
		case "productIds":
			parts := strings.Split(value, ",")
			ids := make([]string, 0, len(parts))
			for _, part := range parts {
				if part = strings.TrimSpace(part); part != "" {
					ids = append(ids, part)
				}
			}
			obj[key] = ids
		case "rating":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, invalid(t, fmt.Errorf("rating: %w", err))
			}
			obj[key] = n
		default:
			obj[key] = value
		}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, invalid(t, err)
	}
	p := k.newPayload()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, invalid(t, err)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}
