package queue

import (
	"encoding/json"
	"strings"
	"time"
)

// Type identifies the remote operation a mutation replays.
type Type string

const (
	TypeSaveArtifact        Type = "saveArtifact"
	TypeRemoveSavedArtifact Type = "removeSavedArtifact"
	TypeCreateOrder         Type = "createOrder"
	TypeCreateProduct       Type = "createProduct"
	TypeEditProduct         Type = "editProduct"
	TypeUpdateStock         Type = "updateStock"
	TypeAssignAdminRole     Type = "assignAdminRole"
	TypeRemoveAdminRole     Type = "removeAdminRole"
	TypeCreateFeedback      Type = "createFeedback"
)

var allTypes = []Type{
	TypeSaveArtifact,
	TypeRemoveSavedArtifact,
	TypeCreateOrder,
	TypeCreateProduct,
	TypeEditProduct,
	TypeUpdateStock,
	TypeAssignAdminRole,
	TypeRemoveAdminRole,
	TypeCreateFeedback,
}

var typeSet = func() map[Type]struct{} {
	set := make(map[Type]struct{}, len(allTypes))
	for _, t := range allTypes {
		set[t] = struct{}{}
	}
	return set
}()

// AllTypes returns the ordered list of known mutation types.
func AllTypes() []Type {
	cp := make([]Type, len(allTypes))
	copy(cp, allTypes)
	return cp
}

// ParseType converts a string into a known Type. Matching ignores case.
func ParseType(value string) (Type, bool) {
	trimmed := strings.TrimSpace(value)
	for _, t := range allTypes {
		if strings.EqualFold(string(t), trimmed) {
			return t, true
		}
	}
	return "", false
}

// Valid reports whether t belongs to the closed set of mutation types.
func (t Type) Valid() bool {
	_, ok := typeSet[t]
	return ok
}

// Mutation is one pending write operation.
type Mutation struct {
	ID   string `json:"id"`
	Type Type   `json:"type"`
	// Params holds the JSON-encoded arguments. 64-bit integers and principals
	// are encoded as strings and reconstructed at replay time.
	Params     json.RawMessage `json:"params"`
	Timestamp  time.Time       `json:"timestamp"`
	RetryCount int             `json:"retryCount"`
	LastError  string          `json:"lastError,omitempty"`
	Failed     bool            `json:"failed"`
}

// Age returns how long ago the mutation was enqueued.
func (m Mutation) Age(now time.Time) time.Duration {
	if m.Timestamp.IsZero() {
		return 0
	}
	return now.Sub(m.Timestamp)
}

// Stats summarizes the queue contents.
type Stats struct {
	Total    int
	Pending  int // never attempted and not failed
	Retrying int // at least one transient failure, not failed
	Failed   int
	Oldest   time.Time
}
