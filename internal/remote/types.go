package remote

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Nat is an unsigned 64-bit backend identifier or quantity. It is encoded as a
// JSON string so values above 2^53 survive JavaScript-style consumers.
type Nat uint64

// ParseNat reconstructs a Nat from its decimal string form.
func ParseNat(value string) (Nat, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("parse nat: empty value")
	}
	n, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse nat %q: %w", value, err)
	}
	return Nat(n), nil
}

// ParseNats reconstructs every value in order.
func ParseNats(values []string) ([]Nat, error) {
	out := make([]Nat, 0, len(values))
	for _, v := range values {
		n, err := ParseNat(v)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (n Nat) String() string {
	return strconv.FormatUint(uint64(n), 10)
}

// MarshalJSON encodes n as a quoted decimal.
func (n Nat) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// UnmarshalJSON accepts a quoted decimal or a bare JSON number.
func (n *Nat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := ParseNat(raw)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Principal is the textual form of a caller identity: lowercase base32 groups
// of at most five characters separated by dashes.
type Principal string

var principalPattern = regexp.MustCompile(`^[a-z2-7]{1,5}(-[a-z2-7]{1,5})+$`)

// ParsePrincipal reconstructs a Principal from its textual form.
func ParsePrincipal(value string) (Principal, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", fmt.Errorf("parse principal: empty value")
	}
	if !principalPattern.MatchString(trimmed) {
		return "", fmt.Errorf("parse principal %q: malformed textual encoding", value)
	}
	return Principal(trimmed), nil
}

func (p Principal) String() string {
	return string(p)
}

// ProductInput is the catalog entry accepted by CreateProduct and EditProduct.
type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       Nat    `json:"price"`
	Stock       Nat    `json:"stock"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// FeedbackInput is a customer feedback submission.
type FeedbackInput struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
	Rating  int    `json:"rating,omitempty"`
}
