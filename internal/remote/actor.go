package remote

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported reports that the connected backend does not offer an operation.
var ErrUnsupported = errors.New("operation not supported by backend")

// Actor is the set of remote operations mutations replay against.
type Actor interface {
	SaveArtifact(ctx context.Context, artifactID Nat) error
	RemoveSavedArtifact(ctx context.Context, artifactID Nat) error
	CreateOrder(ctx context.Context, productIDs []Nat, totalAmount Nat) (Nat, error)
	CreateProduct(ctx context.Context, product ProductInput) (Nat, error)
	EditProduct(ctx context.Context, productID Nat, product ProductInput) error
	UpdateStock(ctx context.Context, productID Nat, quantity Nat) error
	AssignAdminRole(ctx context.Context, principal Principal) error
	RemoveAdminRole(ctx context.Context, principal Principal) error
	CreateFeedback(ctx context.Context, feedback FeedbackInput) error
}

// Unsupported implements every Actor method by returning ErrUnsupported.
// Embed it to provide a partial backend.
type Unsupported struct{}

func unsupported(op string) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, op)
}

func (Unsupported) SaveArtifact(context.Context, Nat) error {
	return unsupported(OpSaveArtifact)
}

func (Unsupported) RemoveSavedArtifact(context.Context, Nat) error {
	return unsupported(OpRemoveSavedArtifact)
}

func (Unsupported) CreateOrder(context.Context, []Nat, Nat) (Nat, error) {
	return 0, unsupported(OpCreateOrder)
}

func (Unsupported) CreateProduct(context.Context, ProductInput) (Nat, error) {
	return 0, unsupported(OpCreateProduct)
}

func (Unsupported) EditProduct(context.Context, Nat, ProductInput) error {
	return unsupported(OpEditProduct)
}

func (Unsupported) UpdateStock(context.Context, Nat, Nat) error {
	return unsupported(OpUpdateStock)
}

func (Unsupported) AssignAdminRole(context.Context, Principal) error {
	return unsupported(OpAssignAdminRole)
}

func (Unsupported) RemoveAdminRole(context.Context, Principal) error {
	return unsupported(OpRemoveAdminRole)
}

func (Unsupported) CreateFeedback(context.Context, FeedbackInput) error {
	return unsupported(OpCreateFeedback)
}

// Remote operation names as they appear on the wire.
const (
	OpSaveArtifact        = "saveArtifact"
	OpRemoveSavedArtifact = "removeSavedArtifact"
	OpCreateOrder         = "createOrder"
	OpCreateProduct       = "createProduct"
	OpEditProduct         = "editProduct"
	OpUpdateStock         = "updateStock"
	OpAssignAdminRole     = "assignAdminRole"
	OpRemoveAdminRole     = "removeAdminRole"
	OpCreateFeedback      = "createFeedback"
)
