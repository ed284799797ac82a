package mutation

import (
	"context"
	"fmt"

	"storesync/internal/queue"
	"storesync/internal/remote"
)

// Payload is the argument bundle of one mutation kind.
type Payload interface {
	Kind() queue.Type
	// bind reconstructs native arguments and returns the remote call.
	bind() (call, error)
}

type call func(ctx context.Context, actor remote.Actor) error

func invalid(kind queue.Type, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidParams, kind, err)
}

// SaveArtifact bookmarks a portfolio artifact for the caller.
type SaveArtifact struct {
	ArtifactID string `json:"artifactId"`
}

func (SaveArtifact) Kind() queue.Type { return queue.TypeSaveArtifact }

func (p SaveArtifact) bind() (call, error) {
	id, err := remote.ParseNat(p.ArtifactID)
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	return func(ctx context.Context, a remote.Actor) error { return a.SaveArtifact(ctx, id) }, nil
}

// RemoveSavedArtifact drops a bookmark.
type RemoveSavedArtifact struct {
	ArtifactID string `json:"artifactId"`
}

func (RemoveSavedArtifact) Kind() queue.Type { return queue.TypeRemoveSavedArtifact }

func (p RemoveSavedArtifact) bind() (call, error) {
	id, err := remote.ParseNat(p.ArtifactID)
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	return func(ctx context.Context, a remote.Actor) error { return a.RemoveSavedArtifact(ctx, id) }, nil
}

// CreateOrder places an order for the listed products.
type CreateOrder struct {
	ProductIDs  []string `json:"productIds"`
	TotalAmount string   `json:"totalAmount"`
}

func (CreateOrder) Kind() queue.Type { return queue.TypeCreateOrder }

func (p CreateOrder) bind() (call, error) {
	if len(p.ProductIDs) == 0 {
		return nil, invalid(p.Kind(), fmt.Errorf("order has no products"))
	}
	ids, err := remote.ParseNats(p.ProductIDs)
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	total, err := remote.ParseNat(p.TotalAmount)
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	return func(ctx context.Context, a remote.Actor) error {
		_, err := a.CreateOrder(ctx, ids, total)
		return err
	}, nil
}

// ProductFields are the catalog attributes shared by create and edit.
type ProductFields struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Stock       string `json:"stock"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

func (f ProductFields) input() (remote.ProductInput, error) {
	if f.Name == "" {
		return remote.ProductInput{}, fmt.Errorf("product name is required")
	}
	price, err := remote.ParseNat(f.Price)
	if err != nil {
		return remote.ProductInput{}, fmt.Errorf("price: %w", err)
	}
	stock, err := remote.ParseNat(f.Stock)
	if err != nil {
		return remote.ProductInput{}, fmt.Errorf("stock: %w", err)
	}
	return remote.ProductInput{
		Name:        f.Name,
		Description: f.Description,
		Price:       price,
		Stock:       stock,
		Category:    f.Category,
		ImageURL:    f.ImageURL,
	}, nil
}

// CreateProduct adds a catalog entry.
type CreateProduct struct {
	ProductFields
}

func (CreateProduct) Kind() queue.Type { return queue.TypeCreateProduct }

func (p CreateProduct) bind() (call, error) {
	in, err := p.input()
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	return func(ctx context.Context, a remote.Actor) error {
		_, err := a.CreateProduct(ctx, in)
		return err
	}, nil
}

// EditProduct replaces a catalog entry.
type EditProduct struct {
	ProductID string `json:"productId"`
	ProductFields
}

func (EditProduct) Kind() queue.Type { return queue.TypeEditProduct }

func (p EditProduct) bind() (call, error) {
	id, err := remote.ParseNat(p.ProductID)
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	in, err := p.input()
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	return func(ctx context.Context, a remote.Actor) error { return a.EditProduct(ctx, id, in) }, nil
}

// UpdateStock sets the available quantity of a product.
type UpdateStock struct {
	ProductID string `json:"productId"`
	Quantity  string `json:"quantity"`
}

func (UpdateStock) Kind() queue.Type { return queue.TypeUpdateStock }

func (p UpdateStock) bind() (call, error) {
	id, err := remote.ParseNat(p.ProductID)
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	qty, err := remote.ParseNat(p.Quantity)
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	return func(ctx context.Context, a remote.Actor) error { return a.UpdateStock(ctx, id, qty) }, nil
}

// AssignAdminRole grants admin rights to a principal.
type AssignAdminRole struct {
	Principal string `json:"principal"`
}

func (AssignAdminRole) Kind() queue.Type { return queue.TypeAssignAdminRole }

func (p AssignAdminRole) bind() (call, error) {
	principal, err := remote.ParsePrincipal(p.Principal)
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	return func(ctx context.Context, a remote.Actor) error { return a.AssignAdminRole(ctx, principal) }, nil
}

// RemoveAdminRole revokes admin rights from a principal.
type RemoveAdminRole struct {
	Principal string `json:"principal"`
}

func (RemoveAdminRole) Kind() queue.Type { return queue.TypeRemoveAdminRole }

func (p RemoveAdminRole) bind() (call, error) {
	principal, err := remote.ParsePrincipal(p.Principal)
	if err != nil {
		return nil, invalid(p.Kind(), err)
	}
	return func(ctx context.Context, a remote.Actor) error { return a.RemoveAdminRole(ctx, principal) }, nil
}

// CreateFeedback submits customer feedback.
type CreateFeedback struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
	Rating  int    `json:"rating,omitempty"`
}

func (CreateFeedback) Kind() queue.Type { return queue.TypeCreateFeedback }

func (p CreateFeedback) bind() (call, error) {
	if p.Message == "" {
		return nil, invalid(p.Kind(), fmt.Errorf("message is required"))
	}
	if p.Rating < 0 || p.Rating > 5 {
		return nil, invalid(p.Kind(), fmt.Errorf("rating %d outside 0-5", p.Rating))
	}
	in := remote.FeedbackInput{Name: p.Name, Email: p.Email, Message: p.Message, Rating: p.Rating}
	return func(ctx context.Context, a remote.Actor) error { return a.CreateFeedback(ctx, in) }, nil
}
