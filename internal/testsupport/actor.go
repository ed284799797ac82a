package testsupport

import (
	"context"
	"sync"

	"storesync/internal/remote"
)

// Call records one invocation on a FakeActor.
type Call struct {
	Op   string
	Args []any
}

// FakeActor is an in-memory remote.Actor that records calls and can be told
// to fail specific operations.
type FakeActor struct {
	mu       sync.Mutex
	calls    []Call
	failures map[string]error
	hook     func(ctx context.Context, op string) error
	nextID   remote.Nat
}

// NewFakeActor returns an actor on which every call succeeds.
func NewFakeActor() *FakeActor {
	return &FakeActor{failures: make(map[string]error)}
}

// FailWith makes op return err. A nil err restores success.
func (a *FakeActor) FailWith(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.failures, op)
		return
	}
	a.failures[op] = err
}

// SetHook runs fn before every call; a non-nil result fails the call.
func (a *FakeActor) SetHook(fn func(ctx context.Context, op string) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hook = fn
}

// Calls returns every recorded invocation in order.
func (a *FakeActor) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// CallCount returns how many times op was invoked.
func (a *FakeActor) CallCount(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (a *FakeActor) record(ctx context.Context, op string, args ...any) error {
	a.mu.Lock()
	a.calls = append(a.calls, Call{Op: op, Args: args})
	hook := a.hook
	err := a.failures[op]
	a.mu.Unlock()

	if hook != nil {
		if hookErr := hook(ctx, op); hookErr != nil {
			return hookErr
		}
	}
	return err
}

func (a *FakeActor) newID() remote.Nat {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	return a.nextID
}

func (a *FakeActor) SaveArtifact(ctx context.Context, id remote.Nat) error {
	return a.record(ctx, remote.OpSaveArtifact, id)
}

func (a *FakeActor) RemoveSavedArtifact(ctx context.Context, id remote.Nat) error {
	return a.record(ctx, remote.OpRemoveSavedArtifact, id)
}

func (a *FakeActor) CreateOrder(ctx context.Context, productIDs []remote.Nat, total remote.Nat) (remote.Nat, error) {
	if err := a.record(ctx, remote.OpCreateOrder, productIDs, total); err != nil {
		return 0, err
	}
	return a.newID(), nil
}

func (a *FakeActor) CreateProduct(ctx context.Context, product remote.ProductInput) (remote.Nat, error) {
	if err := a.record(ctx, remote.OpCreateProduct, product); err != nil {
		return 0, err
	}
	return a.newID(), nil
}

func (a *FakeActor) EditProduct(ctx context.Context, id remote.Nat, product remote.ProductInput) error {
	return a.record(ctx, remote.OpEditProduct, id, product)
}

func (a *FakeActor) UpdateStock(ctx context.Context, id remote.Nat, quantity remote.Nat) error {
	return a.record(ctx, remote.OpUpdateStock, id, quantity)
}

func (a *FakeActor) AssignAdminRole(ctx context.Context, principal remote.Principal) error {
	return a.record(ctx, remote.OpAssignAdminRole, principal)
}

func (a *FakeActor) RemoveAdminRole(ctx context.Context, principal remote.Principal) error {
	return a.record(ctx, remote.OpRemoveAdminRole, principal)
}

func (a *FakeActor) CreateFeedback(ctx context.Context, feedback remote.FeedbackInput) error {
	return a.record(ctx, remote.OpCreateFeedback, feedback)
}
