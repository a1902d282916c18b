package rbac

import (
	"context"
	"fmt"

	"github.com/agrocrm/backoffice/internal/audit"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/store"
)

// ModelResources maps store models onto catalog resources.
func ModelResources() map[string]string {
	return map[string]string{
		store.ModelUser:           ResourceUsers,
		store.ModelEmployee:       ResourceEmployees,
		store.ModelCustomer:       ResourceCustomers,
		store.ModelProduct:        ResourceProducts,
		store.ModelProductImage:   ResourceProducts,
		store.ModelStock:          ResourceStock,
		store.ModelRoleDefinition: ResourceRoles,
		store.ModelPermission:     ResourceRoles,
		store.ModelRolePermission: ResourceRoles,
		store.ModelSale:           ResourceSales,
		store.ModelInteraction:    ResourceInteractions,
	}
}

// DeleteCascades maps child models onto the parent whose delete removes them.
func DeleteCascades() map[string]string {
	return map[string]string{
		store.ModelStock:        store.ModelProduct,
		store.ModelProductImage: store.ModelProduct,
	}
}

type cascadeKey struct{}

// ContextWithCascade marks deletes issued under ctx as part of deleting a
// parent row of the given model.
func ContextWithCascade(ctx context.Context, parent string) context.Context {
	return context.WithValue(ctx, cascadeKey{}, parent)
}

func cascadeFrom(ctx context.Context) (string, bool) {
	parent, ok := ctx.Value(cascadeKey{}).(string)
	return parent, ok && parent != ""
}

// Gate rejects mutations the context's grant snapshot does not cover.
// Contexts without a snapshot (jobs, seeds, the CLI) pass; reads always pass.
type Gate struct {
	next      store.Store
	resources map[string]string
	cascades  map[string]string
}

// NewGate wraps next with the given model to resource mapping.
func NewGate(next store.Store, resources map[string]string) *Gate {
	return &Gate{next: next, resources: resources}
}

// WithCascades lets a child delete under ContextWithCascade run on the
// parent's delete permission when cascades names that parent for the child.
func (g *Gate) WithCascades(cascades map[string]string) *Gate {
	g.cascades = cascades
	return g
}

func (g *Gate) check(ctx context.Context, model string, action Action) error {
	resource, ok := g.resources[model]
	if !ok {
		return nil
	}
	granted, ok := shared.GrantsFromContext(ctx)
	if !ok {
		return nil
	}
	if HasPermission(granted, resource, action) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s", ErrForbidden, model, BuildKey(resource, action))
}

func (g *Gate) checkDelete(ctx context.Context, model string) error {
	if parent, ok := cascadeFrom(ctx); ok && g.cascades[model] == parent {
		return g.check(ctx, parent, ActionDelete)
	}
	return g.check(ctx, model, ActionDelete)
}

// updateAction maps an audit intent onto the permission an update needs.
func updateAction(ctx context.Context, data store.Record) Action {
	switch audit.IntentOf(ctx, data) {
	case audit.ActionApprove:
		return ActionApprove
	case audit.ActionReject:
		return ActionReject
	}
	return ActionEdit
}

func (g *Gate) Create(ctx context.Context, model string, data store.Record) (store.Record, error) {
	if err := g.check(ctx, model, ActionCreate); err != nil {
		return nil, err
	}
	return g.next.Create(ctx, model, data)
}

func (g *Gate) Update(ctx context.Context, model string, where store.Filter, data store.Record) (store.Record, error) {
	if err := g.check(ctx, model, updateAction(ctx, data)); err != nil {
		return nil, err
	}
	return g.next.Update(ctx, model, where, data)
}

func (g *Gate) UpdateMany(ctx context.Context, model string, where store.Filter, data store.Record) (int64, error) {
	if err := g.check(ctx, model, updateAction(ctx, data)); err != nil {
		return 0, err
	}
	return g.next.UpdateMany(ctx, model, where, data)
}

func (g *Gate) Delete(ctx context.Context, model string, where store.Filter) (store.Record, error) {
	if err := g.checkDelete(ctx, model); err != nil {
		return nil, err
	}
	return g.next.Delete(ctx, model, where)
}

func (g *Gate) DeleteMany(ctx context.Context, model string, where store.Filter) (int64, error) {
	if err := g.checkDelete(ctx, model); err != nil {
		return 0, err
	}
	return g.next.DeleteMany(ctx, model, where)
}

func (g *Gate) FindFirst(ctx context.Context, model string, q store.Query) (store.Record, error) {
	return g.next.FindFirst(ctx, model, q)
}

func (g *Gate) FindOne(ctx context.Context, model string, where store.Filter) (store.Record, error) {
	return g.next.FindOne(ctx, model, where)
}

func (g *Gate) FindMany(ctx context.Context, model string, q store.Query) ([]store.Record, error) {
	return g.next.FindMany(ctx, model, q)
}

func (g *Gate) Count(ctx context.Context, model string, where store.Filter) (int64, error) {
	return g.next.Count(ctx, model, where)
}

func (g *Gate) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return g.next.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &Gate{next: tx, resources: g.resources, cascades: g.cascades})
	})
}
