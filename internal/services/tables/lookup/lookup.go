// Package lookup resolves table references against the world store and
// compendium packs.
package lookup

import (
	"context"
	"errors"

	"github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/storage"
)

// Container resolves table ids within one container.
type Container interface {
	Table(ctx context.Context, id string) (domain.Table, error)
}

// World adapts a TableStore to Container.
type World struct {
	Store storage.TableStore
}

// Table returns a world table.
func (w World) Table(ctx context.Context, id string) (domain.Table, error) {
	return w.Store.GetTable(ctx, id)
}

// Pack adapts one pack of a PackStore to Container.
type Pack struct {
	Store storage.PackStore
	Name  string
}

// Table returns a table of the pack.
func (p Pack) Table(ctx context.Context, id string) (domain.Table, error) {
	return p.Store.GetPackTable(ctx, p.Name, id)
}

// Router picks the container a reference names. World references go to the
// world container; any other pack name goes to the pack store.
type Router struct {
	world Container
	packs storage.PackStore
}

// NewRouter builds a router. Either side may be nil, in which case its
// references resolve as missing.
func NewRouter(world storage.TableStore, packs storage.PackStore) *Router {
	r := &Router{packs: packs}
	if world != nil {
		r.world = World{Store: world}
	}
	return r
}

// Container returns the container for a reference, or false when none is
// configured.
func (r *Router) Container(ref domain.Reference) (Container, bool) {
	if ref.InWorld() {
		return r.world, r.world != nil
	}
	if r.packs == nil {
		return nil, false
	}
	return Pack{Store: r.packs, Name: ref.Pack}, true
}

// ResolveReference implements engine.ReferenceResolver.
func (r *Router) ResolveReference(ctx context.Context, ref domain.Reference) (domain.Table, bool, error) {
	container, ok := r.Container(ref)
	if !ok {
		return domain.Table{}, false, nil
	}
	table, err := container.Table(ctx, ref.TableID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Table{}, false, nil
	}
	if err != nil {
		return domain.Table{}, false, err
	}
	return table, true, nil
}
