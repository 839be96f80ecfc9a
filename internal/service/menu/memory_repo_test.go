package menu

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"menutree/internal/domain"
	menurepo "menutree/internal/repository/menu"
)

// memoryRepo is an in-process Repository. WithinTx snapshots the node map and
// restores it when fn fails.
type memoryRepo struct {
	mu    sync.Mutex
	nodes map[string]domain.MenuNode
	clock time.Time

	// failUpdateOn makes the Nth Update call fail with errInjected. Zero disables it.
	failUpdateOn int
	updateCalls  int
	inTx         bool
}

var errInjected = errors.New("injected store failure")

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nodes: map[string]domain.MenuNode{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memoryRepo) FindByID(_ context.Context, id string) (*domain.MenuNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

func (r *memoryRepo) FindMany(_ context.Context, filter menurepo.Filter, order menurepo.Order) ([]domain.MenuNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MenuNode
	for _, n := range r.nodes {
		if matches(n, filter) {
			out = append(out, n)
		}
	}
	if order == menurepo.BySortOrder {
		sort.Slice(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.Order != b.Order {
				return a.Order < b.Order
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
	}
	return out, nil
}

func (r *memoryRepo) Create(_ context.Context, n domain.MenuNode) (*domain.MenuNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Millisecond)
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = r.clock
	n.UpdatedAt = r.clock
	r.nodes[n.ID] = n
	return &n, nil
}

func (r *memoryRepo) Update(_ context.Context, id string, patch domain.MenuPatch) (*domain.MenuNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.failUpdateOn > 0 && r.updateCalls == r.failUpdateOn {
		return nil, errInjected
	}
	n, ok := r.nodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Name != nil {
		n.Name = *patch.Name
	}
	if patch.Parent.Set {
		n.ParentID = patch.Parent.ID
	}
	if patch.Order != nil {
		n.Order = *patch.Order
	}
	if patch.Depth != nil {
		n.Depth = *patch.Depth
	}
	r.clock = r.clock.Add(time.Millisecond)
	n.UpdatedAt = r.clock
	r.nodes[id] = n
	return &n, nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.nodes, id)
	return nil
}

func (r *memoryRepo) DeleteMany(_ context.Context, filter menurepo.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, n := range r.nodes {
		if matches(n, filter) {
			delete(r.nodes, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memoryRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, repo menurepo.Repository) error) error {
	r.mu.Lock()
	if r.inTx {
		r.mu.Unlock()
		return fn(ctx, r)
	}
	snapshot := make(map[string]domain.MenuNode, len(r.nodes))
	for id, n := range r.nodes {
		snapshot[id] = n
	}
	r.inTx = true
	r.mu.Unlock()

	err := fn(ctx, r)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inTx = false
	if err != nil {
		r.nodes = snapshot
	}
	return err
}

func (r *memoryRepo) Ping(context.Context) error { return nil }

// all returns a copy of every stored node.
func (r *memoryRepo) all() map[string]domain.MenuNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.MenuNode, len(r.nodes))
	for id, n := range r.nodes {
		out[id] = n
	}
	return out
}

func matches(n domain.MenuNode, filter menurepo.Filter) bool {
	if filter.ParentID != nil && (n.ParentID == nil || *n.ParentID != *filter.ParentID) {
		return false
	}
	if filter.RootsOnly && n.ParentID != nil {
		return false
	}
	if len(filter.IDs) > 0 {
		for _, id := range filter.IDs {
			if id == n.ID {
				return true
			}
		}
		return false
	}
	return true
}
