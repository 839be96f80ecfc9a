package menu

import (
	"context"

	"menutree/internal/domain"
)

// Filter selects menu nodes. Zero value matches every node.
type Filter struct {
	// ParentID matches direct children of the given node.
	ParentID *string
	// RootsOnly matches nodes without a parent reference.
	RootsOnly bool
	// IDs restricts the match to the listed ids when non-empty.
	IDs []string
}

// Order controls the ordering of FindMany results.
type Order int

const (
	// Unordered leaves ordering to the store.
	Unordered Order = iota
	// BySortOrder sorts by order ascending, then created_at, then id.
	BySortOrder
)

// Repository is the Tree Store: keyed storage of menu nodes.
type Repository interface {
	FindByID(ctx context.Context, id string) (*domain.MenuNode, error)
	FindMany(ctx context.Context, filter Filter, order Order) ([]domain.MenuNode, error)
	Create(ctx context.Context, n domain.MenuNode) (*domain.MenuNode, error)
	Update(ctx context.Context, id string, patch domain.MenuPatch) (*domain.MenuNode, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	// WithinTx runs fn against a transaction-scoped repository. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling WithinTx on a transaction-scoped repository reuses the
	// running transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	Ping(ctx context.Context) error
}
