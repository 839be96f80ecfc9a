package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"menutree/internal/domain"
	menurepo "menutree/internal/repository/menu"
)

// OrphanPolicy decides what happens when a write references a parent id that
// does not exist.
type OrphanPolicy string

const (
	// OrphanTreatAsRoot stores the reference as given and gives the node depth 0.
	OrphanTreatAsRoot OrphanPolicy = "treat-as-root"
	// OrphanReject fails the write with domain.ErrParentNotFound.
	OrphanReject OrphanPolicy = "reject"
)

// ParseOrphanPolicy maps a configuration value to an OrphanPolicy. An empty
// value selects OrphanTreatAsRoot.
func ParseOrphanPolicy(v string) (OrphanPolicy, error) {
	switch OrphanPolicy(strings.ToLower(strings.TrimSpace(v))) {
	case "", OrphanTreatAsRoot:
		return OrphanTreatAsRoot, nil
	case OrphanReject:
		return OrphanReject, nil
	default:
		return "", fmt.Errorf("unknown orphan policy %q", v)
	}
}

type Options struct {
	OrphanPolicy OrphanPolicy
	// SerializeWrites runs every mutating operation under one process-wide
	// mutex. Without it, concurrent structural changes to overlapping
	// subtrees can interleave.
	SerializeWrites bool
	Logger          *log.Logger
}

type Service struct {
	repo    menurepo.Repository
	orphans OrphanPolicy
	writeMu *sync.Mutex
	logger  *log.Logger
}

func New(repo menurepo.Repository, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	orphans := opts.OrphanPolicy
	if orphans == "" {
		orphans = OrphanTreatAsRoot
	}
	s := &Service{repo: repo, orphans: orphans, logger: logger}
	if opts.SerializeWrites {
		s.writeMu = &sync.Mutex{}
	}
	return s
}

// ListTree returns every stored node as a forest of roots with nested
// children, siblings sorted by order.
func (s *Service) ListTree(ctx context.Context) ([]*domain.MenuTree, error) {
	nodes, err := s.repo.FindMany(ctx, menurepo.Filter{}, menurepo.BySortOrder)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	return buildTree(nodes), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.MenuNode, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.MenuNode, error) {
	in = in.normalized()
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	defer s.lockWrites()()

	order := 0
	if in.Order != nil {
		order = *in.Order
	}
	depth, err := s.depthUnder(ctx, s.repo, in.ParentID)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, domain.MenuNode{
		Name:     in.Name,
		ParentID: in.ParentID,
		Order:    order,
		Depth:    depth,
	})
	if err != nil {
		return nil, fmt.Errorf("create menu: %w", err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.MenuNode, error) {
	in = in.normalized()
	if err := validateUpdate(in); err != nil {
		return nil, err
	}
	id, ok := canonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	defer s.lockWrites()()

	var updated *domain.MenuNode
	err := s.repo.WithinTx(ctx, func(ctx context.Context, repo menurepo.Repository) error {
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		patch := domain.MenuPatch{Name: in.Name, Order: in.Order}
		reparent := in.ParentID.Set && !domain.SameParent(in.ParentID.ID, current.ParentID)
		if reparent {
			if err := ensureNoCycle(ctx, repo, id, in.ParentID.ID); err != nil {
				return err
			}
			depth, err := s.depthUnder(ctx, repo, in.ParentID.ID)
			if err != nil {
				return err
			}
			patch.Parent = in.ParentID
			patch.Depth = &depth
		}

		updated, err = repo.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		if reparent && updated.Depth != current.Depth {
			restamped, err := restampDescendants(ctx, repo, updated)
			if err != nil {
				return err
			}
			s.logger.Printf("menu service: reparented id=%s depth=%d restamped=%d", id, updated.Depth, restamped)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Move re-parents a node. A nil NewParentID moves it to the root level. The
// descendant depths are always re-stamped.
func (s *Service) Move(ctx context.Context, id string, in MoveInput) (*domain.MenuNode, error) {
	in = in.normalized()
	if err := validateMove(in); err != nil {
		return nil, err
	}
	id, ok := canonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	defer s.lockWrites()()

	var moved *domain.MenuNode
	err := s.repo.WithinTx(ctx, func(ctx context.Context, repo menurepo.Repository) error {
		if _, err := repo.FindByID(ctx, id); err != nil {
			return err
		}
		if err := ensureNoCycle(ctx, repo, id, in.NewParentID); err != nil {
			return err
		}
		depth, err := s.depthUnder(ctx, repo, in.NewParentID)
		if err != nil {
			return err
		}

		parent := domain.SetNull()
		if in.NewParentID != nil {
			parent = domain.SetID(*in.NewParentID)
		}
		moved, err = repo.Update(ctx, id, domain.MenuPatch{Parent: parent, Depth: &depth})
		if err != nil {
			return err
		}
		restamped, err := restampDescendants(ctx, repo, moved)
		if err != nil {
			return err
		}
		s.logger.Printf("menu service: moved id=%s depth=%d restamped=%d", id, depth, restamped)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func (s *Service) Reorder(ctx context.Context, id string, in ReorderInput) (*domain.MenuNode, error) {
	if err := validateReorder(in); err != nil {
		return nil, err
	}
	id, ok := canonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	defer s.lockWrites()()

	return s.repo.Update(ctx, id, domain.MenuPatch{Order: in.Order})
}

// Delete removes the node and its whole subtree in one transaction,
// descendants before ancestors.
func (s *Service) Delete(ctx context.Context, id string) error {
	id, ok := canonicalID(id)
	if !ok {
		return domain.ErrNotFound
	}
	defer s.lockWrites()()

	return s.repo.WithinTx(ctx, func(ctx context.Context, repo menurepo.Repository) error {
		if _, err := repo.FindByID(ctx, id); err != nil {
			return err
		}
		subtree, err := collectSubtree(ctx, repo, id)
		if err != nil {
			return err
		}
		for i := len(subtree) - 1; i >= 0; i-- {
			if err := repo.Delete(ctx, subtree[i]); err != nil {
				return fmt.Errorf("delete menu %s: %w", subtree[i], err)
			}
		}
		s.logger.Printf("menu service: deleted id=%s nodes=%d", id, len(subtree))
		return nil
	})
}

// Reset removes every stored node and reports how many were deleted.
func (s *Service) Reset(ctx context.Context) (int64, error) {
	defer s.lockWrites()()

	removed, err := s.repo.DeleteMany(ctx, menurepo.Filter{})
	if err != nil {
		return 0, fmt.Errorf("reset menus: %w", err)
	}
	return removed, nil
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) lockWrites() func() {
	if s.writeMu == nil {
		return func() {}
	}
	s.writeMu.Lock()
	return s.writeMu.Unlock
}

// depthUnder returns the depth a child of parentID gets, applying the orphan
// policy when the parent does not exist.
func (s *Service) depthUnder(ctx context.Context, repo menurepo.Repository, parentID *string) (int, error) {
	if parentID == nil {
		return 0, nil
	}
	parent, err := repo.FindByID(ctx, *parentID)
	if errors.Is(err, domain.ErrNotFound) {
		if s.orphans == OrphanReject {
			return 0, domain.ErrParentNotFound
		}
		s.logger.Printf("menu service: parent %s not found, storing as root", *parentID)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parent.Depth + 1, nil
}
