package menu

import (
	"context"
	"errors"
	"fmt"

	"menutree/internal/domain"
	menurepo "menutree/internal/repository/menu"
)

type pendingDepth struct {
	id    string
	depth int
}

// restampDescendants walks the subtree below root breadth-first and writes
// parent.depth+1 to every descendant whose stored depth differs. It returns
// the number of nodes written.
func restampDescendants(ctx context.Context, repo menurepo.Repository, root *domain.MenuNode) (int, error) {
	queue := []pendingDepth{{id: root.ID, depth: root.Depth}}
	seen := map[string]bool{root.ID: true}
	written := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		children, err := repo.FindMany(ctx, menurepo.Filter{ParentID: &cur.id}, menurepo.Unordered)
		if err != nil {
			return written, fmt.Errorf("load children of %s: %w", cur.id, err)
		}
		for _, child := range children {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			want := cur.depth + 1
			if child.Depth != want {
				if _, err := repo.Update(ctx, child.ID, domain.MenuPatch{Depth: &want}); err != nil {
					return written, fmt.Errorf("restamp depth of %s: %w", child.ID, err)
				}
				written++
			}
			queue = append(queue, pendingDepth{id: child.ID, depth: want})
		}
	}
	return written, nil
}

// collectSubtree returns rootID followed by every descendant in
// breadth-first discovery order.
func collectSubtree(ctx context.Context, repo menurepo.Repository, rootID string) ([]string, error) {
	order := []string{rootID}
	seen := map[string]bool{rootID: true}
	for i := 0; i < len(order); i++ {
		children, err := repo.FindMany(ctx, menurepo.Filter{ParentID: &order[i]}, menurepo.Unordered)
		if err != nil {
			return nil, fmt.Errorf("load children of %s: %w", order[i], err)
		}
		for _, child := range children {
			if !seen[child.ID] {
				seen[child.ID] = true
				order = append(order, child.ID)
			}
		}
	}
	return order, nil
}

// ensureNoCycle fails with domain.ErrInvalidOperation when candidateParent is
// id itself or one of its descendants. It walks the candidate's ancestor chain
// and stops at a root, a dangling reference or a node already visited.
func ensureNoCycle(ctx context.Context, repo menurepo.Repository, id string, candidateParent *string) error {
	if candidateParent == nil {
		return nil
	}
	seen := map[string]bool{}
	cur := *candidateParent
	for {
		if cur == id {
			return fmt.Errorf("menu %s cannot be placed under %s: %w", id, *candidateParent, domain.ErrInvalidOperation)
		}
		if seen[cur] {
			return nil
		}
		seen[cur] = true

		n, err := repo.FindByID(ctx, cur)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if n.ParentID == nil {
			return nil
		}
		cur = *n.ParentID
	}
}
