package menu

import "menutree/internal/domain"

// buildTree nests nodes under their parents, keeping the input order among
// siblings. Nodes whose parent is missing become roots. A node caught in a
// stored parent loop is detached from its parent and returned as a root, so
// every node appears exactly once.
func buildTree(nodes []domain.MenuNode) []*domain.MenuTree {
	byID := make(map[string]*domain.MenuTree, len(nodes))
	ordered := make([]*domain.MenuTree, 0, len(nodes))
	for _, n := range nodes {
		t := &domain.MenuTree{MenuNode: n, Children: []*domain.MenuTree{}}
		byID[n.ID] = t
		ordered = append(ordered, t)
	}

	roots := make([]*domain.MenuTree, 0)
	for _, t := range ordered {
		if t.ParentID != nil {
			if parent, ok := byID[*t.ParentID]; ok && parent != t {
				parent.Children = append(parent.Children, t)
				continue
			}
		}
		roots = append(roots, t)
	}

	reached := make(map[string]bool, len(ordered))
	for _, r := range roots {
		markReachable(r, reached)
	}
	for _, t := range ordered {
		if reached[t.ID] {
			continue
		}
		parent := byID[*t.ParentID]
		parent.Children = removeChild(parent.Children, t)
		roots = append(roots, t)
		markReachable(t, reached)
	}
	return roots
}

func markReachable(root *domain.MenuTree, reached map[string]bool) {
	stack := []*domain.MenuTree{root}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[t.ID] {
			continue
		}
		reached[t.ID] = true
		stack = append(stack, t.Children...)
	}
}

func removeChild(children []*domain.MenuTree, target *domain.MenuTree) []*domain.MenuTree {
	out := children[:0]
	for _, c := range children {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}
