package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log"

	"menutree/internal/domain"
	"menutree/internal/importer"
	menusvc "menutree/internal/service/menu"
)

//go:embed demo.yaml
var demoMenus []byte

type MenuService interface {
	ListTree(ctx context.Context) ([]*domain.MenuTree, error)
	Create(ctx context.Context, in menusvc.CreateInput) (*domain.MenuNode, error)
}

// Apply inserts a demo menu tree for manual testing. It does nothing when the
// store already holds menus and returns the number of nodes created.
func Apply(ctx context.Context, svc MenuService, logger *log.Logger) (int, error) {
	existing, err := svc.ListTree(ctx)
	if err != nil {
		return 0, fmt.Errorf("list menus: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created, err := importer.New(svc, logger).ImportYAML(ctx, bytes.NewReader(demoMenus))
	if err != nil {
		return created, fmt.Errorf("import demo menus: %w", err)
	}
	return created, nil
}
