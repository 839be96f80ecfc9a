package httpserver

import (
	"context"
	"errors"
	"log"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"menutree/internal/domain"
	menusvc "menutree/internal/service/menu"
)

// MenuService is the menu tree behavior the HTTP layer depends on.
type MenuService interface {
	ListTree(ctx context.Context) ([]*domain.MenuTree, error)
	GetByID(ctx context.Context, id string) (*domain.MenuNode, error)
	Create(ctx context.Context, in menusvc.CreateInput) (*domain.MenuNode, error)
	Update(ctx context.Context, id string, in menusvc.UpdateInput) (*domain.MenuNode, error)
	Move(ctx context.Context, id string, in menusvc.MoveInput) (*domain.MenuNode, error)
	Reorder(ctx context.Context, id string, in menusvc.ReorderInput) (*domain.MenuNode, error)
	Delete(ctx context.Context, id string) error
	Ready(ctx context.Context) error
}

type Deps struct {
	MenuSvc MenuService
	// CORSOrigins lists browser origins allowed to call the API. "*" allows
	// any origin; an empty list disables CORS handling.
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if deps.MenuSvc == nil {
		return nil, errors.New("menu service is required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if len(deps.CORSOrigins) > 0 {
		cfg := cors.Config{
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       12 * time.Hour,
		}
		if slices.Contains(deps.CORSOrigins, "*") {
			cfg.AllowAllOrigins = true
		} else {
			cfg.AllowOrigins = deps.CORSOrigins
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		router.Use(cors.New(cfg))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.MenuSvc))

	h := &menuHandler{svc: deps.MenuSvc, logger: logger}
	menus := router.Group("/api/menus")
	menus.POST("", h.create)
	menus.GET("", h.list)
	menus.GET("/:id", h.get)
	menus.PUT("/:id", h.update)
	menus.DELETE("/:id", h.delete)
	menus.PATCH("/:id/move", h.move)
	menus.PATCH("/:id/reorder", h.reorder)

	return router, nil
}
