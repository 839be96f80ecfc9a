package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	menusvc "menutree/internal/service/menu"
)

type menuHandler struct {
	svc    MenuService
	logger *log.Logger
}

func (h *menuHandler) create(c *gin.Context) {
	var in menusvc.CreateInput
	if !bindBody(c, &in) {
		return
	}
	node, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, toMenuResponse(*node))
}

func (h *menuHandler) list(c *gin.Context) {
	tree, err := h.svc.ListTree(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]menuTreeResponse, 0, len(tree))
	for _, t := range tree {
		out = append(out, toMenuTreeResponse(t))
	}
	respond(c, out)
}

func (h *menuHandler) get(c *gin.Context) {
	node, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, toMenuResponse(*node))
}

func (h *menuHandler) update(c *gin.Context) {
	var in menusvc.UpdateInput
	if !bindBody(c, &in) {
		return
	}
	node, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, toMenuResponse(*node))
}

func (h *menuHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, true)
}

func (h *menuHandler) move(c *gin.Context) {
	var in menusvc.MoveInput
	if !bindBody(c, &in) {
		return
	}
	node, err := h.svc.Move(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, toMenuResponse(*node))
}

func (h *menuHandler) reorder(c *gin.Context) {
	var in menusvc.ReorderInput
	if !bindBody(c, &in) {
		return
	}
	node, err := h.svc.Reorder(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, toMenuResponse(*node))
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dataEnvelope{Data: data})
}
