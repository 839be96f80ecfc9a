package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"menutree/internal/domain"
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type menuResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	Order     int       `json:"order"`
	Depth     int       `json:"depth"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type menuTreeResponse struct {
	menuResponse
	Children []menuTreeResponse `json:"children"`
}

func toMenuResponse(n domain.MenuNode) menuResponse {
	return menuResponse{
		ID:        n.ID,
		Name:      n.Name,
		ParentID:  n.ParentID,
		Order:     n.Order,
		Depth:     n.Depth,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func toMenuTreeResponse(t *domain.MenuTree) menuTreeResponse {
	children := make([]menuTreeResponse, 0, len(t.Children))
	for _, c := range t.Children {
		children = append(children, toMenuTreeResponse(c))
	}
	return menuTreeResponse{menuResponse: toMenuResponse(t.MenuNode), Children: children}
}

// bindBody decodes a JSON request body into dst. An empty body leaves dst at
// its zero value. It writes a 400 response and returns false on malformed input.
func bindBody(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		writeErrors(c, http.StatusBadRequest, apiError{Field: typeErr.Field, Message: fmt.Sprintf("must be a %s", typeErr.Type.String())})
		return false
	}
	writeErrors(c, http.StatusBadRequest, apiError{Message: "invalid JSON body"})
	return false
}

func (h *menuHandler) fail(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		out := make([]apiError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			out = append(out, apiError{Field: f.Field, Message: f.Message})
		}
		writeErrors(c, http.StatusBadRequest, out...)
	case errors.Is(err, domain.ErrParentNotFound):
		writeErrors(c, http.StatusNotFound, apiError{Message: "parent menu not found"})
	case errors.Is(err, domain.ErrNotFound):
		writeErrors(c, http.StatusNotFound, apiError{Message: "menu not found"})
	case errors.Is(err, domain.ErrInvalidOperation):
		writeErrors(c, http.StatusConflict, apiError{Message: "a menu cannot be placed under itself or its descendants"})
	default:
		h.logger.Printf("http: %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		writeErrors(c, http.StatusInternalServerError, apiError{Message: "internal server error"})
	}
}

func writeErrors(c *gin.Context, status int, errs ...apiError) {
	c.AbortWithStatusJSON(status, errorEnvelope{Errors: errs})
}
