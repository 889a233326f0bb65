package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mkraev/crudkit/internal/crud"
	"github.com/mkraev/crudkit/pkg/response"
)

// BindFunc decodes the request body into a record, stamping the key from the
// URL so a client cannot update a different record than the one it addressed.
type BindFunc[T any] func(c *gin.Context, key string) (T, error)

// ResourceHandler adapts one crud controller to gin routes. The same handler
// serves every backend; only the bind function is type-specific.
type ResourceHandler[T any] struct {
	ctl  *crud.Controller[T]
	bind BindFunc[T]
}

func NewResourceHandler[T any](ctl *crud.Controller[T], bind BindFunc[T]) *ResourceHandler[T] {
	return &ResourceHandler[T]{ctl: ctl, bind: bind}
}

func (h *ResourceHandler[T]) Register(r *gin.RouterGroup, name string) {
	g := r.Group("/" + name)
	{
		g.GET("", h.search)
		g.GET("/:key", h.view)
		g.POST("", h.create)
		g.POST("/:key", h.save)
		g.PUT("/:key", h.save)
		g.DELETE("/:key", h.remove)
	}
}

func (h *ResourceHandler[T]) search(c *gin.Context) {
	out, err := h.ctl.Search(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteOutcome(c, out)
}

func (h *ResourceHandler[T]) view(c *gin.Context) {
	out, err := h.ctl.View(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteOutcome(c, out)
}

func (h *ResourceHandler[T]) create(c *gin.Context) {
	h.saveKey(c, crud.NewKey)
}

// save handles both update verbs. A save-style request carrying _delete is
// rerouted to delete handling, for forms that share one submit endpoint.
func (h *ResourceHandler[T]) save(c *gin.Context) {
	if _, ok := c.GetQuery("_delete"); ok {
		h.remove(c)
		return
	}
	h.saveKey(c, c.Param("key"))
}

func (h *ResourceHandler[T]) saveKey(c *gin.Context, key string) {
	rec, err := h.bind(c, key)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.ctl.Save(c.Request.Context(), key, rec)
	if err != nil {
		response.WriteErrorWithSubmitted(c, err, rec)
		return
	}
	response.WriteOutcome(c, out)
}

func (h *ResourceHandler[T]) remove(c *gin.Context) {
	out, err := h.ctl.Remove(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteOutcome(c, out)
}
