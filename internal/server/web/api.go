package web

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

// resource is the JSON CRUD surface of one content collection. T is the
// entity and P its partial-update shape.
type resource[T any, P any] struct {
	create func(context.Context, *T) (*T, error)
	get    func(context.Context, string) (*T, error)
	list   func(context.Context) ([]*T, error)
	patch  func(context.Context, string, P) (*T, error)
	remove func(context.Context, string) error
	server *Server
}

func (r resource[T, P]) register(g *gin.RouterGroup) {
	g.POST("", r.handleCreate)
	g.GET("", r.handleList)
	g.GET("/:id", r.handleGet)
	g.PUT("/:id", r.handlePatch)
	g.DELETE("/:id", r.handleDelete)
}

func (r resource[T, P]) handleCreate(c *gin.Context) {
	var in T
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	out, err := r.create(c.Request.Context(), &in)
	if err != nil {
		r.server.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (r resource[T, P]) handleList(c *gin.Context) {
	items, err := r.list(c.Request.Context())
	if err != nil {
		r.server.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (r resource[T, P]) handleGet(c *gin.Context) {
	item, err := r.get(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.server.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// handlePatch applies only the fields present in the body.
func (r resource[T, P]) handlePatch(c *gin.Context) {
	var patch P
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	out, err := r.patch(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		r.server.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (r resource[T, P]) handleDelete(c *gin.Context) {
	if err := r.remove(c.Request.Context(), c.Param("id")); err != nil {
		r.server.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) projectsAPI() resource[models.Project, models.ProjectPatch] {
	return resource[models.Project, models.ProjectPatch]{
		create: s.deps.Content.CreateProject,
		get:    s.deps.Content.GetProject,
		list:   s.deps.Content.ListProjects,
		patch:  s.deps.Content.PatchProject,
		remove: s.deps.Content.DeleteProject,
		server: s,
	}
}

func (s *Server) blogPostsAPI() resource[models.BlogPost, models.BlogPostPatch] {
	return resource[models.BlogPost, models.BlogPostPatch]{
		create: s.deps.Content.CreateBlogPost,
		get:    s.deps.Content.GetBlogPost,
		list:   s.deps.Content.ListBlogPosts,
		patch:  s.deps.Content.PatchBlogPost,
		remove: s.deps.Content.DeleteBlogPost,
		server: s,
	}
}
