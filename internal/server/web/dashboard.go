package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

const (
	typeProject = "project"
	typeBlog    = "blog"
)

// contentLabel is the capitalized name used in flash messages.
func contentLabel(kind string) string {
	if kind == typeProject {
		return "Project"
	}
	return "Blog"
}

// contentType validates the :type parameter. Unknown types send the
// browser back to the dashboard.
func contentType(c *gin.Context) (string, bool) {
	switch kind := c.Param("type"); kind {
	case typeProject, typeBlog:
		return kind, true
	default:
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return "", false
	}
}

type projectForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Tech        string `form:"tech"`
	Image       string `form:"image"`
	Cover       string `form:"cover"`
	Source      string `form:"source"`
	Details     string `form:"details"`
}

func (f projectForm) project(id string) *models.Project {
	return &models.Project{
		ID:          id,
		Title:       f.Title,
		Description: f.Description,
		Tech:        models.SplitTags(f.Tech),
		Image:       f.Image,
		Cover:       f.Cover,
		Source:      f.Source,
		Details:     f.Details,
	}
}

type blogForm struct {
	Title    string `form:"title"`
	Excerpt  string `form:"excerpt"`
	Date     string `form:"date"`
	Category string `form:"category"`
	Image    string `form:"image"`
	Cover    string `form:"cover"`
	ReadTime string `form:"readTime"`
	Content  string `form:"content"`
}

func (f blogForm) post(id string) *models.BlogPost {
	return &models.BlogPost{
		ID:       id,
		Title:    f.Title,
		Excerpt:  f.Excerpt,
		Date:     f.Date,
		Category: f.Category,
		Image:    f.Image,
		Cover:    f.Cover,
		ReadTime: f.ReadTime,
		Content:  f.Content,
	}
}

func (s *Server) dashboard(c *gin.Context) {
	all, err := s.deps.Content.All(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	render(c, http.StatusOK, "dashboard.html", gin.H{
		"Projects":  all.Projects,
		"BlogPosts": all.BlogPosts,
	})
}

func (s *Server) addForm(c *gin.Context) {
	kind, ok := contentType(c)
	if !ok {
		return
	}
	render(c, http.StatusOK, "add_edit.html", gin.H{"Type": kind})
}

// saveEntry creates (id == "") or replaces an entry from the posted form.
// The entry built from the form is returned even when saving fails so the
// page can be re-rendered with the submitted values.
func (s *Server) saveEntry(c *gin.Context, kind, id string) (any, error) {
	ctx := c.Request.Context()
	if kind == typeProject {
		var f projectForm
		if err := c.ShouldBind(&f); err != nil {
			return nil, common.NewValidationError("", "invalid form")
		}
		p := f.project(id)
		var err error
		if id == "" {
			_, err = s.deps.Content.CreateProject(ctx, p)
		} else {
			_, err = s.deps.Content.ReplaceProject(ctx, p)
		}
		return p, err
	}

	var f blogForm
	if err := c.ShouldBind(&f); err != nil {
		return nil, common.NewValidationError("", "invalid form")
	}
	p := f.post(id)
	var err error
	if id == "" {
		_, err = s.deps.Content.CreateBlogPost(ctx, p)
	} else {
		_, err = s.deps.Content.ReplaceBlogPost(ctx, p)
	}
	return p, err
}

func (s *Server) add(c *gin.Context) {
	kind, ok := contentType(c)
	if !ok {
		return
	}
	if entry, err := s.saveEntry(c, kind, ""); err != nil {
		s.formFailure(c, kind, entry, err)
		return
	}
	redirectWithFlash(c, flashSuccess, contentLabel(kind)+" added successfully!", "/dashboard")
}

func (s *Server) lookupEntry(c *gin.Context, kind, id string) (any, error) {
	if kind == typeProject {
		return s.deps.Content.GetProject(c.Request.Context(), id)
	}
	return s.deps.Content.GetBlogPost(c.Request.Context(), id)
}

func (s *Server) editForm(c *gin.Context) {
	kind, ok := contentType(c)
	if !ok {
		return
	}
	entry, err := s.lookupEntry(c, kind, c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.Redirect(http.StatusSeeOther, "/dashboard")
			return
		}
		s.internalError(c, err)
		return
	}
	render(c, http.StatusOK, "add_edit.html", gin.H{"Type": kind, "Entry": entry})
}

func (s *Server) edit(c *gin.Context) {
	kind, ok := contentType(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if entry, err := s.saveEntry(c, kind, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.Redirect(http.StatusSeeOther, "/dashboard")
			return
		}
		s.formFailure(c, kind, entry, err)
		return
	}
	redirectWithFlash(c, flashSuccess, contentLabel(kind)+" updated successfully!", "/dashboard")
}

func (s *Server) deleteEntry(c *gin.Context) {
	kind, ok := contentType(c)
	if !ok {
		return
	}
	id := c.Param("id")
	var err error
	if kind == typeProject {
		err = s.deps.Content.DeleteProject(c.Request.Context(), id)
	} else {
		err = s.deps.Content.DeleteBlogPost(c.Request.Context(), id)
	}
	switch {
	case err == nil:
		redirectWithFlash(c, flashSuccess, contentLabel(kind)+" deleted successfully!", "/dashboard")
	case errors.Is(err, common.ErrorNotFound):
		redirectWithFlash(c, flashWarning, contentLabel(kind)+" not found.", "/dashboard")
	default:
		s.internalError(c, err)
	}
}

// formFailure re-renders the add/edit form with the rejection inline.
func (s *Server) formFailure(c *gin.Context, kind string, entry any, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.internalError(c, err)
		return
	}
	render(c, status, "add_edit.html", gin.H{"Type": kind, "Entry": entry, "Error": publicMessage(err)})
}
