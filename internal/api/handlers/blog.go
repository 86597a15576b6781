package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/api/dto"
	"github.com/hugh/localspace/internal/api/middleware"
	"github.com/hugh/localspace/internal/api/validation"
	"github.com/hugh/localspace/internal/blog"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/workspace"
)

const msgBlogDeleted = "Blog deleted successfully."

type BlogHandler struct {
	blogs  *blog.Service
	logger *slog.Logger
}

func NewBlogHandler(blogs *blog.Service, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{blogs: blogs, logger: logger}
}

type blogResponse struct {
	Blog dto.BlogDTO `json:"blog"`
}

func (h *BlogHandler) ids(w http.ResponseWriter, r *http.Request) (wsID, blogID uuid.UUID, ok bool) {
	if wsID, ok = pathID(w, r, "workspaceID", workspace.MsgNotFound); !ok {
		return
	}
	blogID, ok = pathID(w, r, "blogID", blog.MsgNotFound)
	return
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	wsID, ok := pathID(w, r, "workspaceID", workspace.MsgNotFound)
	if !ok {
		return
	}
	var req dto.CreateBlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.blogs.Create(r.Context(), middleware.GetUser(r.Context()), wsID, blog.Content{
		Title:   validation.SanitizeString(req.Title),
		Content: validation.SanitizeString(req.Content),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, blogResponse{Blog: dto.ToBlogDTO(b)})
}

func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	wsID, ok := pathID(w, r, "workspaceID", workspace.MsgNotFound)
	if !ok {
		return
	}
	req, ok := listRequest(w, r, blog.OrderColumns)
	if !ok {
		return
	}

	q := req.Query()
	q.Normalize(blog.OrderColumns...)
	blogs, total, err := h.blogs.List(r.Context(), middleware.GetUser(r.Context()), wsID, q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPage(dto.ToBlogDTOs(blogs), total, q))
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	wsID, blogID, ok := h.ids(w, r)
	if !ok {
		return
	}

	b, err := h.blogs.Get(r.Context(), middleware.GetUser(r.Context()), wsID, blogID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, blogResponse{Blog: dto.ToBlogDTO(b)})
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	wsID, blogID, ok := h.ids(w, r)
	if !ok {
		return
	}
	var req dto.UpdateBlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.blogs.Update(r.Context(), middleware.GetUser(r.Context()), wsID, blogID, blog.Content{
		Title:   validation.SanitizeString(req.Title),
		Content: validation.SanitizeString(req.Content),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, blogResponse{Blog: dto.ToBlogDTO(b)})
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	wsID, blogID, ok := h.ids(w, r)
	if !ok {
		return
	}

	if err := h.blogs.Delete(r.Context(), middleware.GetUser(r.Context()), wsID, blogID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: msgBlogDeleted})
}

func (h *BlogHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.blogs.Publish)
}

func (h *BlogHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.blogs.Unpublish)
}

func (h *BlogHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.blogs.Archive)
}

type statusChange func(ctx context.Context, actor *models.User, workspaceID, blogID uuid.UUID) (*models.Blog, error)

func (h *BlogHandler) transition(w http.ResponseWriter, r *http.Request, change statusChange) {
	wsID, blogID, ok := h.ids(w, r)
	if !ok {
		return
	}

	b, err := change(r.Context(), middleware.GetUser(r.Context()), wsID, blogID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, blogResponse{Blog: dto.ToBlogDTO(b)})
}
