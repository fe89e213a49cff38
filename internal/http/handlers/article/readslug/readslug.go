// Package readslug implements the HTTP handler fetching a single article by
// its slug. This is the public lookup: approved articles are visible to
// everyone, unapproved ones only to their author or an admin.
package readslug

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kidsweekly/content-api/internal/http/middlewarectx"
	"github.com/kidsweekly/content-api/internal/http/response"
	"github.com/kidsweekly/content-api/internal/lib/sl"
	"github.com/kidsweekly/content-api/internal/models"
	"github.com/kidsweekly/content-api/internal/storage/repository"
)

// Handler handles by-slug article lookups.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the by-slug read operation used by the handler.
type Service interface {
	GetBySlug(ctx context.Context, actor *models.Identity, slug string) (*models.Article, error)
}

// New creates a readslug Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Get an article by slug
// @Description Returns one article by its URL slug. Unapproved articles are visible only to their author or an admin.
// @Tags Articles
// @Produce  json
// @Param slug path string true "Article slug"
// @Success 200 {object} response.Response "Article"
// @Failure 404 {object} response.Response "Article not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /articles/slug/{slug} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.readslug"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	slug := chi.URLParam(r, "slug")
	actor := middlewarectx.IdentityFromContext(r.Context())

	res, err := h.service.GetBySlug(r.Context(), actor, slug)
	if errors.Is(err, repository.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("article not found"))
		return
	}
	if err != nil {
		log.Error("failed to read article", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"article": res,
	}))
}
