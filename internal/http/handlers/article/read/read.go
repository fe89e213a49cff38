// Package read implements the HTTP handler fetching a single article by its
// numeric id. Visibility follows the management rules: admins see all
// articles, editors their own, anonymous readers only approved ones.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kidsweekly/content-api/internal/http/middlewarectx"
	"github.com/kidsweekly/content-api/internal/http/response"
	"github.com/kidsweekly/content-api/internal/lib/sl"
	"github.com/kidsweekly/content-api/internal/models"
	"github.com/kidsweekly/content-api/internal/storage/repository"
)

// Handler handles by-id article lookups.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the by-id read operation used by the handler.
type Service interface {
	Get(ctx context.Context, actor *models.Identity, id int) (*models.Article, error)
}

// New creates a read Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Get an article by id
// @Description Returns one article. Articles invisible to the caller read as not found.
// @Tags Articles
// @Produce  json
// @Param id path int true "Article ID"
// @Success 200 {object} response.Response "Article"
// @Failure 400 {object} response.Response "Non-numeric id"
// @Failure 404 {object} response.Response "Article not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /articles/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid article id"))
		return
	}

	actor := middlewarectx.IdentityFromContext(r.Context())
	res, err := h.service.Get(r.Context(), actor, id)
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
