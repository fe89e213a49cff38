// Package remove implements the HTTP handler deleting an article.
package remove

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
	"github.com/kidsweekly/content-api/internal/services/article"
	"github.com/kidsweekly/content-api/internal/storage/repository"
)

// Handler handles article deletion requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the delete operation used by the handler.
type Service interface {
	Delete(ctx context.Context, actor models.Identity, id int) error
}

// New creates a remove Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Delete an article
// @Description Deletes an article owned by the caller (or any article for admins).
// @Tags Articles
// @Produce  json
// @Param id path int true "Article ID"
// @Success 200 {object} response.Response "Deleted"
// @Failure 400 {object} response.Response "Non-numeric id"
// @Failure 401 {object} response.Response "Authentication required"
// @Failure 403 {object} response.Response "Not the author"
// @Failure 404 {object} response.Response "Article not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /articles/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.remove"

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
	err = h.service.Delete(r.Context(), *actor, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("article not found"))
		return
	case errors.Is(err, article.ErrForbidden):
		log.Info("forbidden delete attempt", slog.Int("id", id), slog.String("actor", actor.ID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("you can only delete your own articles"))
		return
	case err != nil:
		log.Error("failed to delete article", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("article deleted", slog.Int("id", id))
	render.JSON(w, r, response.OK())
}
