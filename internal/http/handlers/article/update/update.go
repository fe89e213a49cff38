// Package update implements the HTTP handler for partial article updates.
//
// Only fields present in the payload change. A title change reallocates the
// slug; the status field takes effect only for admins and is dropped
// silently otherwise.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kidsweekly/content-api/internal/http/middlewarectx"
	"github.com/kidsweekly/content-api/internal/http/response"
	"github.com/kidsweekly/content-api/internal/lib/sl"
	"github.com/kidsweekly/content-api/internal/models"
	"github.com/kidsweekly/content-api/internal/services/article"
	"github.com/kidsweekly/content-api/internal/storage/repository"
)

// Handler handles article update requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service describes the update operation used by the handler.
type Service interface {
	Update(ctx context.Context, actor models.Identity, id int, req models.UpdateArticleRequest) (*models.Article, error)
}

// New creates an update Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Update an article
// @Description Applies a partial update to an article owned by the caller (or any article for admins).
// @Tags Articles
// @Accept  json
// @Produce  json
// @Param id path int true "Article ID"
// @Param request body models.UpdateArticleRequest true "Fields to change"
// @Success 200 {object} response.Response "Updated article"
// @Failure 400 {object} response.Response "Malformed JSON, empty update or unknown category"
// @Failure 401 {object} response.Response "Authentication required"
// @Failure 403 {object} response.Response "Not the author"
// @Failure 404 {object} response.Response "Article not found"
// @Failure 409 {object} response.Response "No free slug for the new title"
// @Failure 422 {object} response.Response "Validation failed"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /articles/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.update"

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

	var req models.UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	actor := middlewarectx.IdentityFromContext(r.Context())
	res, err := h.service.Update(r.Context(), *actor, id, req)
	switch {
	case errors.Is(err, article.ErrNoFields):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("no fields to update"))
		return
	case errors.Is(err, article.ErrInvalidCategory):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown category"))
		return
	case errors.Is(err, repository.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("article not found"))
		return
	case errors.Is(err, article.ErrForbidden):
		log.Info("forbidden update attempt", slog.Int("id", id), slog.String("actor", actor.ID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("you can only edit your own articles"))
		return
	case errors.Is(err, repository.ErrSlugTaken):
		log.Error("no free slug for new title", slog.Int("id", id))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("could not allocate a unique slug"))
		return
	case err != nil:
		log.Error("failed to update article", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("article updated", slog.Int("id", res.ID), slog.String("status", string(res.Status)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"article": res,
	}))
}
