// Package create implements the HTTP handler for submitting a new article.
//
// Editors always end up with a pending article regardless of the requested
// status; only admins may create approved articles directly.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

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

// Handler handles article creation requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service describes the creation operation used by the handler.
type Service interface {
	Create(ctx context.Context, actor models.Identity, req models.CreateArticleRequest) (*models.Article, error)
}

// New creates a create Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Submit an article
// @Description Creates an article owned by the caller. Non-admin submissions are stored as pending.
// @Tags Articles
// @Accept  json
// @Produce  json
// @Param request body models.CreateArticleRequest true "Article payload"
// @Success 200 {object} response.Response "Created article"
// @Failure 400 {object} response.Response "Malformed JSON or unknown category"
// @Failure 401 {object} response.Response "Authentication required"
// @Failure 409 {object} response.Response "No free slug for the title"
// @Failure 422 {object} response.Response "Validation failed"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /articles [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CreateArticleRequest
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
	res, err := h.service.Create(r.Context(), *actor, req)
	switch {
	case errors.Is(err, article.ErrInvalidCategory):
		log.Info("unknown category", slog.String("category", req.Category))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown category"))
		return
	case errors.Is(err, repository.ErrSlugTaken):
		log.Error("no free slug for title", slog.String("title", req.Title))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("could not allocate a unique slug"))
		return
	case err != nil:
		log.Error("failed to create article", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("article created", slog.Int("id", res.ID), slog.String("slug", res.Slug))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"article": res,
	}))
}
