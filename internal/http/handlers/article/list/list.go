// Package list implements the HTTP handler listing articles visible to the
// caller, with an optional status filter and limit/offset pagination.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kidsweekly/content-api/internal/http/middlewarectx"
	"github.com/kidsweekly/content-api/internal/http/response"
	"github.com/kidsweekly/content-api/internal/lib/sl"
	"github.com/kidsweekly/content-api/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler handles article listing requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the listing operation used by the handler.
type Service interface {
	List(ctx context.Context, actor *models.Identity, status *models.Status, limit, offset int) ([]*models.Article, error)
}

// New creates a list Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List articles
// @Description Lists articles visible to the caller: approved ones for anonymous readers, own articles for editors, everything for admins.
// @Tags Articles
// @Produce  json
// @Param status query string false "Filter by status (pending or approved)"
// @Param limit query int false "Page size, up to 100"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Response "Articles"
// @Failure 400 {object} response.Response "Unknown status value"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /articles [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var status *models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			log.Info("unknown status filter", slog.String("status", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown status"))
			return
		}
		status = &parsed
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}

	actor := middlewarectx.IdentityFromContext(r.Context())
	res, err := h.service.List(r.Context(), actor, status, limit, offset)
	if err != nil {
		log.Error("failed to list articles", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"articles": res,
		"count":    len(res),
	}))
}
