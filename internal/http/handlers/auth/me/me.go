// Package me implements the HTTP handler returning the authenticated user's
// account.
package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kidsweekly/content-api/internal/http/middlewarectx"
	"github.com/kidsweekly/content-api/internal/http/response"
	"github.com/kidsweekly/content-api/internal/lib/sl"
	"github.com/kidsweekly/content-api/internal/models"
	"github.com/kidsweekly/content-api/internal/storage/repository"
)

// Handler handles current-user lookups.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the account lookup used by the handler.
type Service interface {
	Me(ctx context.Context, userID string) (*models.PublicUser, error)
}

// New creates a me Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Current user
// @Description Returns the account of the authenticated caller.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Current user"
// @Failure 401 {object} response.Response "Authentication required"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor := middlewarectx.IdentityFromContext(r.Context())
	if actor == nil {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	user, err := h.service.Me(r.Context(), actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		// Token outlived the account.
		log.Info("account gone", slog.String("user_id", actor.ID))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}
	if err != nil {
		log.Error("failed to load user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"user": user,
	}))
}
