package contentapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/kidsweekly/content-api/internal/http/handlers/article/create"
	"github.com/kidsweekly/content-api/internal/http/handlers/article/list"
	"github.com/kidsweekly/content-api/internal/http/handlers/article/read"
	"github.com/kidsweekly/content-api/internal/http/handlers/article/readslug"
	"github.com/kidsweekly/content-api/internal/http/handlers/article/remove"
	"github.com/kidsweekly/content-api/internal/http/handlers/article/update"
	"github.com/kidsweekly/content-api/internal/http/handlers/auth/login"
	"github.com/kidsweekly/content-api/internal/http/handlers/auth/me"
	"github.com/kidsweekly/content-api/internal/http/handlers/auth/register"
	"github.com/kidsweekly/content-api/internal/http/middlewarectx"
	"github.com/kidsweekly/content-api/internal/http/response"
	articleservice "github.com/kidsweekly/content-api/internal/services/article"
	authservice "github.com/kidsweekly/content-api/internal/services/auth"
	"github.com/kidsweekly/content-api/internal/lib/jwt"
)

// RegisterRoutes registers all application routes.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, authSvc *authservice.AuthService, articleSvc *articleservice.ArticleService) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	r.Use(middlewarectx.ResolveIdentity(jwtMaker, logger))
	r.Use(middlewarectx.MetricsMiddleware)
	r.Use(middlewarectx.RateLimitMiddleware(logger))

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		render.JSON(w, req, response.Error("method not allowed"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Identity-aware but open endpoints. Registration stays open so a
		// logged-in admin can create other admins through the same route.
		r.Post("/auth/login", login.New(logger, authSvc).ServeHTTP)
		r.Post("/auth/register", register.New(logger, authSvc).ServeHTTP)

		// Public reads.
		r.Get("/articles", list.New(logger, articleSvc).ServeHTTP)
		r.Get("/articles/{id}", read.New(logger, articleSvc).ServeHTTP)
		r.Get("/articles/slug/{slug}", readslug.New(logger, articleSvc).ServeHTTP)

		// Authenticated group.
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireIdentity(logger))
			r.Get("/auth/me", me.New(logger, authSvc).ServeHTTP)
			r.Post("/articles", create.New(logger, articleSvc).ServeHTTP)
			r.Put("/articles/{id}", update.New(logger, articleSvc).ServeHTTP)
			r.Delete("/articles/{id}", remove.New(logger, articleSvc).ServeHTTP)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, response.OK())
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
