package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/permission"
	"github.com/frahmantamala/hr-approvals/internal/transport/middleware"
	"github.com/frahmantamala/hr-approvals/internal/transport/swagger"
)

// KindRoutes mounts the endpoints of one request kind.
type KindRoutes interface {
	Routes(r chi.Router)
}

type Handlers struct {
	Advances    KindRoutes
	Raises      KindRoutes
	Letters     KindRoutes
	Permissions *permission.Handler
	ChainConfig *approval.Handler
	// Checker guards chain configuration with APPROVAL_CHAINS_MANAGE.
	Checker middleware.PermissionChecker
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, outbox OutboxProbe, docPath string, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, outbox)

	router.Use(middleware.CORS())
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, docPath)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		r.Group(func(pr chi.Router) {
			pr.Use(middleware.UserContext)
			pr.Use(middleware.LoggingMiddleware)

			for path, kind := range map[string]KindRoutes{
				"/advances": h.Advances,
				"/raises":   h.Raises,
				"/letters":  h.Letters,
			} {
				if kind != nil {
					pr.Route(path, kind.Routes)
				}
			}

			if h.Permissions != nil {
				pr.Route("/permissions", h.Permissions.Routes)
			}

			if h.ChainConfig != nil && h.Checker != nil {
				pr.Route("/chain-configs", func(cr chi.Router) {
					cr.Use(middleware.RequirePermission(h.Checker, permission.ApprovalChainsManage, logger))
					cr.Get("/{requestType}", h.ChainConfig.GetChainConfig)
					cr.Put("/{requestType}", h.ChainConfig.PutChainConfig)
				})
			}
		})
	})
}
