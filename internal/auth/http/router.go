package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/woowonjae/blogauth/internal/auth/service"
	"github.com/woowonjae/blogauth/internal/auth/store"
	"github.com/woowonjae/blogauth/pkg/httpx"
	"github.com/woowonjae/blogauth/pkg/jwtx"
	"github.com/woowonjae/blogauth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	adminRole    string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AuthService      *service.AuthService
	MigrationService *service.PasswordMigrationService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion, adminRole string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		adminRole:    adminRole,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{AuthService: r.AuthService}
	registerHandler := &RegisterHandler{AuthService: r.AuthService}

	r.Mux.Handle("POST /api/auth/login", loginHandler)
	r.Mux.Handle("POST /api/auth/register", registerHandler)
}

func (r *Router) registerAdmin() {
	h := &MigrateHandler{MigrationService: r.MigrationService}

	// The batch endpoint requires a validated token whose role set carries
	// the administrative role.
	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyRole(r.adminRole),
	)

	r.Mux.Handle("POST /api/admin/migrate-passwords", secured)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
