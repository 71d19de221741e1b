package http

import (
	"net/http"

	"github.com/woowonjae/blogauth/internal/auth/service"
	"github.com/woowonjae/blogauth/pkg/httpx"
	"github.com/woowonjae/blogauth/pkg/slogx"
)

// MigrateHandler runs the one-shot credential migration batch. The router
// wraps it in authn + admin-role middleware; by the time ServeHTTP runs the
// caller is a validated administrator.
type MigrateHandler struct {
	MigrationService *service.PasswordMigrationService
}

func (h *MigrateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	report, err := h.MigrationService.MigratePasswords(ctx)
	if err != nil {
		log.Error("credential migration batch failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Credential migration failed",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, report)
}
