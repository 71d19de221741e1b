package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/woowonjae/blogauth/internal/auth/service"
	"github.com/woowonjae/blogauth/pkg/httpx"
	"github.com/woowonjae/blogauth/pkg/slogx"
)

type RegisterHandler struct {
	AuthService *service.AuthService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Body must be valid JSON",
		})
		return
	}

	userID, err := h.AuthService.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRegistration):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "username, email and password are required",
			})
		case errors.Is(err, service.ErrUsernameTaken):
			httpx.WriteJSON(w, http.StatusConflict, httpx.ErrorResponse{
				Error:            "username_taken",
				ErrorDescription: "Username is already in use",
			})
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteJSON(w, http.StatusConflict, httpx.ErrorResponse{
				Error:            "email_taken",
				ErrorDescription: "Email is already in use",
			})
		case errors.Is(err, service.ErrRoleNotConfigured):
			// Operator problem, not a caller problem.
			log.Error("registration hit missing default role", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "configuration_error",
				ErrorDescription: "Registration is temporarily unavailable",
			})
		default:
			log.Error("registration failed", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to register user",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, RegisterResponse{
		UserID:   userID,
		Username: req.Username,
	})
}
