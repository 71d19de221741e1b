package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/woowonjae/blogauth/internal/auth/service"
	"github.com/woowonjae/blogauth/pkg/httpx"
	"github.com/woowonjae/blogauth/pkg/slogx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Body must be valid JSON",
		})
		return
	}

	result, err := h.AuthService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
				Error:            "invalid_credentials",
				ErrorDescription: "Username or password is incorrect",
			})
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to process login",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:     result.Token,
		TokenType: result.TokenType,
		UserID:    result.UserID,
		Username:  result.Username,
		Email:     result.Email,
		Roles:     result.Roles,
	})
}
