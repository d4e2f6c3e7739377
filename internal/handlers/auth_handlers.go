package handlers

import (
	"net/http"

	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// AuthHandler handles authentication-related routes
type AuthHandler struct {
	authService AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthServiceInterface) *AuthHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	return &AuthHandler{
		authService: authService,
	}
}

// Login handles user authentication.
//
// HTTP Method:
//   - POST
//
// URL Path:
//   - /api/auth/login
//
// Responses:
//   - 200 OK: Access token issued
//   - 400 Bad Request: Invalid request body
//   - 401 Unauthorized: Invalid username or password
//   - 429 Too Many Requests: Login rate limit exceeded (admission)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, token)
}
