package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/config"
)

// AuthHandler serves /auth/login and issues JWTs for the operator account.
type AuthHandler struct {
	admin     config.AdminConfig
	jwtSecret string
	expiresIn time.Duration
	logger    *slog.Logger
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the success body.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
	Username    string `json:"username"`
}

func NewAuthHandler(log *slog.Logger, admin config.AdminConfig, jwtSecret string, expiresIn time.Duration) *AuthHandler {
	return &AuthHandler{
		admin:     admin,
		jwtSecret: jwtSecret,
		expiresIn: expiresIn,
		logger:    log.With(slog.String("handler", "auth")),
	}
}

// Register mounts POST /auth/login on the Echo instance.
func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/auth/login", h.Login)
}

func (h *AuthHandler) Login(c echo.Context) error {
	if strings.TrimSpace(h.jwtSecret) == "" {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "jwt secret not configured"})
	}
	if h.expiresIn <= 0 {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "jwt expiry not configured"})
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username and password are required"})
	}

	if !h.verify(req.Username, req.Password) {
		h.logger.Warn("login rejected", slog.String("username", req.Username))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	}

	token, expiresAt, err := auth.GenerateToken(req.Username, h.jwtSecret, h.expiresIn)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		Username:    req.Username,
	})
}

// verify checks the credentials against the configured operator account.
// A bcrypt hash takes precedence; the plain password field is for development.
func (h *AuthHandler) verify(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(h.admin.Username)) != 1 {
		return false
	}
	if h.admin.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(password)) == nil
	}
	if h.admin.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(h.admin.Password)) == 1
}
