package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/heartline/internal/auth"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/service"
)

// AuthHandler serves registration, login and account endpoints for all three
// account kinds. The role comes from the route, never from the body.
type AuthHandler struct {
	service      *service.AuthService
	logger       *slog.Logger
	tokenTTL     time.Duration
	secureCookie bool
}

func NewAuthHandler(svc *service.AuthService, tokenTTL time.Duration, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger, tokenTTL: tokenTTL, secureCookie: secureCookie}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	Age      int    `json:"age" validate:"gte=0,lte=150"`
	Category string `json:"category"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister returns a handler that registers an account of the given role.
// POST /api/{users|creators|admins}/register
func (h *AuthHandler) HandleRegister(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, err)
			return
		}

		res, err := h.service.Register(r.Context(), role, service.Registration{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Age:      req.Age,
			Category: req.Category,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		h.setTokenCookie(w, res.Token)
		writeJSON(w, http.StatusCreated, res)
	}
}

// HandleLogin returns a handler that logs in an account of the given role.
// POST /api/{users|creators|admins}/login
func (h *AuthHandler) HandleLogin(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, err)
			return
		}

		res, err := h.service.Login(r.Context(), role, req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		h.setTokenCookie(w, res.Token)
		writeJSON(w, http.StatusOK, res)
	}
}

// HandleMe returns the caller's own account.
// GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	account, err := h.service.Me(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// HandleListUsers handles GET /api/users (admins only).
func (h *AuthHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	users, err := h.service.ListUsers(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleDashboard handles GET /api/admins/dashboard.
func (h *AuthHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := h.service.Dashboard(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// setTokenCookie mirrors the bearer token into an HttpOnly cookie for browser
// clients. auth.RequireAuth reads it when no Authorization header is sent.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
