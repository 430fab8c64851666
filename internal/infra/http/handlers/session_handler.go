package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/identity"
)

const sessionMaxAge = 60 * 24 * time.Hour

type IdentityService interface {
	RedirectURL(ctx context.Context, provider string) (string, error)
	ExchangeCode(ctx context.Context, code string) (string, error)
	CurrentUser(ctx context.Context, sessionToken string) (*identity.User, error)
	DeleteSession(ctx context.Context, sessionToken string) error
}

// SessionHandler proxies the console login flow to the identity service.
type SessionHandler struct {
	Identity   IdentityService
	CookieName string
}

func NewSessionHandler(id IdentityService, cookieName string) *SessionHandler {
	return &SessionHandler{Identity: id, CookieName: cookieName}
}

func (h *SessionHandler) RedirectURL(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.RedirectURL(r.Context(), "google")
	if err != nil {
		zap.L().Error("oauth redirect url", zap.Error(err))
		writeErrorResponse(w, http.StatusBadGateway, "IDENTITY_ERROR", "could not reach the identity service")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirectUrl": u})
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		writeErrorResponse(w, http.StatusBadRequest, "VALIDATION_ERROR", "no authorization code provided")
		return
	}

	token, err := h.Identity.ExchangeCode(r.Context(), body.Code)
	if err != nil {
		zap.L().Warn("exchange authorization code", zap.Error(err))
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authorization code rejected")
		return
	}

	http.SetCookie(w, h.cookie(token, int(sessionMaxAge.Seconds())))
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.CookieName); err == nil && c.Value != "" {
		if err := h.Identity.DeleteSession(r.Context(), c.Value); err != nil {
			zap.L().Warn("delete session", zap.Error(err))
		}
	}

	http.SetCookie(w, h.cookie("", -1))
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *SessionHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func actor(ctx context.Context) string {
	if user, ok := middleware.UserFromContext(ctx); ok {
		return user.Email
	}
	return ""
}
