package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/orodjarna/internal/store"
)

// AuthHandler handles token endpoints. Tokens are issued from the command
// line; the API only inspects and revokes them.
type AuthHandler struct {
	DB *sql.DB
}

type whoamiResponse struct {
	Subject   string `json:"subject"`
	Scope     string `json:"scope"`
	TokenID   string `json:"token_id"`
	ExpiresAt string `json:"expires_at"`
}

// Whoami handles GET /api/auth/whoami.
func (h *AuthHandler) Whoami(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	resp := whoamiResponse{Subject: claims.Subject, Scope: claims.Scope, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("revoking token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}

	slog.Info("token revoked", "subject", claims.Subject, "token", claims.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
