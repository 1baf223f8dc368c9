// Package handler provides the HTTP surface of the token broker.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/averlon/tokenbroker/internal/logger"
	"github.com/averlon/tokenbroker/internal/oauth/broker"
	"github.com/averlon/tokenbroker/internal/oauth/models"
	"github.com/averlon/tokenbroker/internal/oauth/providers"
	"github.com/averlon/tokenbroker/internal/utils"
	"go.uber.org/zap"
)

// defaultUserID keys records when neither the provider nor the caller
// supplies a user id (tokens-only providers with anonymous callbacks).
const defaultUserID = "user123"

// Handler handles the OAuth broker HTTP requests
type Handler struct {
	registry *providers.Registry
	broker   *broker.Broker
}

// NewHandler creates a new Handler instance
func NewHandler(registry *providers.Registry, b *broker.Broker) *Handler {
	return &Handler{
		registry: registry,
		broker:   b,
	}
}

// RegisterRoutes registers all OAuth broker routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/oauth/authorize/{provider}", h.HandleAuthorize)
	mux.HandleFunc("GET /api/oauth/callback/{provider}", h.HandleCallback)
	mux.HandleFunc("POST /api/oauth/refresh/{provider}", h.HandleRefresh)
	mux.HandleFunc("GET /api/oauth/me/{provider}", h.HandleMe)
	mux.HandleFunc("GET /api/oauth/providers", h.HandleProviders)
}

// HandleAuthorize redirects the caller to the provider's authorization page
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	adapter, ok := h.createAdapter(w, r)
	if !ok {
		return
	}

	authURL, err := adapter.AuthorizationURL()
	if err != nil {
		logger.Error("Failed to build authorization URL",
			zap.String("provider", adapter.Name()), zap.Error(err))
		utils.WriteError(w, "server_error", "Failed to build authorization URL", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback exchanges the authorization code delivered by the provider
// and stores the resulting token
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	adapter, ok := h.createAdapter(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	if errCode := query.Get("error"); errCode != "" {
		utils.WriteError(w, errCode, query.Get("error_description"), http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		utils.WriteError(w, "invalid_request", "Code is required", http.StatusBadRequest)
		return
	}

	token, err := adapter.ExchangeCode(r.Context(), code, query.Get("code_verifier"), query.Get("state"))
	if err != nil {
		logger.Error("Failed to exchange code",
			zap.String("provider", adapter.Name()), zap.Error(err))
		writeProviderError(w, err)
		return
	}

	userID := h.resolveUserID(r, adapter, token, query.Get("user_id"))
	if err := h.broker.StoreToken(r.Context(), userID, adapter.Name(), token); err != nil {
		logger.Error("Failed to store token",
			zap.String("provider", adapter.Name()), zap.Error(err))
		utils.WriteError(w, "server_error", "Failed to store token", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"message":    "Successfully authenticated with " + adapter.Name(),
		"provider":   adapter.Name(),
		"user_id":    userID,
		"token_info": token,
	})
}

// HandleRefresh performs an explicit refresh for a stored token
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	providerName := r.PathValue("provider")

	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.RefreshToken == "" {
		utils.WriteError(w, "invalid_request", "user_id and refresh_token are required", http.StatusBadRequest)
		return
	}

	token, err := h.broker.Refresh(r.Context(), req.UserID, providerName, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, providers.ErrUnsupportedProvider):
			utils.WriteError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		case errors.Is(err, broker.ErrTokenNotFound):
			utils.WriteError(w, "not_found", "No token found for user "+req.UserID+" and provider "+providerName, http.StatusNotFound)
		default:
			logger.Error("Failed to refresh token",
				zap.String("provider", providerName), zap.Error(err))
			writeProviderError(w, err)
		}
		return
	}

	utils.WriteJSON(w, map[string]any{
		"message":      "Token refreshed successfully",
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_in":   token.ExpiresIn,
		"provider":     providerName,
		"user_id":      req.UserID,
	})
}

// HandleMe returns normalized user info for the caller's stored token
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	providerName := r.PathValue("provider")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = defaultUserID
	}

	info, err := h.broker.UserInfo(r.Context(), userID, providerName)
	if err != nil {
		switch {
		case errors.Is(err, providers.ErrUnsupportedProvider):
			utils.WriteError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		case errors.Is(err, broker.ErrTokenNotFound):
			utils.WriteError(w, "not_found", "No token found for user "+userID+" and provider "+providerName, http.StatusNotFound)
		case errors.Is(err, providers.ErrUserInfoNotSupported):
			// A valid terminal step: the provider hands out tokens only.
			utils.WriteJSON(w, map[string]any{
				"provider":            providerName,
				"user_info_supported": false,
				"message":             "Provider returns tokens only; use the access token directly",
			})
		default:
			logger.Error("Failed to fetch user info",
				zap.String("provider", providerName), zap.Error(err))
			writeProviderError(w, err)
		}
		return
	}

	utils.WriteJSON(w, info)
}

// HandleProviders lists the registered provider names
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, map[string]any{
		"providers": h.registry.Names(),
	})
}

// createAdapter resolves the {provider} path parameter into an adapter,
// answering the request itself on failure.
func (h *Handler) createAdapter(w http.ResponseWriter, r *http.Request) (providers.Provider, bool) {
	name := r.PathValue("provider")
	adapter, err := h.registry.Create(name)
	if err != nil {
		utils.WriteError(w, "invalid_request", "Unsupported provider: "+name, http.StatusBadRequest)
		return nil, false
	}
	return adapter, true
}

// resolveUserID picks the canonical storage key for an exchanged token: the
// provider-asserted id when user info is available, otherwise the
// caller-supplied id, otherwise the fixed default.
func (h *Handler) resolveUserID(r *http.Request, adapter providers.Provider, token *models.TokenResponse, requested string) string {
	info, err := adapter.UserInfo(r.Context(), token.AccessToken)
	if err == nil && info.ID != "" {
		return info.ID
	}
	if err != nil && !errors.Is(err, providers.ErrUserInfoNotSupported) {
		logger.Warn("Could not resolve provider-asserted user id",
			zap.String("provider", adapter.Name()), zap.Error(err))
	}
	if requested != "" {
		return requested
	}
	return defaultUserID
}

// writeProviderError maps adapter failures onto HTTP responses without
// discarding provider detail.
func writeProviderError(w http.ResponseWriter, err error) {
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		utils.WriteRawError(w, provErr.StatusCode, provErr.Body)
		return
	}

	var transErr *providers.TransportError
	if errors.As(err, &transErr) {
		utils.WriteError(w, "transport_error", transErr.Error(), http.StatusBadGateway)
		return
	}

	if errors.Is(err, providers.ErrMissingPKCEVerifier) {
		utils.WriteError(w, "invalid_request", "Missing code_verifier", http.StatusBadRequest)
		return
	}

	utils.WriteError(w, "server_error", err.Error(), http.StatusInternalServerError)
}
