package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"BeatWave/config"
	"BeatWave/core/auth"
	"BeatWave/core/catalog"
	"BeatWave/core/marketplace"
	"BeatWave/core/submission"
	"BeatWave/logger"
	"BeatWave/repository"
	"BeatWave/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	facade      *marketplace.Facade
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	blobStore   *storage.BeatStore
	cfg         *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	facade *marketplace.Facade,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	blobStore *storage.BeatStore,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		facade:      facade,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		blobStore:   blobStore,
		cfg:         cfg,
	}
}

// AuthMiddleware checks for a valid JWT token and stores the caller's
// identity in the request context. Handlers read it back and pass it to the
// facade explicitly.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// decodeJSONBody decodes a JSON request body into dst.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeMarketplaceError maps facade errors onto HTTP status codes:
// invalid submission 400, payload too large 413, not found 404,
// everything else 500.
func writeMarketplaceError(w http.ResponseWriter, err error) {
	var invalid *submission.InvalidSubmissionError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: invalid.Error(), Field: invalid.Field})
		return
	}

	var tooLarge *submission.PayloadTooLargeError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: tooLarge.Error(), Field: tooLarge.Field})
		return
	}

	if errors.Is(err, catalog.ErrBeatNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "beat not found"})
		return
	}

	logger.Error("request failed", logger.ErrorField(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}
