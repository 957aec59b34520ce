package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/antibyte/zen/pkg/logger"
)

// ValidationResponse is returned by HandleTokenValidation.
type ValidationResponse struct {
	Valid     bool      `json:"valid"`
	Subject   string    `json:"subject,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// HandleTokenValidation lets a client check its token before opening
// the websocket.
func HandleTokenValidation(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		logger.Warn(logger.AreaAuth, "Invalid method for token validation: %s", r.Method)
		respond(w, http.StatusMethodNotAllowed, ValidationResponse{Message: "method not allowed"})
		return
	}

	tokenString, err := ExtractTokenFromRequest(r)
	if err != nil {
		respond(w, http.StatusUnauthorized, ValidationResponse{Message: err.Error()})
		return
	}

	claims, err := ValidateToken(tokenString)
	if err != nil {
		logger.Debug(logger.AreaAuth, "Token validation failed: %v", err)
		respond(w, http.StatusUnauthorized, ValidationResponse{Message: "invalid token"})
		return
	}

	resp := ValidationResponse{Valid: true, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	respond(w, http.StatusOK, resp)
}

func respond(w http.ResponseWriter, status int, body ValidationResponse) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error(logger.AreaAuth, "Failed to encode response: %v", err)
	}
}
