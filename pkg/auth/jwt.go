package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/antibyte/zen/pkg/configuration"
	"github.com/antibyte/zen/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultJWTSecret = "fallback_secret_change_in_production"
	tokenIssuer      = "zen"

	// SecretEnvVar overrides [JWT] secret_key.
	SecretEnvVar = "ZEN_JWT_SECRET"
)

var (
	ErrNoToken      = errors.New("no token found in request")
	ErrInvalidToken = errors.New("invalid token")
)

// getJWTSecret retrieves the signing secret from the environment or the
// configuration.
func getJWTSecret() string {
	if envSecret := os.Getenv(SecretEnvVar); envSecret != "" {
		return envSecret
	}

	secret := configuration.GetString("JWT", "secret_key", defaultJWTSecret)
	if secret == "" || secret == defaultJWTSecret {
		logger.Warn(logger.AreaAuth, "Using fallback JWT secret - set %s for production!", SecretEnvVar)
		return defaultJWTSecret
	}
	return secret
}

func getTokenExpiration() time.Duration {
	hours := configuration.GetInt("JWT", "token_expiration_hours", 24)
	return time.Duration(hours) * time.Hour
}

// Claims identify a client of the remote execution endpoint.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs a token for subject with the configured lifetime.
func GenerateToken(subject string) (string, error) {
	return generateToken(subject, getTokenExpiration())
}

func generateToken(subject string, lifetime time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject must not be empty")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   subject,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(getJWTSecret()))
	if err != nil {
		return "", fmt.Errorf("token could not be signed: %w", err)
	}

	logger.Info(logger.AreaAuth, "Token generated for subject %s (jti %s, expires in %v)", subject, claims.ID, lifetime)
	return signedToken, nil
}

// ValidateToken checks signature, issuer and expiry of tokenString.
func ValidateToken(tokenString string) (*Claims, error) {
	secretKey := getJWTSecret()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing algorithm: %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractTokenFromRequest reads the token from an "Authorization: Bearer"
// header or the token query parameter. Browsers cannot set headers on a
// websocket upgrade, hence the query fallback.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1], nil
		}
		return "", fmt.Errorf("invalid authorization header format")
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	return "", ErrNoToken
}

// RequireToken rejects requests without a valid token and stores the
// claims of accepted ones in the request context.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := ExtractTokenFromRequest(r)
		if err != nil {
			logger.Warn(logger.AreaAuth, "Rejected %s %s from %s: %v", r.Method, r.URL.Path, r.RemoteAddr, err)
			http.Error(w, "Unauthorized: token missing", http.StatusUnauthorized)
			return
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			logger.Warn(logger.AreaAuth, "Rejected %s %s from %s: %v", r.Method, r.URL.Path, r.RemoteAddr, err)
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(AddClaimsToContext(r.Context(), claims)))
	})
}
