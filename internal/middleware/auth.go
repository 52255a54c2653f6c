// Package middleware provides the dashboard's HTTP middleware: bearer/API-key
// authentication, per-client rate limiting, and request IDs.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"snowclone/internal/config"
	"snowclone/internal/domain"
)

// Auth tries an HS256 JWT bearer token first, then a static API key on the
// configured header. Both failing yields 401. The authenticated principal is
// stored in the request context.
func Auth(cfg config.AuthConfig) func(http.Handler) http.Handler {
	secret := []byte(cfg.JWTSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); len(secret) > 0 && strings.HasPrefix(auth, "Bearer ") {
				tokenStr := strings.TrimPrefix(auth, "Bearer ")
				token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
					return secret, nil
				}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

				if err == nil && token.Valid {
					if claims, ok := token.Claims.(jwt.MapClaims); ok {
						if sub, ok := claims["sub"].(string); ok && sub != "" {
							ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{Name: sub, Method: "bearer"})
							next.ServeHTTP(w, r.WithContext(ctx))
							return
						}
					}
				}
			}

			if key := r.Header.Get(cfg.APIKeyHeader); key != "" {
				for _, known := range cfg.APIKeys {
					if subtle.ConstantTimeCompare([]byte(key), []byte(known)) == 1 {
						ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{Name: "api-key", Method: "api_key"})
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code":    401,
				"message": "unauthorized: provide a valid bearer token or API key",
			})
		})
	}
}
