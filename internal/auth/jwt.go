package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Samyak44/Travel-Agent/internal/config"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type ctxKey struct{}

// Username returns the authenticated subject, or "" outside the protected
// routes.
func Username(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

func IssueToken(cfg *config.Config, username string) (string, error) {
	claims := jwt.MapClaims{
		"sub": username,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(1 * time.Hour).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(cfg.JWTSecret))
}

// Middleware guards the API routes. EventSource and websocket clients cannot
// set headers, so a token query parameter is accepted as a fallback.
func Middleware(cfg *config.Config, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authH := r.Header.Get("Authorization")
			if authH == "" {
				if t := r.URL.Query().Get("token"); t != "" {
					// inject a Bearer header so the rest of the middleware works unchanged
					r.Header.Set("Authorization", "Bearer "+t)
					authH = r.Header.Get("Authorization")
				}
			}
			if !strings.HasPrefix(authH, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			tok := strings.TrimPrefix(authH, "Bearer ")
			parsed, err := jwt.Parse(tok, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenUnverifiable
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil {
				log.Warn("rejected token", zap.Error(err))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			sub := ""
			if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
				sub, _ = claims["sub"].(string)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sub)))
		})
	}
}

func LoginHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Username != cfg.JWTUser || req.Password != cfg.JWTPassword {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := IssueToken(cfg, req.Username)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loginResponse{Token: tok})
	}
}
