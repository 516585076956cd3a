package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type authKey string

const claimsKey authKey = "auth_claims"

// AuthClaims is what the bearer token carries: the account id and its
// role. Doctor profile resolution happens in the service, not here.
type AuthClaims struct {
	UserID uuid.UUID
	Role   string
}

// AuthMiddleware validates the HMAC-signed bearer token and stores the
// claims in the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing_token", "Authorization: Bearer token is required")
				return
			}

			claims, err := parseToken(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_token", err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(raw, secret string) (AuthClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return AuthClaims{}, fmt.Errorf("parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return AuthClaims{}, fmt.Errorf("invalid token claims")
	}

	sub, err := mapClaims.GetSubject()
	if err != nil {
		return AuthClaims{}, fmt.Errorf("token subject: %w", err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return AuthClaims{}, fmt.Errorf("token subject must be a UUID: %w", err)
	}

	role, _ := mapClaims["role"].(string)
	if role == "" {
		return AuthClaims{}, fmt.Errorf("token is missing a role claim")
	}

	return AuthClaims{UserID: userID, Role: role}, nil
}

// ClaimsFromContext retrieves the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	c, ok := ctx.Value(claimsKey).(AuthClaims)
	return c, ok
}
