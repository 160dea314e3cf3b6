/**
 * @description
 * This file contains custom middleware for the HTTP router. The chat gateway
 * is the only caller; it authenticates users against the chat platform,
 * resolves their admin capability from role data, and mints a short-lived
 * HS256 token carrying both facts. The middleware validates that token and
 * puts the actor identity on the request context.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: Token validation.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// actorContextKey is a custom type for context keys to avoid collisions.
type actorContextKey string

const (
	actorIDKey actorContextKey = "actorID"
	adminKey   actorContextKey = "actorAdmin"
)

// GatewayAuthMiddleware creates a middleware that validates gateway-issued
// JWTs. The `sub` claim is the chat-platform user identifier of the actor; the
// `admin` claim is the operator capability the gateway resolved from role data.
func GatewayAuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return key, nil
			})
			if err != nil {
				http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
				return
			}
			if !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			actorID, ok := claims["sub"].(string)
			if !ok || strings.TrimSpace(actorID) == "" {
				http.Error(w, "Actor ID not found in token", http.StatusUnauthorized)
				return
			}
			admin, _ := claims["admin"].(bool)

			ctx := context.WithValue(r.Context(), actorIDKey, actorID)
			ctx = context.WithValue(ctx, adminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorID retrieves the authenticated actor's chat-platform user ID from the
// request context. Handlers should use this to resolve "whose slots".
func ActorID(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorIDKey).(string)
	return actorID, ok
}

// IsAdmin reports whether the gateway resolved the actor as an administrator.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminKey).(bool)
	return admin
}
