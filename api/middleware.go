package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	contextKeyActorID contextKey = "actorID"
	contextKeyRole    contextKey = "role"
)

// Claims are the JWT claims issued by the identity collaborator
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ActorID returns the authenticated caller ID from the request context
func ActorID(ctx context.Context) int64 {
	id, _ := ctx.Value(contextKeyActorID).(int64)
	return id
}

// Role returns the authenticated caller role from the request context
func Role(ctx context.Context) string {
	role, _ := ctx.Value(contextKeyRole).(string)
	return role
}

// AuthMiddleware verifies the bearer token and stores the caller identity in
// the request context
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				log.WithError(err).Debug("Rejected invalid token")
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			actorID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyActorID, actorID)
			ctx = context.WithValue(ctx, contextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly refuses callers without the admin role. Runs after AuthMiddleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Role(r.Context()) != "admin" {
			respondError(w, http.StatusForbidden, "admin capability required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
