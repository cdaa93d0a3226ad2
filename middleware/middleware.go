package middleware

import (
	"context"
	"net/http"
	"strings"

	"project-tracker/backend/logging"
	"project-tracker/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const actorContextKey contextKey = "actor"

// JWTAuthMiddleware validates the bearer token and stores the authenticated
// actor id in the request context. Every core operation downstream takes
// that id as its first argument.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			utils.WriteMessage(w, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			utils.WriteMessage(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			utils.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		actorID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_BAD_SUBJECT, Description: Token carried malformed user id %q", claims.UserID)
			utils.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the authenticated actor id placed by
// JWTAuthMiddleware.
func ActorFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	actor, ok := ctx.Value(actorContextKey).(primitive.ObjectID)
	return actor, ok
}
