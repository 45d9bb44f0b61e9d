package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
)

var sessionStore *redis.Client

// InitAuthMiddleware wires the Redis client used for session lookups.
func InitAuthMiddleware(redisClient *redis.Client) {
	sessionStore = redisClient
}

type sessionData struct {
	UserID int    `json:"userId"`
	Role   string `json:"role"`
}

// AuthMiddleware resolves the session cookie against Redis and puts the
// user's id and role on the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := currentSession(r)
		if err != nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", session.UserID)
		ctx = context.WithValue(ctx, "userRole", session.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTeacher allows teacher and admin sessions through.
func RequireTeacher(next http.Handler) http.Handler {
	return requireRole(next, "teacher", "admin")
}

// RequireAdmin allows only admin sessions through.
func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(next, "admin")
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value("userRole").(string)
		for _, allowed := range roles {
			if role == allowed {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
	})
}

func currentSession(r *http.Request) (*sessionData, error) {
	if sessionStore == nil {
		return nil, fmt.Errorf("session store unavailable")
	}

	cookie, err := r.Cookie("dibby_session")
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("session:%s", cookie.Value)
	payload, err := sessionStore.Get(r.Context(), key).Bytes()
	if err != nil {
		return nil, err
	}

	var session sessionData
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
