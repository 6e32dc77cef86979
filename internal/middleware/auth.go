package middleware

import (
	"context"
	"net/http"
	"time"

	"sso-service/internal/logger"
	"sso-service/internal/session"
)

// unexported, collision-proof context key
type userIDContextKeyType struct{}

var userIDKey = userIDContextKeyType{}

// UserIDFromContext extracts the authenticated account id from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

type AuthMiddleware struct {
	Store session.Store
	idle  time.Duration
	now   func() time.Time
}

// NewAuthMiddleware slides each session's expiry to idle past its last use,
// never beyond the absolute expiry. Zero idle leaves sessions untouched.
func NewAuthMiddleware(store session.Store, idle time.Duration) *AuthMiddleware {
	return &AuthMiddleware{Store: store, idle: idle, now: time.Now}
}

// RequireAuth admits requests carrying a live session cookie and attaches
// the session's account id to the request context.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sess, err := a.Store.Get(r.Context(), cookie.Value)
		if err != nil {
			logger.Error("session lookup failed", map[string]any{
				"error": err.Error(),
			})
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if sess == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Redis TTL can lag the stored expiry by up to a second.
		if a.now().After(sess.ExpiresAt) {
			_ = a.Store.Delete(r.Context(), cookie.Value)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a.touch(r.Context(), *sess)

		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// touch extends the idle expiry once less than half of the idle window is
// left.
func (a *AuthMiddleware) touch(ctx context.Context, sess session.Session) {
	if a.idle <= 0 {
		return
	}

	now := a.now()
	if sess.ExpiresAt.Sub(now) >= a.idle/2 {
		return
	}

	sess.ExpiresAt = now.Add(a.idle)
	if err := a.Store.Update(ctx, sess); err != nil {
		logger.Warn("session refresh failed", map[string]any{
			"error": err.Error(),
		})
	}
}
