package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinUserIDKey is the gin context key holding the authenticated account id.
const GinUserIDKey = "userID"

// GinRequireAuth adapts the net/http AuthMiddleware to Gin.
func GinRequireAuth(auth *AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			if id, ok := UserIDFromContext(r.Context()); ok {
				c.Set(GinUserIDKey, id)
			}
			c.Next()
		})

		auth.RequireAuth(next).ServeHTTP(c.Writer, c.Request)

		// The auth middleware already wrote a rejection.
		if c.Writer.Written() && !c.IsAborted() {
			c.Abort()
		}
	}
}
