package handler

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"sso-service/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	pkceCookieName = "__sso_pkce"
	pkceTTL        = 5 * time.Minute
)

// generatePKCE stores the verifier in a cookie and returns the S256
// challenge for the authorization request.
func (h *Handler) generatePKCE(c *gin.Context) (string, error) {
	verifier, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}

	h.setFlowCookie(c, pkceCookieName, verifier, pkceTTL)
	return pkceChallenge(verifier), nil
}

func pkceChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func getPKCEVerifier(c *gin.Context) string {
	cookie, err := c.Request.Cookie(pkceCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
