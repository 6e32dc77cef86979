package handler

import (
	"context"
	"errors"
	"net/http"

	"sso-service/internal/account"
	"sso-service/internal/auth"
	"sso-service/internal/auth/login"
	"sso-service/internal/auth/provider"
	"sso-service/internal/logger"
	"sso-service/internal/middleware"
	"sso-service/internal/session"

	"github.com/gin-gonic/gin"
)

// LoginFlow runs the login state machine for a verified identity.
type LoginFlow interface {
	Login(ctx context.Context, identity *auth.Identity) (*login.Result, error)
}

// Accounts reads local accounts for the authenticated API.
type Accounts interface {
	Get(ctx context.Context, id string) (*account.Account, error)
}

type Handler struct {
	provider provider.IdentityProvider
	logins   LoginFlow
	sessions session.Store
	accounts Accounts
	admins   account.AdminRegistry
	cookies  session.CookieOptions
}

func NewHandler(
	p provider.IdentityProvider,
	logins LoginFlow,
	sessions session.Store,
	accounts Accounts,
	admins account.AdminRegistry,
	cookies session.CookieOptions,
) *Handler {
	return &Handler{
		provider: p,
		logins:   logins,
		sessions: sessions,
		accounts: accounts,
		admins:   admins,
		cookies:  cookies,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/sso/login", h.login)
	r.GET("/sso/callback", h.callback)
	r.POST("/auth/logout", h.Logout)
}

// RegisterAPI mounts the routes that need an authenticated session. The
// group must run the session middleware.
func (h *Handler) RegisterAPI(api gin.IRoutes) {
	api.GET("/me", h.Me)
}

func (h *Handler) login(c *gin.Context) {
	state, err := h.generateState(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	challenge, err := h.generatePKCE(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state, challenge))
}

func (h *Handler) callback(c *gin.Context) {
	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid state"})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("sso callback returned error", map[string]any{
			"provider": h.provider.Name(),
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		h.clearFlowCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": errParam})
		return
	}

	code := c.Query("code")
	if code == "" {
		h.clearFlowCookies(c)
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing pkce verifier"})
		return
	}
	h.clearFlowCookies(c)

	identity, err := h.provider.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	res, err := h.logins.Login(c.Request.Context(), identity)
	if err != nil {
		denial := login.CodeOf(err)
		if denial == "" {
			denial = login.CodeInternal
		}
		c.JSON(statusFor(denial), gin.H{"error": denial})
		return
	}

	session.SetCookie(c.Writer, res.Session, h.cookies)

	logger.Info("sso login success", map[string]any{
		"account_id": res.AccountID,
		"created":    res.Created,
		"ip":         c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"status":     "authenticated",
		"account_id": res.AccountID,
		"created":    res.Created,
		"privilege":  res.Privilege,
	})
}

func statusFor(code login.Code) int {
	switch code {
	case login.CodeAccessDenied:
		return http.StatusForbidden
	case login.CodeInvalidIdentity:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Logout deletes the session if there is one and always clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(c.Request.Context(), cookie.Value); err != nil {
			logger.Warn("session delete failed on logout", map[string]any{
				"error": err.Error(),
			})
		}
	}

	session.ClearCookie(c.Writer, h.cookies)
	c.Status(http.StatusNoContent)
}

// Me returns the account behind the current session.
func (h *Handler) Me(c *gin.Context) {
	userID := c.GetString(middleware.GinUserIDKey)

	a, err := h.accounts.Get(c.Request.Context(), userID)
	if errors.Is(err, account.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}

	admin, err := h.admins.IsAdmin(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          a.ID,
		"username":    a.Username,
		"email":       a.Email,
		"given_name":  a.GivenName,
		"family_name": a.FamilyName,
		"admin":       admin,
	})
}
