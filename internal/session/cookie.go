package session

import (
	"net/http"
)

const (
	CookieName = "__Host-session"
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
	Domain   string // must stay empty for __Host- cookies
}

// normalize applies safe defaults without breaking callers
func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/" // required for __Host-
	}
	if !o.HttpOnly {
		o.HttpOnly = true
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// SetCookie issues the cookie for an established session.
func SetCookie(w http.ResponseWriter, s Session, opts CookieOptions) {
	opts = opts.normalize()

	// The idle expiry slides server side; the cookie lives to the hard limit.
	expires := s.AbsoluteExpiresAt
	if expires.IsZero() {
		expires = s.ExpiresAt
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.SessionID,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  expires,
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}
