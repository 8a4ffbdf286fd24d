package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// CSRF protects form posts using the double-submit cookie technique: the
// token stored in the cookie must be echoed in a header or a form field.
type CSRF struct {
	Header   string
	Field    string
	Cookie   string
	Secure   bool
	SameSite http.SameSite
}

func (c CSRF) headerName() string {
	if h := strings.TrimSpace(c.Header); h != "" {
		return h
	}
	return "X-CSRF-Token"
}

func (c CSRF) cookieName() string {
	if name := strings.TrimSpace(c.Cookie); name != "" {
		return name
	}
	return "csrf_token"
}

// FieldName returns the form field carrying the token.
func (c CSRF) FieldName() string {
	if f := strings.TrimSpace(c.Field); f != "" {
		return f
	}
	return "csrf_token"
}

// Token returns the token bound to the client, issuing a new cookie when
// the request carries none.
func (c CSRF) Token(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(c.cookieName()); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return cookie.Value
	}
	token := uuid.NewString()
	sameSite := c.SameSite
	if sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
	})
	return token
}

// Middleware enforces that unsafe requests carry a token matching the cookie.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName := c.headerName()
	fieldName := c.FieldName()
	cookieName := c.cookieName()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			token = strings.TrimSpace(r.PostFormValue(fieldName))
		}
		if token == "" {
			http.Error(w, "missing csrf token", http.StatusForbidden)
			return
		}

		cookie, err := r.Cookie(cookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			http.Error(w, "missing csrf cookie", http.StatusForbidden)
			return
		}

		if !constantTimeEqual(token, cookie.Value) {
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
