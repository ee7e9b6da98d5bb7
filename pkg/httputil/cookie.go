package httputil

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/iamasit07/arcade/internal/config"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
	// RefreshCookiePath keeps the refresh token off every other request.
	RefreshCookiePath = "/api/auth"
)

func setCookie(w http.ResponseWriter, name, value, path string, expires time.Time) {
	isProduction := config.AppConfig != nil && config.AppConfig.IsProduction()

	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   isProduction, // Only require HTTPS in production
	}
	if expires.IsZero() {
		cookie.MaxAge = -1
	}

	// SameSite=None requires Secure=true, so use Lax for development
	if isProduction {
		cookie.SameSite = http.SameSiteNoneMode
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}

	http.SetCookie(w, cookie)
}

// SetAuthCookies writes both tokens after a login or refresh.
func SetAuthCookies(w http.ResponseWriter, access string, accessExp time.Time, refresh string, refreshExp time.Time) {
	setCookie(w, AccessCookieName, access, "/", accessExp)
	setCookie(w, RefreshCookieName, refresh, RefreshCookiePath, refreshExp)
}

func ClearAuthCookies(w http.ResponseWriter) {
	setCookie(w, AccessCookieName, "", "/", time.Time{})
	setCookie(w, RefreshCookieName, "", RefreshCookiePath, time.Time{})
}

func cookieValue(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", errors.New(name + " cookie not found")
	}
	if cookie.Value == "" {
		return "", errors.New(name + " cookie is empty")
	}
	return cookie.Value, nil
}

func GetRefreshToken(r *http.Request) (string, error) {
	return cookieValue(r, RefreshCookieName)
}

// GetTokenFromRequest finds the access token in the cookie and falls back
// to the Authorization header.
func GetTokenFromRequest(r *http.Request) (string, error) {
	token, err := cookieValue(r, AccessCookieName)
	if err == nil {
		return token, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Support "Bearer <token>" format
		if rest, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return rest, nil
		}
		return authHeader, nil
	}

	return "", errors.New("no auth token found in cookie or header")
}
