package useragent

import (
	"net"
	"net/http"
	"strings"
)

// TerminalAgent is the product token cmd/client sends on the live handshake.
const TerminalAgent = "arcade-terminal"

type marker struct {
	token   string
	exclude string
	name    string
}

// Order matters: Edge and Chrome both claim Safari, Edge also claims Chrome.
var browsers = []marker{
	{token: TerminalAgent + "/", name: "Terminal client"},
	{token: "Edg/", name: "Edge"},
	{token: "Firefox/", name: "Firefox"},
	{token: "Chrome/", name: "Chrome"},
	{token: "Safari/", exclude: "Chrome", name: "Safari"},
}

var systems = []marker{
	{token: "Android", name: "Android"},
	{token: "iPhone", name: "iOS"},
	{token: "iPad", name: "iOS"},
	{token: "Windows", name: "Windows"},
	{token: "Mac OS X", name: "macOS"},
	{token: "Linux", name: "Linux"},
}

func match(ua string, list []marker) (marker, bool) {
	for _, m := range list {
		if strings.Contains(ua, m.token) && (m.exclude == "" || !strings.Contains(ua, m.exclude)) {
			return m, true
		}
	}
	return marker{}, false
}

// majorVersion reads the digits right after token.
func majorVersion(ua, token string) string {
	idx := strings.Index(ua, token)
	if idx < 0 {
		return ""
	}
	rest := ua[idx+len(token):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	return rest[:end]
}

// Describe summarizes the User-Agent as "Chrome 120 on Linux".
func Describe(r *http.Request) string {
	ua := r.Header.Get("User-Agent")
	if ua == "" {
		return "Unknown Device"
	}

	browser := "Unknown Browser"
	if m, ok := match(ua, browsers); ok {
		browser = m.name
		if v := majorVersion(ua, m.token); v != "" {
			browser += " " + v
		}
	}
	system := "Unknown OS"
	if m, ok := match(ua, systems); ok {
		system = m.name
	}
	return browser + " on " + system
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
