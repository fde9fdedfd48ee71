package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// authCookieName is the cookie the login handler sets.
const authCookieName = "auth_token"

// extractToken reads the auth token from an "Authorization: Bearer" header,
// falling back to the auth_token cookie.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(authCookieName); err == nil {
		return c.Value
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
