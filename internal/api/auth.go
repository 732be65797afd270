package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/AaronLay10/TreasureLand/internal/config"
)

// AuthConfig holds the admin credentials guarding operator endpoints
// (/events and /ws/events). Game endpoints are always open.
type AuthConfig struct {
	User string
	Pass string
}

// LoadAuth resolves TREASURE_ADMIN_USER and TREASURE_ADMIN_PASS, honouring
// the *_FILE convention. It returns nil when either is unset, which leaves
// the operator endpoints open.
func LoadAuth() (*AuthConfig, error) {
	user, err := config.ResolveSecret("TREASURE_ADMIN_USER")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve TREASURE_ADMIN_USER: %w", err)
	}
	pass, err := config.ResolveSecret("TREASURE_ADMIN_PASS")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve TREASURE_ADMIN_PASS: %w", err)
	}
	if user == "" || pass == "" {
		return nil, nil
	}
	return &AuthConfig{User: user, Pass: pass}, nil
}

// Enabled returns true if credentials are configured.
func (a *AuthConfig) Enabled() bool {
	return a != nil && a.User != "" && a.Pass != ""
}

func (a *AuthConfig) authenticate(r *http.Request) bool {
	if !a.Enabled() {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return secureCompare(user, a.User) && secureCompare(pass, a.Pass)
}

// secureCompare performs constant-time string comparison to prevent timing attacks.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Require wraps a handler with basic auth when credentials are configured.
func (a *AuthConfig) Require(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Treasure Land"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		handler(w, r)
	}
}
