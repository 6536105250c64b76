package api

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/foxzi/listdash/internal/exchange"
)

const fieldCSRFToken = exchange.FieldCSRFToken

// csrfGuard issues per-user tokens derived from a server secret
type csrfGuard struct {
	secret []byte
}

// newCSRFGuard creates a guard. An empty secret is replaced by a random
// one, which invalidates tokens on restart.
func newCSRFGuard(secret string) (*csrfGuard, error) {
	if secret != "" {
		return &csrfGuard{secret: []byte(secret)}, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	return &csrfGuard{secret: key}, nil
}

// Token returns the token of email
func (g *csrfGuard) Token(email string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(strings.ToLower(email)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Valid reports whether token belongs to email
func (g *csrfGuard) Valid(email, token string) bool {
	if email == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(token), []byte(g.Token(email)))
}
