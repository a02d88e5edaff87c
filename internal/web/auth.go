package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

// tokenStore issues opaque admin bearer tokens that expire after ttl.
type tokenStore struct {
	mu       sync.Mutex
	password string
	ttl      time.Duration
	now      func() time.Time
	tokens   map[string]time.Time
}

func newTokenStore(password string, ttl time.Duration, now func() time.Time) *tokenStore {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &tokenStore{password: password, ttl: ttl, now: now, tokens: map[string]time.Time{}}
}

func (t *tokenStore) enabled() bool {
	return t.password != ""
}

// login returns a fresh token when password matches.
func (t *tokenStore) login(password string) (string, time.Time, bool) {
	if !t.enabled() || subtle.ConstantTimeCompare([]byte(password), []byte(t.password)) != 1 {
		return "", time.Time{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for tok, exp := range t.tokens {
		if !now.Before(exp) {
			delete(t.tokens, tok)
		}
	}
	token := uuid.NewString()
	expires := now.Add(t.ttl)
	t.tokens[token] = expires
	return token, expires, true
}

func (t *tokenStore) valid(token string) bool {
	if token == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	exp, ok := t.tokens[token]
	if !ok {
		return false
	}
	if !t.now().Before(exp) {
		delete(t.tokens, token)
		return false
	}
	return true
}

func requireAdmin(tokens *tokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tokens.valid(extractBearerToken(c)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// extractBearerToken reads "Authorization: Bearer <token>"; the scheme
// is case-insensitive.
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
