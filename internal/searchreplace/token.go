package searchreplace

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/lexcms/internal/domain"
)

// tokenPayload is what a confirmation token encodes: the exact parameters
// of the previewed operation plus the issue time.
type tokenPayload struct {
	SearchText    string              `json:"searchText"`
	ReplaceText   string              `json:"replaceText"`
	CaseSensitive bool                `json:"caseSensitive"`
	StatusFilter  domain.StatusFilter `json:"statusFilter"`
	IssuedAt      int64               `json:"issuedAt"`
}

// TokenCodec issues and verifies confirmation tokens. Tokens are
// HMAC-SHA256 signed so a client cannot forge or alter one, and they expire
// after ttl so a stale preview cannot be executed much later.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec. An empty secret gets a process-local random
// one, which invalidates outstanding tokens on restart.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if secret == "" {
		secret = uuid.New().String()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue encodes the request parameters into a signed token.
func (c *TokenCodec) Issue(req Request) string {
	payload, _ := json.Marshal(tokenPayload{
		SearchText:    req.SearchText,
		ReplaceText:   req.ReplaceText,
		CaseSensitive: req.CaseSensitive,
		StatusFilter:  req.StatusFilter,
		IssuedAt:      c.now().Unix(),
	})
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded)
}

// Verify checks the token's signature, freshness, and that its embedded
// parameters match the live request. The token is only a confirmation
// artifact; callers must still derive matches from the request itself.
func (c *TokenCodec) Verify(token string, req Request) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("missing confirmation token")
	}

	dot := strings.LastIndex(token, ".")
	if dot < 0 {
		return errors.New("invalid confirmation token format")
	}
	encoded, signature := token[:dot], token[dot+1:]

	expected, err := hex.DecodeString(c.sign(encoded))
	if err != nil {
		return fmt.Errorf("failed to compute token signature: %w", err)
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return errors.New("invalid confirmation token signature")
	}
	if !hmac.Equal(expected, provided) {
		return errors.New("invalid confirmation token")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("failed to decode confirmation token: %w", err)
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("failed to parse confirmation token: %w", err)
	}

	if c.now().Unix() > payload.IssuedAt+int64(c.ttl.Seconds()) {
		return errors.New("confirmation token expired, run the preview again")
	}

	if payload.SearchText != req.SearchText ||
		payload.ReplaceText != req.ReplaceText ||
		payload.CaseSensitive != req.CaseSensitive ||
		payload.StatusFilter != req.StatusFilter {
		return errors.New("confirmation token does not match the request parameters")
	}

	return nil
}

func (c *TokenCodec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
