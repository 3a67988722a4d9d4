// Package scopecookie issues and reads the signed cookie that names a
// client's storage scope.
package scopecookie

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/postshelf/internal/platform/id"
	"github.com/louisbranch/postshelf/internal/services/web/platform/requestmeta"
)

// Name is the scope cookie name.
const Name = "postshelf_scope"

// Issuer is stamped into and required on every scope token.
const Issuer = "postshelf"

// MinSecretBytes is the shortest accepted signing secret.
const MinSecretBytes = 32

var (
	// ErrMissing reports a request without a scope cookie.
	ErrMissing = errors.New("scope cookie is missing")
	// ErrInvalid reports a scope cookie that failed verification.
	ErrInvalid = errors.New("scope cookie is invalid")
)

// Config controls token signing and cookie lifetime.
type Config struct {
	Secret []byte
	// Persistent cookies outlive the browser session and last MaxAge.
	Persistent bool
	MaxAge     time.Duration
	Policy     requestmeta.SchemePolicy
	Now        func() time.Time
}

// Codec signs scope ids into cookies and verifies them back.
type Codec struct {
	secret     []byte
	persistent bool
	maxAge     time.Duration
	policy     requestmeta.SchemePolicy
	now        func() time.Time
}

type scopeClaims struct {
	jwt.RegisteredClaims
}

// New validates cfg and returns a Codec.
func New(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, fmt.Errorf("scope cookie secret must be at least %d bytes", MinSecretBytes)
	}
	if cfg.Persistent && cfg.MaxAge <= 0 {
		return nil, errors.New("persistent scope cookie requires a max age")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{
		secret:     append([]byte(nil), cfg.Secret...),
		persistent: cfg.Persistent,
		maxAge:     cfg.MaxAge,
		policy:     cfg.Policy,
		now:        now,
	}, nil
}

// Sign returns an HS256 token whose subject is scopeID.
func (c *Codec) Sign(scopeID string) (string, error) {
	if !id.Valid(scopeID) {
		return "", fmt.Errorf("scope id %q is malformed", scopeID)
	}
	issuedAt := c.now().UTC()
	claims := scopeClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:   Issuer,
		Subject:  scopeID,
		IssuedAt: jwt.NewNumericDate(issuedAt),
	}}
	if c.persistent {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(c.maxAge))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign scope token: %w", err)
	}
	return token, nil
}

// Verify checks token and returns its scope id.
func (c *Codec) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissing
	}
	var parsed scopeClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !id.Valid(parsed.Subject) {
		return "", fmt.Errorf("%w: malformed subject", ErrInvalid)
	}
	return parsed.Subject, nil
}

// Read returns the verified scope id carried by r.
func (c *Codec) Read(r *http.Request) (string, error) {
	if r == nil {
		return "", ErrMissing
	}
	cookie, err := r.Cookie(Name)
	if err != nil || cookie == nil {
		return "", ErrMissing
	}
	return c.Verify(cookie.Value)
}

// Write sets the scope cookie for scopeID.
func (c *Codec) Write(w http.ResponseWriter, r *http.Request, scopeID string) error {
	if w == nil {
		return errors.New("response writer is required")
	}
	token, err := c.Sign(scopeID)
	if err != nil {
		return err
	}
	cookie := &http.Cookie{
		Name:     Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, c.policy),
		SameSite: http.SameSiteLaxMode,
	}
	if c.persistent {
		cookie.MaxAge = int(c.maxAge / time.Second)
	}
	http.SetCookie(w, cookie)
	return nil
}

// Clear expires the scope cookie.
func (c *Codec) Clear(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, c.policy),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
