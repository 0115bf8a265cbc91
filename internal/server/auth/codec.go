// Package auth turns a bearer credential into a verified principal.
//
// The Codec issues and verifies HS256 tokens, the Resolver maps a verified
// subject to a user, and the Authenticator chains both behind a single call.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/intelligence/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrEmptySecret  = errors.New("token secret must not be empty")
	ErrEmptySubject = errors.New("token subject must not be empty")
)

// Claims is the verified content of a token. Times are Unix seconds.
type Claims struct {
	Subject   string
	IssuedAt  int64
	ExpiresAt int64
	Issuer    string
}

// Codec signs and verifies tokens with a fixed secret. It is immutable after
// NewCodec and safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

type CodecOption func(*Codec)

// WithClock replaces time.Now as the source of the current time for Verify.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTTL overrides DefaultTokenTTL.
func WithTTL(d time.Duration) CodecOption {
	return func(c *Codec) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithLeeway tolerates clock skew when checking exp.
func WithLeeway(d time.Duration) CodecOption {
	return func(c *Codec) {
		if d >= 0 {
			c.leeway = d
		}
	}
}

func NewCodec(secret []byte, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	c := &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// TTL reports the lifetime stamped on issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for subject with iat=now and exp=now+TTL.
func (c *Codec) Issue(subject string, now time.Time) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    common.TokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %v", common.ErrorInternal, err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Failures are always a *VerifyError.
func (c *Codec) Verify(token string) (*Claims, error) {
	rc := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, rc, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(common.TokenIssuer),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classify(parsed, err)
	}
	if rc.Subject == "" {
		return nil, &VerifyError{Reason: ReasonMalformed, Err: ErrEmptySubject}
	}

	claims := &Claims{
		Subject: rc.Subject,
		Issuer:  rc.Issuer,
	}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Unix()
	}
	claims.ExpiresAt = rc.ExpiresAt.Unix()
	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}

// classify maps jwt parser errors to a VerifyReason. Signature is checked
// before claims, so an expired token with a bad signature is BadSignature.
// The parser resolves the signing method only after header and claims
// decode, so a malformed error on a token with a method came from the
// signature segment.
func classify(t *jwt.Token, err error) *VerifyError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed) && t != nil && t.Method != nil:
		return &VerifyError{Reason: ReasonBadSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &VerifyError{Reason: ReasonMalformed, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &VerifyError{Reason: ReasonBadSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &VerifyError{Reason: ReasonExpired, Err: err}
	default:
		return &VerifyError{Reason: ReasonMalformed, Err: err}
	}
}
