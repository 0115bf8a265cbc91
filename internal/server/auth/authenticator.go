package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/intelligence/internal/logging"
	"github.com/dmitrijs2005/intelligence/internal/server/models"
)

// Authenticator runs extract, verify and resolve in that order and stops at
// the first failure. A token that fails verification never reaches the
// resolver.
type Authenticator struct {
	codec    *Codec
	resolver Resolver
	logger   logging.Logger
	observe  func(Reason)
}

type AuthenticatorOption func(*Authenticator)

func WithLogger(l logging.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithFailureObserver registers a callback invoked once per failed attempt.
func WithFailureObserver(fn func(Reason)) AuthenticatorOption {
	return func(a *Authenticator) { a.observe = fn }
}

func NewAuthenticator(codec *Codec, resolver Resolver, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		codec:    codec,
		resolver: resolver,
		logger:   logging.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Authenticate resolves the principal carried by an Authorization header
// value. Errors are *AuthError. An absent or non-Bearer header is
// NoCredential; Malformed is reserved for a token that cannot be decoded.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*models.User, error) {
	token, err := ExtractBearer(header)
	if err != nil {
		return nil, a.fail(ctx, NoCredential, err)
	}

	claims, err := a.codec.Verify(token)
	if err != nil {
		var ve *VerifyError
		if errors.As(err, &ve) {
			return nil, a.fail(ctx, fromVerify(ve.Reason), err)
		}
		return nil, a.fail(ctx, Malformed, err)
	}

	u, err := a.resolver.Resolve(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, a.fail(ctx, PrincipalNotFound, err)
		}
		return nil, a.fail(ctx, StoreUnavailable, err)
	}
	return u, nil
}

func (a *Authenticator) fail(ctx context.Context, r Reason, err error) error {
	if r.Retryable() {
		a.logger.Error(ctx, "authentication failed", "reason", r.String(), "error", err)
	} else {
		a.logger.Debug(ctx, "authentication rejected", "reason", r.String(), "error", err)
	}
	if a.observe != nil {
		a.observe(r)
	}
	return &AuthError{Reason: r, Err: err}
}
