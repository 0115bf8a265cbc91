package auth

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/intelligence/internal/common"
	"github.com/dmitrijs2005/intelligence/internal/server/models"
)

// PrincipalHandler is an HTTP handler that receives the authenticated user
// as an argument.
type PrincipalHandler func(w http.ResponseWriter, r *http.Request, p *models.User)

// FailureHandler renders an authentication failure. err is an *AuthError.
type FailureHandler func(w http.ResponseWriter, r *http.Request, err error)

// Required authenticates each request from its Authorization header and
// calls next with the principal, or onFail with the error.
func Required(a *Authenticator, onFail FailureHandler, next PrincipalHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Authenticate(r.Context(), r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			onFail(w, r, err)
			return
		}
		next(w, r, p)
	})
}

type principalKey struct{}

// ContextWithPrincipal is used by transports whose handler signature cannot
// carry the principal explicitly (gRPC).
func ContextWithPrincipal(ctx context.Context, p *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	p, ok := ctx.Value(principalKey{}).(*models.User)
	return p, ok && p != nil
}
