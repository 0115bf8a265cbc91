package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/intelligence/internal/common"
	"github.com/dmitrijs2005/intelligence/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// publicPrefixes are method prefixes served without a credential.
var publicPrefixes = []string{"/grpc.health.v1.Health/"}

func isPublic(method string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

// accessTokenInterceptor authenticates the "authorization" metadata value
// and hands the principal to the handler through its context.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(strings.ToLower(common.AuthorizationHeaderName)); len(values) > 0 {
			header = values[0]
		}
	}

	p, err := s.authn.Authenticate(ctx, header)
	if err != nil {
		if auth.ReasonOf(err).Retryable() {
			return nil, status.Error(codes.Unavailable, "unavailable")
		}
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	return handler(auth.ContextWithPrincipal(ctx, p), req)
}
