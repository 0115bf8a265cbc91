package grpc

import (
	"context"

	"github.com/dmitrijs2005/intelligence/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// IdentityMeMethod is the full method name of the identity lookup.
const IdentityMeMethod = "/intelligence.v1.Identity/Me"

type identityServer interface {
	Me(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// Me returns the authenticated principal. The password hash is never
// included.
func (s *GRPCServer) Me(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	fields := map[string]any{
		"id":    p.ID,
		"name":  p.Name,
		"email": p.Email,
		"admin": p.Admin,
	}
	if p.FirstName != nil {
		fields["firstname"] = *p.FirstName
	}
	if p.LastName != nil {
		fields["lastname"] = *p.LastName
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func identityMeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(identityServer).Me(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IdentityMeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(identityServer).Me(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// identityServiceDesc is written by hand; its messages are protobuf
// well-known types so no generated code is needed.
var identityServiceDesc = grpc.ServiceDesc{
	ServiceName: "intelligence.v1.Identity",
	HandlerType: (*identityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Me", Handler: identityMeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "intelligence/v1/identity.proto",
}
