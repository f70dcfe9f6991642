package grpcclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// TokenProvider supplies a currently valid bearer token. It must be safe
// for concurrent use. oauth2session.Session satisfies this interface.
type TokenProvider interface {
	BearerToken(ctx context.Context) (string, error)
}

// UnaryClientInterceptor returns a gRPC unary client interceptor that
// automatically adds bearer tokens from the provider to request metadata.
//
// The interceptor adds the token as "authorization: Bearer <token>" to the
// outgoing context. If the token cannot be obtained (including the case
// where the provider refreshed a token but has no persistence callback),
// the RPC is aborted with the provider's error. The interceptor respects
// the RPC context's cancellation and deadline.
//
// Usage:
//
//	conn, err := grpc.NewClient(
//	    "server:9090",
//	    grpc.WithUnaryInterceptor(grpcclient.UnaryClientInterceptor(session)),
//	)
func UnaryClientInterceptor(tp TokenProvider) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		token, err := tp.BearerToken(ctx)
		if err != nil {
			return fmt.Errorf("grpcclient: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns a gRPC stream client interceptor that
// automatically adds bearer tokens from the provider to request metadata.
//
// Behaves like UnaryClientInterceptor: token fetch failures abort stream
// creation, and the RPC context governs cancellation and deadlines.
func StreamClientInterceptor(tp TokenProvider) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		token, err := tp.BearerToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("grpcclient: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

		return streamer(ctx, desc, cc, method, opts...)
	}
}
