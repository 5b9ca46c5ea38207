package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// bearerFromMetadata reads "authorization: Bearer <token>" from incoming
// metadata. present reports whether any authorization value was sent.
func bearerFromMetadata(ctx context.Context) (token string, present bool, err error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false, common.ErrMissingCredential
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return "", false, common.ErrMissingCredential
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(values[0]), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) || strings.TrimSpace(token) == "" {
		return "", true, common.ErrMissingCredential
	}
	return strings.TrimSpace(token), true, nil
}

// authInterceptor authenticates every method except Login. Register runs
// anonymously when no credential is sent.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if info.FullMethod == loginMethod {
		return handler(ctx, req)
	}

	token, present, err := bearerFromMetadata(ctx)
	if err != nil && !present && info.FullMethod == registerMethod {
		return handler(ctx, req)
	}
	if err == nil {
		var p auth.Principal
		if p, err = s.tokens.Validate(token); err == nil {
			return handler(auth.WithPrincipal(ctx, p), req)
		}
	}

	kind := common.FailureKind(err)
	s.metrics.AuthFailure(kind)
	s.logger.Info(ctx, "authentication failed", "method", info.FullMethod, "kind", kind)
	s.logger.Debug(ctx, "token rejected", "method", info.FullMethod, "error", err)
	return nil, status.Error(codes.Unauthenticated, "unauthorized")
}

func (s *GRPCServer) instrumentInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	s.metrics.ObserveRequestCode("grpc", info.FullMethod, code.String(), time.Since(start))
	s.logger.Info(ctx, "rpc", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
	return resp, err
}
