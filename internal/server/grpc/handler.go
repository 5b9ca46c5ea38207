package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/server/auth"
	"github.com/baleriaa/493/internal/server/models"
	"github.com/baleriaa/493/internal/server/ratelimit"
	"github.com/baleriaa/493/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Registration request")

	f := req.GetFields()
	in := services.RegisterInput{
		Name:     f["name"].GetStringValue(),
		Email:    f["email"].GetStringValue(),
		Password: f["password"].GetStringValue(),
		Admin:    f["admin"].GetBoolValue(),
	}

	user, err := s.users.Register(ctx, in)
	if err != nil {
		s.metrics.Registration(false)
		if errors.Is(err, common.ErrForbidden) {
			s.metrics.AuthFailure(common.FailureKind(err))
		}
		return nil, s.toStatus(ctx, err)
	}

	s.metrics.Registration(true)
	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return publicUserStruct(user)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	key := loginKey(ctx)
	if err := s.allowLogin(ctx, key); err != nil {
		return nil, err
	}

	f := req.GetFields()
	token, err := s.users.Login(ctx, f["identifier"].GetStringValue(), f["password"].GetStringValue())
	if err != nil {
		s.metrics.Login(false)
		if errors.Is(err, common.ErrorUnauthorized) {
			s.metrics.AuthFailure(common.FailureKind(err))
		}
		return nil, s.toStatus(ctx, err)
	}

	s.metrics.Login(true)
	s.resetLogin(ctx, key)
	return structpb.NewStruct(map[string]any{"token": token})
}

// GetUser returns the public fields of the user named by "id", which may be a
// number or a decimal string. The caller must own it or be an admin.
func (s *GRPCServer) GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	id, err := userIDField(req.GetFields()["id"])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := auth.AuthorizeContext(ctx, id); err != nil {
		kind := common.FailureKind(err)
		s.metrics.AuthFailure(kind)
		s.logger.Info(ctx, "authorization failed", "kind", kind)
		s.logger.Debug(ctx, "access denied", "error", err)
		return nil, s.toStatus(ctx, err)
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return publicUserStruct(user)
}

// loginKey is the throttling key of the calling peer: its IP, shared with
// the HTTP front door.
func loginKey(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return ratelimit.ClientKey(p.Addr.String())
	}
	return "unknown"
}

func (s *GRPCServer) allowLogin(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}

	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.metrics.RateLimitError()
		s.logger.Warn(ctx, "login limiter unavailable", "error", err)
		return nil
	}
	if !allowed {
		s.logger.Info(ctx, "login throttled", "client", key)
		return s.toStatus(ctx, common.ErrRateLimited)
	}
	return nil
}

// resetLogin clears the peer's failed-attempt budget after a good login.
func (s *GRPCServer) resetLogin(ctx context.Context, key string) {
	r, ok := s.limiter.(ratelimit.Resetter)
	if !ok {
		return
	}
	if err := r.Reset(ctx, key); err != nil {
		s.metrics.RateLimitError()
		s.logger.Warn(ctx, "login limiter reset failed", "error", err)
	}
}

func userIDField(v *structpb.Value) (int64, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if n <= 0 || n != math.Trunc(n) || n >= math.MaxInt64 {
			return 0, fmt.Errorf("invalid user id %v", n)
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		return common.ParseUserID(k.StringValue)
	default:
		return 0, errors.New("id is required")
	}
}

func publicUserStruct(u *models.PublicUser) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"admin": u.Admin,
	})
}

// toStatus maps service errors onto gRPC codes. Token failures of every kind
// share one message.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case common.IsUnauthenticated(err):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, common.ErrDuplicateIdentity):
		return status.Error(codes.AlreadyExists, common.ErrDuplicateIdentity.Error())
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "too many requests")
	default:
		s.logger.Error(ctx, "rpc failed", "kind", common.FailureKind(err), "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
