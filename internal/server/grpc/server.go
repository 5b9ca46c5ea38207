// Package grpc is the gRPC front door of the API. It serves
// users.v1.UserService over the same services and token validation as the
// HTTP server.
package grpc

import (
	"context"
	"net"

	"github.com/baleriaa/493/internal/logging"
	"github.com/baleriaa/493/internal/server/auth"
	"github.com/baleriaa/493/internal/server/metrics"
	"github.com/baleriaa/493/internal/server/ratelimit"
	"github.com/baleriaa/493/internal/server/services"
	"google.golang.org/grpc"
)

type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

// Deps are the collaborators of the gRPC server. Limiter and Metrics may be
// nil.
type Deps struct {
	Users   *services.UserService
	Tokens  TokenValidator
	Limiter ratelimit.Limiter
	Metrics *metrics.Metrics
	Logger  logging.Logger
}

type GRPCServer struct {
	address string
	users   *services.UserService
	tokens  TokenValidator
	limiter ratelimit.Limiter
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewGRPCServer(address string, d Deps) *GRPCServer {
	return &GRPCServer{
		address: address,
		users:   d.Users,
		tokens:  d.Tokens,
		limiter: d.Limiter,
		metrics: d.Metrics,
		logger:  d.Logger.With("module", "grpc_server"),
	}
}

// newServer creates the grpc.Server with interceptors and registers the
// service on it.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.instrumentInterceptor, s.authInterceptor))
	srv.RegisterService(&UserServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
