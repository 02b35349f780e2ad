// Package grpc serves the game API: word rounds, game recording and the
// player profile. Every call needs an access token in the access_token
// metadata key.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/logging"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/dmitrijs2005/wordrush/internal/server/services"
	"google.golang.org/grpc"
)

// Level is the part of services.LevelService the game API needs.
type Level interface {
	SelectWords(ctx context.Context, email string) (*services.Round, error)
	SaveGame(ctx context.Context, email string, wordsRead []string, difficulty models.Tier) (*models.GameSession, error)
	Profile(ctx context.Context, email string) (*services.Profile, error)
}

// Authenticator resolves an access token to an email.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// Observer records finished calls.
type Observer interface {
	Observe(transport, route, status string, d time.Duration)
}

type GRPCServer struct {
	address  string
	level    Level
	auth     Authenticator
	observer Observer
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, level Level, auth Authenticator, observer Observer) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		level:    level,
		auth:     auth,
		observer: observer,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{}
	if s.observer != nil {
		interceptors = append(interceptors, s.metricsInterceptor)
	}
	interceptors = append(interceptors, s.accessTokenInterceptor)

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	RegisterGameServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
