package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/stockrail/internal/platform/timeouts"
	"github.com/louisbranch/stockrail/internal/services/game/api/grpc/interceptors"
	grpcmeta "github.com/louisbranch/stockrail/internal/services/game/api/grpc/metadata"
	tablegrpc "github.com/louisbranch/stockrail/internal/services/game/api/grpc/table"
	"github.com/louisbranch/stockrail/internal/services/game/storage/integrity"
	storagesqlite "github.com/louisbranch/stockrail/internal/services/game/storage/sqlite"
	"github.com/louisbranch/stockrail/internal/services/game/table"
)

// Config describes a game server.
type Config struct {
	// Addr is the listen address, e.g. ":8082".
	Addr string
	// DBPath is the SQLite file; its directory is created when missing.
	DBPath string
	// SnapshotEvery is the number of actions between state snapshots.
	SnapshotEvery int
	// Keyring signs the action journal when set.
	Keyring *integrity.Keyring
}

// Server hosts the stockrail game server.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *storagesqlite.Store
	registry   *table.Registry
}

// New creates a configured game server.
func New(cfg Config) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	store, err := openGameStore(cfg)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	registry, err := table.NewRegistry(store, table.WithSnapshotEvery(cfg.SnapshotEvery))
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(nil),
			interceptors.AccessLogInterceptor(nil, nil),
		),
	)
	healthServer := health.NewServer()
	tablegrpc.RegisterTableServiceServer(grpcServer, tablegrpc.NewService(registry))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(tablegrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		registry:   registry,
	}, nil
}

// Addr returns the listener address for the game server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a game server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve starts the game server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.close()

	log.Printf("game server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(timeouts.Shutdown):
			log.Printf("graceful stop timed out after %v", timeouts.Shutdown)
			s.grpcServer.Stop()
		}
		err := <-serveErr
		return handleErr(err)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func openGameStore(cfg Config) (*storagesqlite.Store, error) {
	path := strings.TrimSpace(cfg.DBPath)
	if path == "" {
		path = filepath.Join("data", "game.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	var opts []storagesqlite.Option
	if cfg.Keyring != nil {
		opts = append(opts, storagesqlite.WithKeyring(cfg.Keyring))
	}
	store, err := storagesqlite.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) close() {
	if s == nil {
		return
	}
	if s.registry != nil {
		s.registry.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close game store: %v", err)
		}
	}
}
