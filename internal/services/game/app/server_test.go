package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	platformgrpc "github.com/louisbranch/stockrail/internal/platform/grpc"
	grpcmeta "github.com/louisbranch/stockrail/internal/services/game/api/grpc/metadata"
	tablegrpc "github.com/louisbranch/stockrail/internal/services/game/api/grpc/table"
	"github.com/louisbranch/stockrail/internal/services/game/storage/integrity"
)

func TestServeTableService(t *testing.T) {
	keyring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("0123456789abcdef0123456789abcdef")}, "v1")
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	dbPath := filepath.Join(t.TempDir(), "nested", "game.db")
	srv, err := New(Config{Addr: "127.0.0.1:0", DBPath: dbPath, SnapshotEvery: 1, Keyring: keyring})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()
	conn, err := platformgrpc.DialServiceWithHealth(dialCtx, srv.Addr(), tablegrpc.ServiceName, time.Second, nil)
	if err != nil {
		cancel()
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	client := tablegrpc.NewClient(conn)
	var header metadata.MD
	created, err := client.CreateGame(dialCtx, &tablegrpc.CreateGameRequest{Players: []string{"ann", "ben"}}, grpc.Header(&header))
	if err != nil {
		cancel()
		t.Fatalf("CreateGame: %v", err)
	}
	if created.View.CurrentPlayer != "ann" {
		t.Fatalf("current player = %s, want ann", created.View.CurrentPlayer)
	}
	if grpcmeta.FirstMetadataValue(header, grpcmeta.RequestIDHeader) == "" {
		t.Fatal("expected a request id response header")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestAddrNilServer(t *testing.T) {
	var srv *Server
	if srv.Addr() != "" {
		t.Fatal("expected empty addr for nil server")
	}
}
