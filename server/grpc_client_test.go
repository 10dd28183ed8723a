package server

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/chazu/tailcall/manifest"
)

// startGRPCServer serves a BenchServer on a real listener, since gRPC needs
// HTTP/2 end to end.
func startGRPCServer(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := New(testDefaults)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(srv.Stop)
	return l.Addr().String()
}

func TestGRPCClient_Run(t *testing.T) {
	addr := startGRPCServer(t)
	client, err := DialGRPC(addr)
	if err != nil {
		t.Fatalf("DialGRPC: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.Run(ctx, map[string]any{"mode": manifest.ModeNested})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := number(t, resp, "ip"); got != 10 {
		t.Errorf("ip = %v, want 10", got)
	}
	if got := number(t, resp, "max_depth"); got != 33 {
		t.Errorf("max_depth = %v, want 33", got)
	}
}

func TestGRPCClient_StatusCodes(t *testing.T) {
	addr := startGRPCServer(t)
	client, err := DialGRPC(addr)
	if err != nil {
		t.Fatalf("DialGRPC: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.Run(ctx, map[string]any{"mode": "recursive"}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Run code = %v, want InvalidArgument (err: %v)", status.Code(err), err)
	}
	if _, err := client.List(ctx, map[string]any{}); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("List code = %v, want FailedPrecondition (err: %v)", status.Code(err), err)
	}
}
