package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCClient calls BenchService over the gRPC protocol. BenchServer serves
// gRPC on its plain-text port, so no TLS is configured.
type GRPCClient struct {
	conn *grpc.ClientConn
}

// DialGRPC creates a client for the bench server at addr ("host:port").
// The connection is established lazily on the first call.
func DialGRPC(addr string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &GRPCClient{conn: conn}, nil
}

// Run executes one benchmark remotely. fields override the server's
// defaults, as for the Connect Run procedure.
func (c *GRPCClient) Run(ctx context.Context, fields map[string]any) (*structpb.Struct, error) {
	return c.invoke(ctx, RunProcedure, fields)
}

// List returns the server's recorded runs matching fields.
func (c *GRPCClient) List(ctx context.Context, fields map[string]any) (*structpb.Struct, error) {
	return c.invoke(ctx, ListProcedure, fields)
}

// Close tears down the connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) invoke(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("bad request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
