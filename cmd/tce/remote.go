package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protojson"

	"github.com/chazu/tailcall/manifest"
	"github.com/chazu/tailcall/server"
)

// handleRemoteCommand processes the `tce remote` subcommand: it asks a
// bench server to run a spec over gRPC and prints the result as JSON.
// Usage:
//
//	tce remote [-addr host:port] [-mode m] [-size n] [-loops n] [-list]
func handleRemoteCommand(args []string, m *manifest.Manifest) {
	fs := flag.NewFlagSet("remote", flag.ExitOnError)
	addr := fs.String("addr", normalizeAddr(m.Server.Addr), "Bench server address")
	mode := fs.String("mode", "", "Dispatch mode (server default if empty)")
	size := fs.Int("size", 0, "Program size (server default if 0)")
	loops := fs.Int("loops", 0, "Loop count (server default if 0)")
	verify := fs.Bool("verify", false, "Ask the server to verify counters")
	list := fs.Bool("list", false, "List the server's recorded runs instead of running")
	timeout := fs.Duration("timeout", time.Minute, "Call timeout")
	fs.Parse(args)

	fields := map[string]any{}
	if *mode != "" {
		fields["mode"] = *mode
	}
	if *size > 0 {
		fields["size"] = *size
	}
	if *loops > 0 {
		fields["loops"] = *loops
	}
	if *verify {
		fields["verify"] = true
	}

	client, err := server.DialGRPC(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	call := client.Run
	if *list {
		call = client.List
	}
	resp, err := call(ctx, fields)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := protojson.Marshal(resp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	var out any
	json.Unmarshal(data, &out)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

// normalizeAddr turns a listen address like ":4567" into a dialable one.
func normalizeAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
