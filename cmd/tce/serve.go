package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/tailcall/bench"
	"github.com/chazu/tailcall/history"
	"github.com/chazu/tailcall/manifest"
	"github.com/chazu/tailcall/server"
)

// handleServeCommand processes the `tce serve` subcommand.
// Usage:
//
//	tce serve [-addr :4567]
func handleServeCommand(args []string, m *manifest.Manifest) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&m.Server.Addr, "addr", m.Server.Addr, "Listen address")
	fs.Parse(args)

	var opts []server.ServerOption
	if dsn := m.HistoryDSN(); dsn != "" {
		store, err := history.Open(m.History.Driver, dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		opts = append(opts, server.WithHistory(store))
	}

	srv := server.New(bench.SpecFromManifest(m), opts...)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		srv.Stop()
	}()

	fmt.Printf("tce bench server listening on %s\n", m.Server.Addr)
	fmt.Printf("  Connect (HTTP/JSON): http://%s%s\n", m.Server.Addr, server.RunProcedure)
	fmt.Printf("  gRPC (binary):       grpc://%s\n", m.Server.Addr)
	if err := srv.ListenAndServe(m.Server.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
