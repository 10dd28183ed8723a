// tce - the tail-call dispatch engine harness
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/tailcall/manifest"
)

func main() {
	verbose := flag.Int("v", 0, "Log verbosity (0 = errors only, 4 = debug)")
	logFile := flag.String("log", "", "Write logs to this file instead of stderr")
	configDir := flag.String("C", ".", "Directory to search upward for "+manifest.FileName)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tce [options] <command> [command options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the tail-call dispatch benchmark.\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run       Load the example program and run it\n")
		fmt.Fprintf(os.Stderr, "  serve     Serve BenchService over Connect RPC\n")
		fmt.Fprintf(os.Stderr, "  remote    Run on a bench server over gRPC\n")
		fmt.Fprintf(os.Stderr, "  history   List recorded runs\n")
		fmt.Fprintf(os.Stderr, "  listing   Print the example program\n")
		fmt.Fprintf(os.Stderr, "  init      Write a default %s\n", manifest.FileName)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tce run                          # Run with %s or defaults\n", manifest.FileName)
		fmt.Fprintf(os.Stderr, "  tce run -size 1000 -loops 10     # Small run\n")
		fmt.Fprintf(os.Stderr, "  tce run -mode nested -loops 1    # Non-eliminated chain\n")
		fmt.Fprintf(os.Stderr, "  tce run -repeat 5 -o runs.cbor   # Save results as CBOR\n")
		fmt.Fprintf(os.Stderr, "  tce serve -addr :8080            # Remote harness\n")
		fmt.Fprintf(os.Stderr, "  tce remote -addr host:8080 -mode switch\n")
	}
	flag.Parse()

	var logPath *string
	if *logFile != "" {
		logPath = logFile
	}
	commonlog.Configure(*verbose, logPath)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if args[0] == "init" {
		handleInitCommand(args[1:])
		return
	}

	m, err := loadManifest(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch args[0] {
	case "run":
		handleRunCommand(args[1:], m)
	case "serve":
		handleServeCommand(args[1:], m)
	case "remote":
		handleRemoteCommand(args[1:], m)
	case "history":
		handleHistoryCommand(args[1:], m)
	case "listing":
		handleListingCommand(args[1:], m)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}

// loadManifest finds tailcall.toml from dir upward, falling back to defaults.
func loadManifest(dir string) (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(), nil
	}
	return m, nil
}

// handleInitCommand writes a default tailcall.toml.
// Usage:
//
//	tce init [dir]
func handleInitCommand(args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path := filepath.Join(dir, manifest.FileName)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", path)
		os.Exit(1)
	}
	if err := manifest.Write(path, manifest.Default()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}
