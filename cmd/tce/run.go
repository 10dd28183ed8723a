package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/chazu/tailcall/bench"
	"github.com/chazu/tailcall/history"
	"github.com/chazu/tailcall/manifest"
	"github.com/chazu/tailcall/program"
	"github.com/chazu/tailcall/vm"
)

// handleRunCommand processes the `tce run` subcommand. Flags override the
// values loaded from tailcall.toml.
func handleRunCommand(args []string, m *manifest.Manifest) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.StringVar(&m.Run.Mode, "mode", m.Run.Mode, "Dispatch mode: trampoline, nested or switch")
	fs.IntVar(&m.Program.Size, "size", m.Program.Size, "Program size (slots before the loop guard)")
	fs.IntVar(&m.Program.Loops, "loops", m.Program.Loops, "Loop count")
	fs.IntVar(&m.Machine.Capacity, "capacity", m.Machine.Capacity, "Dispatch table capacity")
	fs.IntVar(&m.Machine.InitialIP, "ip", m.Machine.InitialIP, "Initial instruction pointer")
	fs.IntVar(&m.Machine.MaxDepth, "max-depth", m.Machine.MaxDepth, "Frame limit for nested mode (0 = default)")
	fs.IntVar(&m.Run.Repeat, "repeat", m.Run.Repeat, "Number of runs")
	fs.BoolVar(&m.Run.Verify, "verify", m.Run.Verify, "Check counters against the expected values")
	output := fs.String("o", "", "Write results as CBOR to this file")
	record := fs.Bool("record", m.History.DSN != "", "Record results in the history database")
	profile := fs.Bool("profile", false, "Report per-slot dispatch counts")
	fs.Parse(args)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["size"] && !set["capacity"] && m.Machine.Capacity <= m.Program.Size {
		m.Machine.Capacity = m.Program.Size + 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := bench.NewRunner()
	var prof *vm.Profiler
	if *profile {
		prof = vm.NewProfiler()
		runner.Profiler = prof
	}

	spec := bench.SpecFromManifest(m)
	results, err := runner.RunRepeated(ctx, spec, m.Run.Repeat)
	for _, res := range results {
		bench.WriteText(os.Stdout, res)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if !errors.Is(err, bench.ErrMismatch) || len(results) == 0 {
			os.Exit(1)
		}
	}

	if len(results) > 1 {
		s := bench.Summarize(results)
		fmt.Printf("%d runs (%d faulted): best %s, mean %s, best instructions/second: %f\n",
			s.Runs, s.Failed, s.Best, s.Mean, s.BestThroughput)
	}

	if prof != nil {
		printProfile(prof)
	}

	if *output != "" {
		data, err := bench.MarshalResults(results)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *record {
		if err := recordResults(ctx, m, results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	for _, res := range results {
		if res.Failed() {
			os.Exit(1)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func printProfile(p *vm.Profiler) {
	stats := p.Stats()
	fmt.Printf("profile: %d slots, %d dispatches, %d hot (threshold %d)\n",
		stats.TotalSlots, stats.TotalDispatches, stats.HotSlots, p.HotThreshold)
	hot := p.HotSlots()
	if len(hot) > 10 {
		hot = hot[:10]
	}
	for _, ip := range hot {
		fmt.Printf("  [%d] %d\n", ip, p.DispatchCount(ip))
	}
}

func recordResults(ctx context.Context, m *manifest.Manifest, results []*bench.Result) error {
	dsn := m.HistoryDSN()
	if dsn == "" {
		return fmt.Errorf("no [history] dsn configured in %s", manifest.FileName)
	}
	store, err := history.Open(m.History.Driver, dsn)
	if err != nil {
		return err
	}
	defer store.Close()
	for _, res := range results {
		if err := store.Record(ctx, res); err != nil {
			return err
		}
	}
	fmt.Printf("Recorded %d runs in %s\n", len(results), dsn)
	return nil
}

// handleListingCommand prints the example program.
func handleListingCommand(args []string, m *manifest.Manifest) {
	fs := flag.NewFlagSet("listing", flag.ExitOnError)
	fs.IntVar(&m.Program.Size, "size", m.Program.Size, "Program size")
	fs.IntVar(&m.Program.Loops, "loops", m.Program.Loops, "Loop count")
	fs.Parse(args)

	if err := program.New(m.Program.Size, m.Program.Loops).Listing(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
