package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/chazu/tailcall/bench"
	"github.com/chazu/tailcall/history"
	"github.com/chazu/tailcall/manifest"
)

// handleHistoryCommand processes the `tce history` subcommand.
// Usage:
//
//	tce history [-mode m] [-size n] [-loops n] [-limit n]   List runs
//	tce history -best [-mode m] [-size n] [-loops n]        Fastest run
//	tce history -show <id>                                  One run in full
func handleHistoryCommand(args []string, m *manifest.Manifest) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	var f history.Filter
	fs.StringVar(&f.Mode, "mode", "", "Only runs in this mode")
	fs.IntVar(&f.Size, "size", 0, "Only runs with this program size")
	fs.IntVar(&f.Loops, "loops", 0, "Only runs with this loop count")
	fs.IntVar(&f.Limit, "limit", 20, "Maximum number of runs to list")
	best := fs.Bool("best", false, "Show the fastest successful run")
	show := fs.String("show", "", "Show the run with this ID")
	fs.Parse(args)

	dsn := m.HistoryDSN()
	if dsn == "" {
		fmt.Fprintf(os.Stderr, "Error: no [history] dsn configured in %s\n", manifest.FileName)
		os.Exit(1)
	}
	store, err := history.Open(m.History.Driver, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	switch {
	case *show != "":
		res, err := store.Get(ctx, *show)
		exitOnHistoryError(err)
		bench.WriteText(os.Stdout, res)
	case *best:
		mode, size, loops := f.Mode, f.Size, f.Loops
		if mode == "" {
			mode = m.Run.Mode
		}
		if size == 0 {
			size = m.Program.Size
		}
		if loops == 0 {
			loops = m.Program.Loops
		}
		res, err := store.Best(ctx, mode, size, loops)
		exitOnHistoryError(err)
		bench.WriteText(os.Stdout, res)
	default:
		runs, err := store.List(ctx, f)
		exitOnHistoryError(err)
		printRuns(runs)
	}
}

func printRuns(runs []*bench.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tMODE\tSIZE\tLOOPS\tSECONDS\tINSTR/S\tSTATUS")
	for _, r := range runs {
		status := "ok"
		switch {
		case r.Failed():
			status = "fault"
		case r.Verified:
			status = "verified"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.6f\t%.0f\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Spec.Mode,
			r.Spec.Size, r.Spec.Loops, r.Elapsed.Seconds(), r.Throughput(), status)
	}
	w.Flush()
}

func exitOnHistoryError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, history.ErrNotFound) {
		os.Exit(3)
	}
	os.Exit(1)
}
