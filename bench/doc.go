// Package bench is the harness around the dispatch engine: it builds a
// machine for a Spec, loads the example program, times the run and reports
// registers, counters and throughput.
package bench
