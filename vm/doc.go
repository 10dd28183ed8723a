// Package vm implements the tailcall dispatch engine.
//
// This package contains:
//   - A fixed-capacity dispatch table of handler references
//   - The register file (IP, SP, Flags)
//   - The trampoline entry that drives handler chains in constant stack space
//   - A nested runner that chains handlers as ordinary calls, for comparison
//   - A dispatch profiler
package vm
