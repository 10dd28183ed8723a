// Package program builds the example programs run by the tailcall engine.
//
// A program is a sequence of opcodes: three step opcodes that each bump
// their own counter and fall through, and a loop guard that sends control
// back to slot 0 until it has fired more than Loops times. Load turns a
// program into handlers on a vm.Machine; Interpret runs the same program
// through a switch over the opcode kinds.
package program
