package bench

import (
	"fmt"

	"github.com/chazu/tailcall/manifest"
	"github.com/chazu/tailcall/program"
)

// Spec describes one benchmark run.
type Spec struct {
	Mode      string `cbor:"mode" json:"mode"`
	Capacity  int    `cbor:"capacity" json:"capacity"`
	Size      int    `cbor:"size" json:"size"`
	Loops     int    `cbor:"loops" json:"loops"`
	InitialIP int    `cbor:"initial_ip" json:"initial_ip"`
	MaxDepth  int    `cbor:"max_depth" json:"max_depth"`
	Verify    bool   `cbor:"verify" json:"verify"`
}

// SpecFromManifest returns the Spec described by a configuration.
func SpecFromManifest(m *manifest.Manifest) Spec {
	return Spec{
		Mode:      m.Run.Mode,
		Capacity:  m.Machine.Capacity,
		Size:      m.Program.Size,
		Loops:     m.Program.Loops,
		InitialIP: m.Machine.InitialIP,
		MaxDepth:  m.Machine.MaxDepth,
		Verify:    m.Run.Verify,
	}
}

// Program returns the example program the spec runs.
func (s Spec) Program() program.Program {
	return program.New(s.Size, s.Loops)
}

// Validate checks the spec before a machine is built for it.
func (s Spec) Validate() error {
	switch s.Mode {
	case manifest.ModeTrampoline, manifest.ModeNested, manifest.ModeSwitch:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSpec, s.Mode)
	}
	if s.Size < 0 || s.Loops < 0 {
		return fmt.Errorf("%w: size and loops must not be negative", ErrInvalidSpec)
	}
	if s.Capacity <= s.Size {
		return fmt.Errorf("%w: capacity %d cannot hold %d slots", ErrInvalidSpec, s.Capacity, s.Size+1)
	}
	if s.InitialIP < 0 || s.InitialIP >= s.Capacity {
		return fmt.Errorf("%w: initial IP %d outside table of %d", ErrInvalidSpec, s.InitialIP, s.Capacity)
	}
	return nil
}
