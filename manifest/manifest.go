// Package manifest handles tailcall.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/tailcall/program"
)

// FileName is the name of the configuration file looked up by FindAndLoad.
const FileName = "tailcall.toml"

// Run modes.
const (
	ModeTrampoline = "trampoline"
	ModeNested     = "nested"
	ModeSwitch     = "switch"
)

// History drivers.
const (
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
)

// Manifest represents a tailcall.toml configuration.
type Manifest struct {
	Machine Machine `toml:"machine" json:"machine"`
	Program Program `toml:"program" json:"program"`
	Run     Run     `toml:"run" json:"run"`
	History History `toml:"history" json:"history"`
	Server  Server  `toml:"server" json:"server"`

	// Dir is the directory containing the tailcall.toml file (set at load time).
	Dir string `toml:"-" json:"-"`
}

// Machine configures the dispatch table and registers.
type Machine struct {
	Capacity  int `toml:"capacity" json:"capacity"`
	InitialIP int `toml:"initial-ip" json:"initial-ip"`
	MaxDepth  int `toml:"max-depth" json:"max-depth"`
}

// Program configures the loaded example program.
type Program struct {
	Size  int `toml:"size" json:"size"`
	Loops int `toml:"loops" json:"loops"`
}

// Run configures the harness.
type Run struct {
	Mode   string `toml:"mode" json:"mode"`
	Repeat int    `toml:"repeat" json:"repeat"`
	Verify bool   `toml:"verify" json:"verify"`
}

// History configures where results are recorded. An empty DSN disables
// recording.
type History struct {
	Driver string `toml:"driver" json:"driver"`
	DSN    string `toml:"dsn" json:"dsn"`
}

// Server configures the remote harness.
type Server struct {
	Addr string `toml:"addr" json:"addr"`
}

// Default returns the configuration used when no tailcall.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults(toml.MetaData{})
	return m
}

// Load parses a tailcall.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	m, err := LoadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// LoadFile parses, defaults and validates the configuration at path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	m.applyDefaults(md)

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a tailcall.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Write encodes m as TOML to path.
func Write(path string, m *Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	return f.Close()
}

// HistoryDSN returns the history DSN with relative file paths resolved
// against the manifest directory.
func (m *Manifest) HistoryDSN() string {
	dsn := m.History.DSN
	if dsn == "" || dsn == ":memory:" || filepath.IsAbs(dsn) || m.Dir == "" {
		return dsn
	}
	return filepath.Join(m.Dir, dsn)
}

// applyDefaults fills in unset fields. Zero is a valid program size and
// loop count, so those two are defaulted only when absent from the file.
func (m *Manifest) applyDefaults(md toml.MetaData) {
	if !md.IsDefined("program", "size") {
		m.Program.Size = program.DefaultSize
	}
	if !md.IsDefined("program", "loops") {
		m.Program.Loops = program.DefaultLoops
	}
	if m.Machine.Capacity == 0 {
		m.Machine.Capacity = max(program.DefaultCapacity, m.Program.Size+1)
	}
	if m.Run.Mode == "" {
		m.Run.Mode = ModeTrampoline
	}
	if m.Run.Repeat == 0 {
		m.Run.Repeat = 1
	}
	if m.History.Driver == "" {
		m.History.Driver = DriverSQLite
	}
	if m.Server.Addr == "" {
		m.Server.Addr = ":4567"
	}
}
