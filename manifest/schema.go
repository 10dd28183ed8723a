package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schema constrains a decoded manifest. Field names follow the json tags.
const schema = `
machine: {
	capacity:     int & >0
	"initial-ip": int & >=0 & <capacity
	"max-depth":  int & >=0
}
program: {
	size:  int & >=0 & <machine.capacity
	loops: int & >=0
}
run: {
	mode:   "trampoline" | "nested" | "switch"
	repeat: int & >=1
	verify: bool
}
history: {
	driver: "sqlite" | "duckdb"
	dsn:    string
}
server: {
	addr: string
}
`

// Validate checks m against the manifest schema.
func (m *Manifest) Validate() error {
	ctx := cuecontext.New()
	s := ctx.CompileString("close({"+schema+"})", cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	v := ctx.Encode(m)
	if err := v.Err(); err != nil {
		return err
	}
	if err := s.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
