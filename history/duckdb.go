//go:build cgo

package history

// The DuckDB driver links against libduckdb and needs cgo.
import _ "github.com/marcboeker/go-duckdb"
