package bench

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode encodes canonically so equal results encode to equal bytes.
// Times keep nanosecond precision.
var cborEncMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("bench: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalResult serializes a Result to CBOR bytes.
func MarshalResult(r *Result) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalResult deserializes a Result from CBOR bytes.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("bench: unmarshal result: %w", err)
	}
	return &r, nil
}

// MarshalResults serializes a batch of results as one CBOR array.
func MarshalResults(rs []*Result) ([]byte, error) {
	return cborEncMode.Marshal(rs)
}

// UnmarshalResults deserializes a CBOR array of results.
func UnmarshalResults(data []byte) ([]*Result, error) {
	var rs []*Result
	if err := cbor.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("bench: unmarshal results: %w", err)
	}
	return rs, nil
}
