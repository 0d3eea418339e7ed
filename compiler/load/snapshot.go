package load

import (
	"bytes"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// MarshalUnit encodes an extracted unit. Referenced units are usually
// distributed as snapshots next to the module they describe.
func MarshalUnit(u *Unit) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(u); err != nil {
		return nil, fmt.Errorf("load: encode unit %q: %w", u.Name, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalUnit decodes a unit produced by MarshalUnit.
func UnmarshalUnit(b []byte) (*Unit, error) {
	u := &Unit{}
	if err := msgpack.Unmarshal(b, u); err != nil {
		return nil, fmt.Errorf("load: decode unit: %w", err)
	}
	return u, nil
}

// WriteSnapshot writes the snapshot of u to path.
func WriteSnapshot(path string, u *Unit) error {
	b, err := MarshalUnit(u)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// ReadSnapshot reads the unit snapshot at path.
func ReadSnapshot(path string) (*Unit, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read snapshot: %w", err)
	}
	return UnmarshalUnit(b)
}
