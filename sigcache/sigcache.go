// Package sigcache persists the header fingerprint of the tracked object per process id, so a
// reconnect to the same still-running process can skip the structural scan.
package sigcache

import (
	"encoding/hex"
	"fmt"
	"strings"

	"memsplit/process"
)

const FingerprintSize = 16

// Fingerprint is the first 16 bytes of the tracked object: its vtable pointer and sync block
type Fingerprint [FingerprintSize]byte

func FingerprintFrom(data []byte) (Fingerprint, error) {
	var fp Fingerprint
	if len(data) != FingerprintSize {
		return fp, fmt.Errorf("fingerprint must be %d bytes, got %d", FingerprintSize, len(data))
	}
	copy(fp[:], data)
	return fp, nil
}

func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp[:])
}

// MarshalText stores the fingerprint as hex
func (fp Fingerprint) MarshalText() ([]byte, error) {
	return []byte(fp.String()), nil
}

func (fp *Fingerprint) UnmarshalText(text []byte) error {
	data, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("fingerprint %q: %w", text, err)
	}
	parsed, err := FingerprintFrom(data)
	if err != nil {
		return err
	}
	*fp = parsed
	return nil
}

func (fp Fingerprint) Signature() process.Signature {
	return process.ExactSignature(fp[:])
}

// HeaderSignature is one persisted cache entry
type HeaderSignature struct {
	PID       process.ProcessID `json:"pid"`
	Signature Fingerprint       `json:"signature"`
}

// Store is the persistence port for header signatures. A missing entry is not an error.
type Store interface {
	Get(pid process.ProcessID) (Fingerprint, bool, error)
	Set(pid process.ProcessID, fp Fingerprint) error
	Close() error
}

// Open builds a store from "memory", "file:<path>" or "sqlite:<path>"
func Open(spec string) (Store, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "", "memory":
		return NewMemoryStore(DefaultMemoryEntries)
	case "file":
		if arg == "" {
			return nil, fmt.Errorf("signature cache %q: missing path", spec)
		}
		return NewFileStore(arg)
	case "sqlite":
		if arg == "" {
			return nil, fmt.Errorf("signature cache %q: missing path", spec)
		}
		return NewSQLiteStore(arg)
	}
	return nil, fmt.Errorf("unknown signature cache %q", spec)
}
