package process

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// Offset returns the address moved by a signed byte delta
func (pma ProcessMemoryAddress) Offset(delta int64) ProcessMemoryAddress {
	return ProcessMemoryAddress(int64(pma) + delta)
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// Signature is a byte pattern with a parallel mask; Mask[i] == false makes Pattern[i] a wildcard
type Signature struct {
	Pattern []byte
	Mask    []bool
}

// IsValid checks if the signature is non-empty and its mask matches the pattern length
func (sig Signature) IsValid() bool {
	return len(sig.Pattern) > 0 && len(sig.Pattern) == len(sig.Mask)
}

func (sig Signature) Len() int {
	return len(sig.Pattern)
}

// NewSignature builds a signature, padding or trimming mask to the pattern length with true values
func NewSignature(pattern []byte, mask []bool) Signature {
	resized := make([]bool, len(pattern))
	for i := range resized {
		resized[i] = i >= len(mask) || mask[i]
	}
	p := make([]byte, len(pattern))
	copy(p, pattern)
	return Signature{Pattern: p, Mask: resized}
}

// ExactSignature builds a signature where every byte must match
func ExactSignature(pattern []byte) Signature {
	return NewSignature(pattern, nil)
}

// ParseSignature parses a hex string like "7f00??ff" or "7f 00 ?? ff" where "??" marks a wildcard byte
func ParseSignature(s string) (Signature, error) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == ',' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, s)

	if len(s) == 0 {
		return Signature{}, fmt.Errorf("empty signature")
	}
	if len(s)%2 != 0 {
		return Signature{}, fmt.Errorf("signature %q has an odd number of hex digits", s)
	}

	sig := Signature{
		Pattern: make([]byte, len(s)/2),
		Mask:    make([]bool, len(s)/2),
	}
	for i := 0; i < len(s)/2; i++ {
		part := s[i*2 : i*2+2]
		if part[0] == '?' || part[1] == '?' {
			continue
		}
		b, err := hex.DecodeString(part)
		if err != nil {
			return Signature{}, fmt.Errorf("invalid hex byte %q at %d: %w", part, i, err)
		}
		sig.Pattern[i] = b[0]
		sig.Mask[i] = true
	}
	return sig, nil
}

// MustParseSignature is ParseSignature for package-level literals
func MustParseSignature(s string) Signature {
	sig, err := ParseSignature(s)
	if err != nil {
		panic(err)
	}
	return sig
}

// MatchesAt reports whether the signature matches data starting at offset
func (sig Signature) MatchesAt(data []byte, offset int) bool {
	if offset < 0 || offset+len(sig.Pattern) > len(data) {
		return false
	}
	for j, b := range sig.Pattern {
		if sig.Mask[j] && data[offset+j] != b {
			return false
		}
	}
	return true
}

// String renders the signature in the same form ParseSignature accepts
func (sig Signature) String() string {
	var sb strings.Builder
	for i, b := range sig.Pattern {
		if i < len(sig.Mask) && !sig.Mask[i] {
			sb.WriteString("??")
			continue
		}
		sb.WriteString(hex.EncodeToString([]byte{b}))
	}
	return sb.String()
}

// AddressRange is an inclusive-exclusive [Start, End) bound on scanned addresses
type AddressRange struct {
	Start ProcessMemoryAddress
	End   ProcessMemoryAddress
}

// UserSpaceRange covers the canonical x86-64 user half, skipping the null page
var UserSpaceRange = AddressRange{Start: 0x10000, End: 0x7FFFFFFFF000}

func (r AddressRange) Contains(addr ProcessMemoryAddress) bool {
	return addr >= r.Start && addr < r.End
}

// Clip intersects [start, end) with the range, returning ok=false when empty
func (r AddressRange) Clip(start, end ProcessMemoryAddress) (ProcessMemoryAddress, ProcessMemoryAddress, bool) {
	if start < r.Start {
		start = r.Start
	}
	if end > r.End {
		end = r.End
	}
	return start, end, start < end
}

// Match is an absolute address where a Signature matched
type Match struct {
	Address ProcessMemoryAddress
}
