// Package layout describes foreign objects as auditable tables of (field, offset, kind)
// and decodes them with a single routine.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"memsplit/process"
)

type Kind int

const (
	KindInvalid Kind = iota
	KindU8
	KindBool
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
	KindPointer
)

var kindNames = map[Kind]string{
	KindU8:      "u8",
	KindBool:    "bool",
	KindI32:     "i32",
	KindU32:     "u32",
	KindI64:     "i64",
	KindU64:     "u64",
	KindF32:     "f32",
	KindF64:     "f64",
	KindPointer: "ptr",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Size is the width in bytes of a field of this kind
func (k Kind) Size() int64 {
	switch k {
	case KindU8, KindBool:
		return 1
	case KindI32, KindU32, KindF32:
		return 4
	case KindI64, KindU64, KindF64, KindPointer:
		return 8
	}
	return 0
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown field kind %q", s)
}

func (k *Kind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// Field is one row of a layout table; Offset is relative to the end of the object header
type Field struct {
	Name   string `yaml:"name"`
	Offset int64  `yaml:"offset"`
	Kind   Kind   `yaml:"kind"`
}

// Layout pins the byte layout of one version of a foreign object.
//
// The object is located by scanning for Signature; the object starts SignatureOffset bytes from
// the match and its body starts HeaderSize bytes after that.
type Layout struct {
	Name            string  `yaml:"name"`
	HeaderSize      int64   `yaml:"header-size"`
	BodySize        int64   `yaml:"body-size"`
	Signature       string  `yaml:"signature"`
	SignatureOffset int64   `yaml:"signature-offset"`
	Fields          []Field `yaml:"fields"`
}

func (l *Layout) Validate() error {
	if l.Name == "" {
		return errors.New("layout has no name")
	}
	if l.HeaderSize < 0 || l.BodySize <= 0 {
		return fmt.Errorf("layout %s: bad sizes header=%d body=%d", l.Name, l.HeaderSize, l.BodySize)
	}
	if _, err := l.DiscoverySignature(); err != nil {
		return fmt.Errorf("layout %s: %w", l.Name, err)
	}

	seen := make(map[string]bool, len(l.Fields))
	for _, f := range l.Fields {
		if f.Name == "" {
			return fmt.Errorf("layout %s: unnamed field at offset %d", l.Name, f.Offset)
		}
		if seen[f.Name] {
			return fmt.Errorf("layout %s: duplicate field %s", l.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Kind.Size() == 0 {
			return fmt.Errorf("layout %s: field %s has invalid kind", l.Name, f.Name)
		}
		if f.Offset < 0 || f.Offset+f.Kind.Size() > l.BodySize {
			return fmt.Errorf("layout %s: field %s (%s@%d) outside %d byte body", l.Name, f.Name, f.Kind, f.Offset, l.BodySize)
		}
	}
	return nil
}

// Require checks that the layout defines every named field
func (l *Layout) Require(names ...string) error {
	for _, name := range names {
		if _, ok := l.Field(name); !ok {
			return fmt.Errorf("layout %s: missing field %s", l.Name, name)
		}
	}
	return nil
}

func (l *Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (l *Layout) DiscoverySignature() (process.Signature, error) {
	return process.ParseSignature(l.Signature)
}

// ObjectAddress converts a discovery match into the object start
func (l *Layout) ObjectAddress(match process.ProcessMemoryAddress) process.ProcessMemoryAddress {
	return match.Offset(l.SignatureOffset)
}

// BodyAddress is where the fields of the object at addr begin
func (l *Layout) BodyAddress(addr process.ProcessMemoryAddress) process.ProcessMemoryAddress {
	return addr.Offset(l.HeaderSize)
}

// Decode reads every field of the table out of a preloaded body
func (l *Layout) Decode(body process.ProcessOffset) (*Record, error) {
	rec := &Record{layout: l.Name, base: body.Base(), values: make(map[string]value, len(l.Fields))}

	for _, f := range l.Fields {
		v, err := decodeField(body, f)
		if err != nil {
			return nil, &process.DecodeError{
				Address: body.Base().Offset(f.Offset),
				Reason:  fmt.Sprintf("%s.%s: %v", l.Name, f.Name, err),
			}
		}
		rec.values[f.Name] = v
	}
	return rec, nil
}

func decodeField(body process.ProcessOffset, f Field) (value, error) {
	off := process.ProcessMemoryAddress(f.Offset)
	v := value{kind: f.Kind}

	switch f.Kind {
	case KindU8, KindBool:
		n, err := body.OffsetUINT8(off)
		v.bits = uint64(n)
		return v, err
	case KindI32:
		n, err := body.OffsetINT32(off)
		v.bits = uint64(int64(n))
		return v, err
	case KindU32:
		n, err := body.OffsetUINT32(off)
		v.bits = uint64(n)
		return v, err
	case KindI64, KindU64:
		n, err := body.OffsetUINT64(off)
		v.bits = n
		return v, err
	case KindF32:
		n, err := body.OffsetFLOAT32(off)
		v.bits = math.Float64bits(float64(n))
		return v, err
	case KindF64:
		n, err := body.OffsetFLOAT64(off)
		v.bits = math.Float64bits(n)
		return v, err
	case KindPointer:
		n, err := body.OffsetPOINTER(off)
		v.bits = uint64(n)
		return v, err
	}
	return v, fmt.Errorf("invalid kind %s", f.Kind)
}

type value struct {
	kind Kind
	bits uint64
}

// Record holds the decoded fields of one object. Getters return the zero value for fields the
// layout does not define.
type Record struct {
	layout string
	base   process.ProcessMemoryAddress
	values map[string]value
}

func (r *Record) Layout() string {
	return r.layout
}

func (r *Record) Base() process.ProcessMemoryAddress {
	return r.base
}

func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

func (r *Record) Int(name string) int64 {
	v := r.values[name]
	switch v.kind {
	case KindF32, KindF64:
		return int64(math.Float64frombits(v.bits))
	}
	return int64(v.bits)
}

func (r *Record) Uint(name string) uint64 {
	return r.values[name].bits
}

func (r *Record) Bool(name string) bool {
	return r.values[name].bits != 0
}

func (r *Record) Float(name string) float64 {
	v := r.values[name]
	switch v.kind {
	case KindF32, KindF64:
		return math.Float64frombits(v.bits)
	case KindI32, KindI64:
		return float64(int64(v.bits))
	}
	return float64(v.bits)
}

func (r *Record) Pointer(name string) process.ProcessMemoryAddress {
	return process.ProcessMemoryAddress(r.values[name].bits)
}
