// Package mono decodes objects of the Mono runtime hosted by the target process.
//
// A System.String is laid out as
//
//	header (16)         length   "N    U    M    :    0   "
//	a8cd0054c57f0000 0000000000000000 05000000 4e00 5500 4d00 3a00 3000
//	0                8                16       20
//
// and a one-dimensional array as a 16 byte header, a bounds pointer, a 4 byte length at 24 and
// the elements from 32.
package mono

import (
	"fmt"
	"unicode/utf16"

	"memsplit/process"
	"memsplit/process_blob"
	"memsplit/remote"
)

const (
	StringLengthOffset = 16
	StringDataOffset   = 20
	ArrayLengthOffset  = 24
	ArrayDataOffset    = 32

	PointerSize = 8
)

// Sanity bounds; anything larger means the pointer no longer refers to what we think it does
const (
	MaxStringLength = 1 << 16
	MaxArrayLength  = 1 << 16
)

// ReadString decodes a managed string. A null pointer is "no string": ok is false and err is nil.
func ReadString(ptr remote.Pointer) (s string, ok bool, err error) {
	if ptr.IsNull() {
		return "", false, nil
	}

	length, err := ptr.INT32(StringLengthOffset)
	if err != nil {
		return "", false, err
	}
	if length < 0 || length > MaxStringLength {
		return "", false, &process.DecodeError{Address: ptr.Address, Reason: fmt.Sprintf("string length %d", length)}
	}
	if length == 0 {
		return "", true, nil
	}

	data, err := ptr.Offset(StringDataOffset).Bytes(process.ProcessMemorySize(length) * 2)
	if err != nil {
		return "", false, err
	}

	return DecodeUTF16(data), true, nil
}

// DecodeUTF16 turns little-endian UTF-16 code units into text
func DecodeUTF16(data []byte) string {
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}
	return string(utf16.Decode(units))
}

// ReadArray loads the elements of a managed array as one blob. A null pointer yields a nil blob.
func ReadArray(ptr remote.Pointer, elemSize process.ProcessMemorySize) (*process_blob.ProcessBlob, int, error) {
	if ptr.IsNull() {
		return nil, 0, nil
	}

	length, err := ptr.INT32(ArrayLengthOffset)
	if err != nil {
		return nil, 0, err
	}
	if length < 0 || length > MaxArrayLength {
		return nil, 0, &process.DecodeError{Address: ptr.Address, Reason: fmt.Sprintf("array length %d", length)}
	}
	if length == 0 {
		return process_blob.NewProcessBlob(ptr.Address+ArrayDataOffset, nil), 0, nil
	}

	blob, err := ptr.Offset(ArrayDataOffset).Preload(elemSize * process.ProcessMemorySize(length))
	if err != nil {
		return nil, 0, err
	}
	return blob, int(length), nil
}

// ReadPointerArray decodes a managed array of object references
func ReadPointerArray(ptr remote.Pointer) ([]remote.Pointer, error) {
	blob, length, err := ReadArray(ptr, PointerSize)
	if err != nil || blob == nil {
		return nil, err
	}

	out := make([]remote.Pointer, length)
	for i := range out {
		addr, err := blob.OffsetPOINTER(process.ProcessMemoryAddress(i * PointerSize))
		if err != nil {
			return nil, err
		}
		out[i] = ptr.At(addr)
	}
	return out, nil
}
