// Package remote holds weak references into a foreign process
package remote

import (
	"encoding/binary"

	"memsplit/process"
	"memsplit/process_blob"
)

// Pointer is an (accessor, address) pair. It owns nothing and guarantees nothing about liveness:
// every dereference reads live memory again.
type Pointer struct {
	proc    process.Process
	Address process.ProcessMemoryAddress
}

func NewPointer(proc process.Process, address process.ProcessMemoryAddress) Pointer {
	return Pointer{proc: proc, Address: address}
}

func (p Pointer) IsNull() bool {
	return p.Address == 0
}

// At returns a pointer to another address in the same process
func (p Pointer) At(address process.ProcessMemoryAddress) Pointer {
	return Pointer{proc: p.proc, Address: address}
}

// Offset returns the pointer moved by delta bytes
func (p Pointer) Offset(delta int64) Pointer {
	return p.At(p.Address.Offset(delta))
}

// Bytes reads n bytes at the pointer
func (p Pointer) Bytes(n process.ProcessMemorySize) ([]byte, error) {
	return p.proc.ReadMemory(p.Address, n)
}

// Preload reads size bytes in one request so fields can be decoded without further syscalls
func (p Pointer) Preload(size process.ProcessMemorySize) (*process_blob.ProcessBlob, error) {
	return process_blob.ReadBlob(p.proc, p.Address, size)
}

// INT32 reads a little-endian int32 at offset
func (p Pointer) INT32(offset int64) (int32, error) {
	data, err := p.Offset(offset).Bytes(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(data)), nil
}
