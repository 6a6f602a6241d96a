package process

import (
	"memsplit/process/memory_map"
)

// Process is a remote memory accessor bound to one foreign process
type Process interface {
	// Close releases the handle; later reads fail with ErrProcessNotOpen
	Close() error

	// GetPID returns the process ID
	GetPID() ProcessID

	// UpdateMemoryMap refreshes the memory map for the process
	UpdateMemoryMap() error

	// GetMemoryMap returns a copy of the current memory map, sorted by address
	GetMemoryMap() ([]memory_map.MemoryMapItem, error)

	// ReadMemory reads size bytes at addr; failures are *ReadError
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)
}

// ProcessOffset defines typed reads relative to the start of a preloaded block
type ProcessOffset interface {
	// Data returns the raw data read from the process memory
	Data() []byte

	// Base returns the remote address the block was read from
	Base() ProcessMemoryAddress

	OffsetUINT8(offset ProcessMemoryAddress) (uint8, error)
	OffsetUINT16(offset ProcessMemoryAddress) (uint16, error)
	OffsetUINT32(offset ProcessMemoryAddress) (uint32, error)
	OffsetUINT64(offset ProcessMemoryAddress) (uint64, error)
	OffsetINT8(offset ProcessMemoryAddress) (int8, error)
	OffsetINT16(offset ProcessMemoryAddress) (int16, error)
	OffsetINT32(offset ProcessMemoryAddress) (int32, error)
	OffsetINT64(offset ProcessMemoryAddress) (int64, error)
	OffsetFLOAT32(offset ProcessMemoryAddress) (float32, error)
	OffsetFLOAT64(offset ProcessMemoryAddress) (float64, error)

	// OffsetPOINTER reads a 64-bit pointer value
	OffsetPOINTER(offset ProcessMemoryAddress) (ProcessMemoryAddress, error)
}
