package process_blob

import (
	"encoding/binary"
	"fmt"
	"math"

	"memsplit/process"
)

// ProcessBlob is a block of remote memory fetched with one bulk read, decoded field by field
type ProcessBlob struct {
	baseaddress process.ProcessMemoryAddress
	data        []byte
}

var _ process.ProcessOffset = (*ProcessBlob)(nil)

func NewProcessBlob(baseAddress process.ProcessMemoryAddress, data []byte) *ProcessBlob {
	return &ProcessBlob{
		baseaddress: baseAddress,
		data:        data,
	}
}

// ReadBlob reads size bytes at addr from proc into a new blob
func ReadBlob(proc process.Process, addr process.ProcessMemoryAddress, size process.ProcessMemorySize) (*ProcessBlob, error) {
	data, err := proc.ReadMemory(addr, size)
	if err != nil {
		return nil, err
	}
	return NewProcessBlob(addr, data), nil
}

func (p *ProcessBlob) Data() []byte {
	return p.data
}

func (p *ProcessBlob) Base() process.ProcessMemoryAddress {
	return p.baseaddress
}

func (p *ProcessBlob) slice(offset process.ProcessMemoryAddress, size int) ([]byte, error) {
	if uint64(offset)+uint64(size) > uint64(len(p.data)) {
		return nil, fmt.Errorf("offset %d+%d out of bounds of %d byte blob at %s",
			offset, size, len(p.data), p.baseaddress.ToString())
	}
	return p.data[offset : int(offset)+size], nil
}

// OffsetUINT8 returns an unsigned 8-bit integer at offset
func (p *ProcessBlob) OffsetUINT8(offset process.ProcessMemoryAddress) (uint8, error) {
	data, err := p.slice(offset, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// OffsetUINT16 returns an unsigned 16-bit integer at offset
func (p *ProcessBlob) OffsetUINT16(offset process.ProcessMemoryAddress) (uint16, error) {
	data, err := p.slice(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// OffsetUINT32 returns an unsigned 32-bit integer at offset
func (p *ProcessBlob) OffsetUINT32(offset process.ProcessMemoryAddress) (uint32, error) {
	data, err := p.slice(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// OffsetUINT64 returns an unsigned 64-bit integer at offset
func (p *ProcessBlob) OffsetUINT64(offset process.ProcessMemoryAddress) (uint64, error) {
	data, err := p.slice(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// OffsetINT8 returns a signed 8-bit integer at offset
func (p *ProcessBlob) OffsetINT8(offset process.ProcessMemoryAddress) (int8, error) {
	value, err := p.OffsetUINT8(offset)
	return int8(value), err
}

// OffsetINT16 returns a signed 16-bit integer at offset
func (p *ProcessBlob) OffsetINT16(offset process.ProcessMemoryAddress) (int16, error) {
	value, err := p.OffsetUINT16(offset)
	return int16(value), err
}

// OffsetINT32 returns a signed 32-bit integer at offset
func (p *ProcessBlob) OffsetINT32(offset process.ProcessMemoryAddress) (int32, error) {
	value, err := p.OffsetUINT32(offset)
	return int32(value), err
}

// OffsetINT64 returns a signed 64-bit integer at offset
func (p *ProcessBlob) OffsetINT64(offset process.ProcessMemoryAddress) (int64, error) {
	value, err := p.OffsetUINT64(offset)
	return int64(value), err
}

// OffsetFLOAT32 returns an IEEE-754 single at offset
func (p *ProcessBlob) OffsetFLOAT32(offset process.ProcessMemoryAddress) (float32, error) {
	bits, err := p.OffsetUINT32(offset)
	return math.Float32frombits(bits), err
}

// OffsetFLOAT64 returns an IEEE-754 double at offset
func (p *ProcessBlob) OffsetFLOAT64(offset process.ProcessMemoryAddress) (float64, error) {
	bits, err := p.OffsetUINT64(offset)
	return math.Float64frombits(bits), err
}

// OffsetPOINTER returns a 64-bit pointer value at offset
func (p *ProcessBlob) OffsetPOINTER(offset process.ProcessMemoryAddress) (process.ProcessMemoryAddress, error) {
	value, err := p.OffsetUINT64(offset)
	return process.ProcessMemoryAddress(value), err
}

// OffsetBlob returns a sub-blob sharing this blob's bytes
func (p *ProcessBlob) OffsetBlob(offset process.ProcessMemoryAddress, size process.ProcessMemorySize) (*ProcessBlob, error) {
	data, err := p.slice(offset, int(size))
	if err != nil {
		return nil, err
	}
	return NewProcessBlob(p.baseaddress+offset, data), nil
}
