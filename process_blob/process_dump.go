package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"memsplit/process"
	"memsplit/process/memory_map"
)

const (
	MetadataFile  = "metadata.json"
	MemoryMapFile = "process_memory_map.json"
)

// DumpMetadata is the metadata.json document of a saved memory image
type DumpMetadata struct {
	PID  process.ProcessID `json:"pid"`
	Name string            `json:"name"`
}

// RegionFileName names the raw file holding one saved region
func RegionFileName(address uint64, size uint) string {
	return fmt.Sprintf("blob_0x%x_%d.bin", address, size)
}

// ProcessDump implements process.Process over an offline memory image
type ProcessDump struct {
	mu        sync.Mutex
	pid       process.ProcessID
	name      string
	memoryMap []memory_map.MemoryMapItem
	blobs     map[uint64][]byte // Address -> Data
	closed    bool
}

var _ process.Process = (*ProcessDump)(nil)

// NewProcessDump creates an empty image for pid
func NewProcessDump(pid process.ProcessID) *ProcessDump {
	return &ProcessDump{
		pid:   pid,
		blobs: make(map[uint64][]byte),
	}
}

// AddRegion maps data at address with the given permissions; the slice is retained, not copied
func (p *ProcessDump) AddRegion(address uint64, data []byte, perms string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.memoryMap = append(p.memoryMap, memory_map.MemoryMapItem{
		Address: address,
		Size:    uint(len(data)),
		Perms:   perms,
	})
	sort.Slice(p.memoryMap, func(i, j int) bool {
		return p.memoryMap[i].Address < p.memoryMap[j].Address
	})
	p.blobs[address] = data
}

// Poke overwrites image bytes at addr, which must lie inside one region
func (p *ProcessDump) Poke(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	region, err := p.regionData(addr, process.ProcessMemorySize(len(data)))
	if err != nil {
		return err
	}
	copy(region, data)
	return nil
}

func (p *ProcessDump) Name() string {
	return p.name
}

func (p *ProcessDump) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *ProcessDump) GetPID() process.ProcessID {
	return p.pid
}

func (p *ProcessDump) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return process.ErrProcessNotOpen
	}
	return nil // Memory map is static in a dump
}

func (p *ProcessDump) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, process.ErrProcessNotOpen
	}
	result := make([]memory_map.MemoryMapItem, len(p.memoryMap))
	copy(result, p.memoryMap)
	return result, nil
}

func (p *ProcessDump) regionData(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	region := memory_map.FindRegion(uint64(addr), p.memoryMap)
	if region == nil || !region.IsReadable() {
		return nil, process.ErrAddressNotMapped
	}

	data, ok := p.blobs[region.Address]
	if !ok {
		return nil, fmt.Errorf("%w: no data for region 0x%x", process.ErrAddressNotMapped, region.Address)
	}

	offset := uint64(addr) - region.Address
	if offset+uint64(size) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: read size %d exceeds region data bounds", process.ErrAddressNotMapped, size)
	}
	return data[offset : offset+uint64(size)], nil
}

func (p *ProcessDump) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, &process.ReadError{Address: addr, Size: size, Err: process.ErrProcessNotOpen}
	}

	data, err := p.regionData(addr, size)
	if err != nil {
		return nil, &process.ReadError{Address: addr, Size: size, Err: err}
	}

	result := make([]byte, size)
	copy(result, data)
	return result, nil
}

// LoadProcessDump reads an image written by process_linux.LinuxProcess.Save
func LoadProcessDump(dirname string) (*ProcessDump, error) {
	metadataBytes, err := os.ReadFile(filepath.Join(dirname, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata DumpMetadata
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	mmBytes, err := os.ReadFile(filepath.Join(dirname, MemoryMapFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}

	var memoryMap []memory_map.MemoryMapItem
	if err := json.Unmarshal(mmBytes, &memoryMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory map: %w", err)
	}

	p := NewProcessDump(metadata.PID)
	p.name = metadata.Name

	for _, region := range memoryMap {
		filename := filepath.Join(dirname, RegionFileName(region.Address, region.Size))
		data, err := os.ReadFile(filename)
		if os.IsNotExist(err) {
			continue // Blob not saved (e.g. too large, not readable or out of range)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read blob %s: %w", filename, err)
		}
		p.memoryMap = append(p.memoryMap, region)
		p.blobs[region.Address] = data
	}

	sort.Slice(p.memoryMap, func(i, j int) bool {
		return p.memoryMap[i].Address < p.memoryMap[j].Address
	})

	return p, nil
}
