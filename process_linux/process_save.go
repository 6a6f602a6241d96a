//go:build linux

package process_linux

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"memsplit/process"
	"memsplit/process_blob"
)

// maxSavedRegion bounds a single region file
const maxSavedRegion = 100 * 1024 * 1024

// Save writes the process metadata, memory map and every scannable region inside r to dirname,
// in the format process_blob.ProcessDump.Load reads
func (p *LinuxProcess) Save(dirname string, r process.AddressRange) error {
	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	pid := p.GetPID()
	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	p.log.Infoln("Saving process to directory:", dirname)

	name := "unknown"
	if comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid)); err == nil {
		name = strings.TrimSpace(string(comm))
	}

	metadata := process_blob.DumpMetadata{PID: pid, Name: name}
	metadataJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, process_blob.MetadataFile), metadataJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	if err := p.UpdateMemoryMap(); err != nil {
		return fmt.Errorf("failed to update memory map: %w", err)
	}
	mm, err := p.GetMemoryMap()
	if err != nil {
		return err
	}

	memoryMapJSON, err := json.MarshalIndent(mm, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, process_blob.MemoryMapFile), memoryMapJSON, 0644); err != nil {
		return fmt.Errorf("failed to write memory map file: %w", err)
	}

	savedCount := 0
	errorCount := 0
	for _, region := range mm {
		if !region.IsScannable() || !r.Contains(process.ProcessMemoryAddress(region.Address)) {
			continue
		}

		if region.Size > maxSavedRegion {
			p.log.Infoln("Skipping large region at", fmt.Sprintf("%x", region.Address),
				"(size:", region.Size/1024/1024, "MB)")
			continue
		}

		data, err := p.ReadMemory(process.ProcessMemoryAddress(region.Address), process.ProcessMemorySize(region.Size))
		if err != nil {
			p.log.Debugln("Failed to read memory region at", fmt.Sprintf("%x", region.Address), ":", err)
			errorCount++
			continue
		}

		filename := filepath.Join(dirname, process_blob.RegionFileName(region.Address, region.Size))
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return fmt.Errorf("failed to write region file: %w", err)
		}
		savedCount++
	}

	p.log.Infoln("Process dump saved:", savedCount, "regions saved,", errorCount, "unreadable")

	return nil
}
