//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"memsplit/process"
	"memsplit/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/unix"
)

// LinuxProcess implements process.Process for Linux systems using process_vm_readv
type LinuxProcess struct {
	pid process.ProcessID
	log *logger.Logger
	mm  []memory_map.MemoryMapItem
	mu  sync.Mutex
}

var _ process.Process = (*LinuxProcess)(nil)

// Attach opens pid for reading; every failure is a *process.AttachError
func Attach(pid process.ProcessID) (*LinuxProcess, error) {
	if pid <= 0 {
		return nil, &process.AttachError{PID: pid, Err: fmt.Errorf("invalid pid")}
	}

	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); err != nil {
		return nil, &process.AttachError{PID: pid, Err: err}
	}

	p := &LinuxProcess{
		pid: pid,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}

	if err := p.UpdateMemoryMap(); err != nil {
		return nil, &process.AttachError{PID: pid, Err: err}
	}

	// process_vm_readv needs ptrace access; probe it now so privilege problems surface at attach time
	if err := p.probe(); err != nil {
		return nil, &process.AttachError{PID: pid, Err: err}
	}

	p.log.Infoln("Process opened,", len(p.mm), "regions mapped")

	return p, nil
}

func (p *LinuxProcess) probe() error {
	p.mu.Lock()
	mm := p.mm
	p.mu.Unlock()

	for _, item := range mm {
		if !item.IsScannable() {
			continue
		}
		_, err := process_vm_readv(p.pid, nil, process.ProcessMemoryAddress(item.Address), 1)
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.ESRCH) {
			return err
		}
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("no readable memory regions")
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil
	}

	// Reset process state
	p.pid = 0
	p.mm = nil

	p.log.Infoln("Process closed")

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *LinuxProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.ReadMemoryMap(int(p.pid))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", process.ErrProcessExited, err)
	}
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	p.mm = mm
	return nil
}

func (p *LinuxProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	// Make a copy of the memory map to prevent external modification
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)

	return result, nil
}
