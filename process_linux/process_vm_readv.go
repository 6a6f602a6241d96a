//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"unsafe"

	"memsplit/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv uses the process_vm_readv syscall to read memory from another process
func process_vm_readv(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
	bytesToRead process.ProcessMemorySize,
) ([]byte, error) {
	if bytesToRead == 0 {
		return []byte{}, nil
	}

	// Allocate a buffer if one wasn't provided
	if len(localBuf) != int(bytesToRead) {
		localBuf = make([]byte, bytesToRead)
	}

	localIov := unix.Iovec{
		Base: &localBuf[0],
		Len:  uint64(bytesToRead),
	}

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  int(bytesToRead),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return nil, errno
	}

	if int(n) != int(bytesToRead) {
		return localBuf[:n], fmt.Errorf("partial read: %d of %d bytes", n, bytesToRead)
	}

	return localBuf, nil
}

// ReadMemory reads memory from the process at the specified address
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return nil, &process.ReadError{Address: addr, Size: size, Err: process.ErrProcessNotOpen}
	}

	if addr == 0 {
		return nil, &process.ReadError{Address: addr, Size: size, Err: process.ErrAddressNotMapped}
	}

	data, err := process_vm_readv(pid, nil, addr, size)
	if err != nil {
		switch {
		case errors.Is(err, unix.ESRCH):
			err = fmt.Errorf("%w: %v", process.ErrProcessExited, err)
		case errors.Is(err, unix.EFAULT):
			err = fmt.Errorf("%w: %v", process.ErrAddressNotMapped, err)
		}
		return nil, &process.ReadError{Address: addr, Size: size, Err: err}
	}

	return data, nil
}
