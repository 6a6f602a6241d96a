// Package process provides the types shared by every remote memory accessor
package process

import (
	"errors"
	"fmt"
)

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")
)

// AttachError means the target could not be opened: not found, exited, or insufficient privilege
type AttachError struct {
	PID ProcessID
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach to process %d: %v", e.PID, e.Err)
}

func (e *AttachError) Unwrap() error {
	return e.Err
}

// ReadError means an address range was unmapped or protected at read time
type ReadError struct {
	Address ProcessMemoryAddress
	Size    ProcessMemorySize
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %d bytes at %s: %v", e.Size, e.Address.ToString(), e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ScanError means region enumeration failed
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan: %v", e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// DecodeError means a foreign object could not be turned into a value
type DecodeError struct {
	Address ProcessMemoryAddress
	Reason  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode object at %s: %s", e.Address.ToString(), e.Reason)
}

// IsLostSync reports whether err means the cached view of the target can no longer be trusted
func IsLostSync(err error) bool {
	var readErr *ReadError
	var scanErr *ScanError
	return errors.As(err, &readErr) || errors.As(err, &scanErr) || errors.Is(err, ErrProcessNotOpen)
}

// ErrProcessExited is wrapped by read failures once the target process is gone
var ErrProcessExited = errors.New("process exited")
