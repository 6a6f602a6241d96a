// Package memscan relocates objects in a foreign address space by wildcard signature
package memscan

import (
	"bytes"
	"errors"
	"fmt"
	"iter"

	"memsplit/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ErrNotFound is returned by First when a full scan produced no match
var ErrNotFound = errors.New("signature not found")

// chunkSize bounds a single read so huge heap regions are not copied in one piece
const chunkSize = 1 << 20

// Scanner enumerates the mapped regions of one process within a fixed address range
type Scanner struct {
	proc   process.Process
	filter process.AddressRange
	log    *logger.Logger
}

func New(proc process.Process, filter process.AddressRange) *Scanner {
	return &Scanner{
		proc:   proc,
		filter: filter,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("memscan-%d", proc.GetPID()))),
	}
}

// Scan returns the matches of sig in ascending address order. The sequence is lazy: regions are read
// only as the caller pulls matches. Each range over it starts a fresh pass from a refreshed memory map.
// An enumeration failure is yielded once as a *process.ScanError and ends the sequence.
func (s *Scanner) Scan(sig process.Signature) iter.Seq2[process.Match, error] {
	return func(yield func(process.Match, error) bool) {
		if !sig.IsValid() {
			yield(process.Match{}, &process.ScanError{Err: fmt.Errorf("invalid signature %q", sig.String())})
			return
		}

		if err := s.proc.UpdateMemoryMap(); err != nil {
			yield(process.Match{}, &process.ScanError{Err: err})
			return
		}
		mm, err := s.proc.GetMemoryMap()
		if err != nil {
			yield(process.Match{}, &process.ScanError{Err: err})
			return
		}

		for _, region := range mm {
			if !region.IsScannable() {
				continue
			}
			start, end, ok := s.filter.Clip(process.ProcessMemoryAddress(region.Address), process.ProcessMemoryAddress(region.End()))
			if !ok {
				continue
			}
			if !s.scanRegion(sig, start, end, yield) {
				return
			}
		}
	}
}

// scanRegion returns false when the consumer stopped iterating
func (s *Scanner) scanRegion(sig process.Signature, start, end process.ProcessMemoryAddress, yield func(process.Match, error) bool) bool {
	overlap := process.ProcessMemoryAddress(sig.Len() - 1)

	for pos := start; pos < end; pos += chunkSize {
		readEnd := min(pos+chunkSize+overlap, end)
		if readEnd-pos < process.ProcessMemoryAddress(sig.Len()) {
			return true
		}

		data, err := s.proc.ReadMemory(pos, process.ProcessMemorySize(readEnd-pos))
		if err != nil {
			// the region may have been unmapped since enumeration
			s.log.Debugln("Skipping unreadable region at", pos.ToString(), err)
			return true
		}

		for _, offset := range FindPatternMatches(data, sig) {
			if offset >= chunkSize {
				break // reported by the next chunk
			}
			if !yield(process.Match{Address: pos + process.ProcessMemoryAddress(offset)}, nil) {
				return false
			}
		}
	}
	return true
}

// First returns the lowest-address match, or ErrNotFound
func (s *Scanner) First(sig process.Signature) (process.Match, error) {
	for match, err := range s.Scan(sig) {
		return match, err
	}
	return process.Match{}, ErrNotFound
}

// FindAll collects up to max matches; max <= 0 means no limit
func (s *Scanner) FindAll(sig process.Signature, max int) ([]process.Match, error) {
	var matches []process.Match
	for match, err := range s.Scan(sig) {
		if err != nil {
			return matches, err
		}
		matches = append(matches, match)
		if max > 0 && len(matches) >= max {
			break
		}
	}
	s.log.Infoln("Scan for", sig.String(), "found", len(matches), "matches")
	return matches, nil
}

// FindPatternMatches returns every offset in data where sig matches, ascending
func FindPatternMatches(data []byte, sig process.Signature) []int {
	if !sig.IsValid() || len(data) < sig.Len() {
		return nil
	}

	// anchor on the first exact byte so IndexByte can skip ahead
	anchor := -1
	for j, m := range sig.Mask {
		if m {
			anchor = j
			break
		}
	}

	var matches []int
	last := len(data) - sig.Len()
	for i := 0; i <= last; i++ {
		if anchor >= 0 {
			next := bytes.IndexByte(data[i+anchor:last+anchor+1], sig.Pattern[anchor])
			if next < 0 {
				break
			}
			i += next
		}
		if sig.MatchesAt(data, i) {
			matches = append(matches, i)
		}
	}

	return matches
}
