// Package hexdump renders remote memory for the scan and inspect commands
package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"memsplit/process"
	"memsplit/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

type Options struct {
	// BytesPerLine defaults to 16
	BytesPerLine int

	// StartAddress labels the first byte
	StartAddress uint64

	// Highlight marks data[Highlight[0]:Highlight[1]]; a zero range highlights nothing
	Highlight [2]int

	// Color enables ANSI highlighting; off, highlighted bytes are bracketed instead
	Color bool

	// MemoryMap, when set, annotates 8-byte aligned words that point into mapped memory
	MemoryMap []memory_map.MemoryMapItem
}

func Dump(data []byte, opts Options) string {
	var buf bytes.Buffer
	DumpToWriter(&buf, data, opts)
	return buf.String()
}

// DumpToWriter writes one line per BytesPerLine bytes:
//
//	00007f3a10000000  7f 00 00 00 00 00 00 00 | 00 00 00 00 00 00 00 00  |........ ........| -> 0x7f3a1000ab00
func DumpToWriter(w io.Writer, data []byte, opts Options) {
	if opts.BytesPerLine <= 0 {
		opts.BytesPerLine = 16
	}

	for off := 0; off < len(data); off += opts.BytesPerLine {
		end := min(off+opts.BytesPerLine, len(data))
		writeLine(w, data[off:end], off, opts)
	}
}

func (o Options) highlighted(i int) bool {
	return i >= o.Highlight[0] && i < o.Highlight[1]
}

func (o Options) paint(i int, s string) string {
	if !o.highlighted(i) {
		return s
	}
	if o.Color {
		return coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, s)
	}
	return "[" + s + "]"
}

func writeLine(w io.Writer, line []byte, off int, opts Options) {
	half := opts.BytesPerLine / 2

	fmt.Fprintf(w, "%016x  ", opts.StartAddress+uint64(off))

	for i := 0; i < opts.BytesPerLine; i++ {
		if i == half && half > 0 {
			fmt.Fprint(w, "| ")
		}
		if i >= len(line) {
			fmt.Fprint(w, "   ")
			continue
		}
		fmt.Fprint(w, opts.paint(off+i, fmt.Sprintf("%02x", line[i])), " ")
	}

	var ascii strings.Builder
	for i, b := range line {
		if i == half && half > 0 {
			ascii.WriteByte(' ')
		}
		c := "."
		if b >= 0x20 && b < 0x7f {
			c = string(rune(b))
		}
		ascii.WriteString(opts.paint(off+i, c))
	}
	fmt.Fprint(w, " |", ascii.String(), "|")

	if opts.MemoryMap != nil {
		for i := 0; i+8 <= len(line); i += 8 {
			ptr := binary.LittleEndian.Uint64(line[i:])
			if ptr != 0 && memory_map.FindRegion(ptr, opts.MemoryMap) != nil {
				fmt.Fprintf(w, " -> 0x%x", ptr)
			}
		}
	}

	fmt.Fprintln(w)
}

// Around reads before bytes ahead of addr and after bytes from it, clipped to the containing
// region, and renders them with the length bytes at addr highlighted
func Around(proc process.Process, addr process.ProcessMemoryAddress, length, before, after int, color bool) (string, error) {
	mm, err := proc.GetMemoryMap()
	if err != nil {
		return "", err
	}
	region := memory_map.FindRegion(uint64(addr), mm)
	if region == nil {
		return "", fmt.Errorf("%s: %w", addr.ToString(), process.ErrAddressNotMapped)
	}

	start := region.Address
	if uint64(addr)-region.Address > uint64(before) {
		start = uint64(addr) - uint64(before)
	}
	end := min(uint64(addr)+uint64(after), region.End())

	data, err := proc.ReadMemory(process.ProcessMemoryAddress(start), process.ProcessMemorySize(end-start))
	if err != nil {
		return "", err
	}

	rel := int(uint64(addr) - start)
	return Dump(data, Options{
		StartAddress: start,
		Highlight:    [2]int{rel, rel + length},
		Color:        color,
		MemoryMap:    mm,
	}), nil
}
