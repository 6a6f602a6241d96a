package mono

import (
	"encoding/binary"
	"errors"
	"testing"
	"unicode/utf16"

	"memsplit/process"
	"memsplit/process_blob"
	"memsplit/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func managedString(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, StringDataOffset+2*len(units))
	binary.LittleEndian.PutUint64(out, 0x7fc55400cda8)
	binary.LittleEndian.PutUint32(out[StringLengthOffset:], uint32(len(units)))
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[StringDataOffset+2*i:], u)
	}
	return out
}

func managedPointerArray(ptrs ...uint64) []byte {
	out := make([]byte, ArrayDataOffset+PointerSize*len(ptrs))
	binary.LittleEndian.PutUint32(out[ArrayLengthOffset:], uint32(len(ptrs)))
	for i, p := range ptrs {
		binary.LittleEndian.PutUint64(out[ArrayDataOffset+PointerSize*i:], p)
	}
	return out
}

func TestReadString(t *testing.T) {
	dump := process_blob.NewProcessDump(1)
	dump.AddRegion(0x1000, managedString("NUM:0"), "rw-p")
	dump.AddRegion(0x2000, managedString(""), "rw-p")
	dump.AddRegion(0x3000, managedString("Forsaken City ✓"), "rw-p")

	s, ok, err := ReadString(remote.NewPointer(dump, 0x1000))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "NUM:0", s)

	s, ok, err = ReadString(remote.NewPointer(dump, 0x2000))
	require.NoError(t, err, "empty string is not an error")
	assert.True(t, ok)
	assert.Equal(t, "", s)

	s, ok, err = ReadString(remote.NewPointer(dump, 0))
	require.NoError(t, err, "null string is not an error")
	assert.False(t, ok)
	assert.Equal(t, "", s)

	s, _, err = ReadString(remote.NewPointer(dump, 0x3000))
	require.NoError(t, err)
	assert.Equal(t, "Forsaken City ✓", s)
}

func TestReadStringBadLength(t *testing.T) {
	obj := managedString("x")
	binary.LittleEndian.PutUint32(obj[StringLengthOffset:], 0xFFFFFFFF)

	dump := process_blob.NewProcessDump(1)
	dump.AddRegion(0x1000, obj, "rw-p")

	_, _, err := ReadString(remote.NewPointer(dump, 0x1000))
	var decodeErr *process.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestReadStringUnmapped(t *testing.T) {
	dump := process_blob.NewProcessDump(1)

	_, _, err := ReadString(remote.NewPointer(dump, 0x1000))
	assert.True(t, errors.Is(err, process.ErrAddressNotMapped))
	assert.True(t, process.IsLostSync(err))
}

func TestReadPointerArray(t *testing.T) {
	dump := process_blob.NewProcessDump(1)
	dump.AddRegion(0x1000, managedPointerArray(0x2000, 0, 0x3000), "rw-p")
	dump.AddRegion(0x4000, managedPointerArray(), "rw-p")

	ptrs, err := ReadPointerArray(remote.NewPointer(dump, 0x1000))
	require.NoError(t, err)
	require.Len(t, ptrs, 3)
	assert.Equal(t, process.ProcessMemoryAddress(0x2000), ptrs[0].Address)
	assert.True(t, ptrs[1].IsNull())
	assert.Equal(t, process.ProcessMemoryAddress(0x3000), ptrs[2].Address)

	ptrs, err = ReadPointerArray(remote.NewPointer(dump, 0x4000))
	require.NoError(t, err)
	assert.Empty(t, ptrs)

	ptrs, err = ReadPointerArray(remote.NewPointer(dump, 0))
	require.NoError(t, err, "null array is absent data")
	assert.Nil(t, ptrs)
}

func TestReadArrayScalars(t *testing.T) {
	obj := make([]byte, ArrayDataOffset+4*3)
	binary.LittleEndian.PutUint32(obj[ArrayLengthOffset:], 3)
	for i, v := range []int32{7, -1, 42} {
		binary.LittleEndian.PutUint32(obj[ArrayDataOffset+4*i:], uint32(v))
	}

	dump := process_blob.NewProcessDump(1)
	dump.AddRegion(0x1000, obj, "rw-p")

	blob, n, err := ReadArray(remote.NewPointer(dump, 0x1000), 4)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, err := blob.OffsetINT32(4)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)
}
