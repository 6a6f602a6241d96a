package process_blob

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessBlobScalars(t *testing.T) {
	data := make([]byte, 40)
	data[0] = 0xFE
	binary.LittleEndian.PutUint16(data[2:], 0xBEEF)
	binary.LittleEndian.PutUint32(data[4:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint64(data[8:], uint64(0x7F0011223344))
	binary.LittleEndian.PutUint32(data[16:], math.Float32bits(1.5))
	binary.LittleEndian.PutUint64(data[24:], math.Float64bits(-2.25))
	binary.LittleEndian.PutUint64(data[32:], uint64(1<<63))

	blob := NewProcessBlob(0x1000, data)

	u8, err := blob.OffsetUINT8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFE), u8)

	i8, err := blob.OffsetINT8(0)
	require.NoError(t, err)
	assert.Equal(t, int8(-2), i8)

	u16, err := blob.OffsetUINT16(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	i32, err := blob.OffsetINT32(4)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i32)

	ptr, err := blob.OffsetPOINTER(8)
	require.NoError(t, err)
	assert.EqualValues(t, 0x7F0011223344, ptr)

	f32, err := blob.OffsetFLOAT32(16)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)

	f64, err := blob.OffsetFLOAT64(24)
	require.NoError(t, err)
	assert.Equal(t, -2.25, f64)

	i64, err := blob.OffsetINT64(32)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), i64)
}

func TestProcessBlobOutOfBounds(t *testing.T) {
	blob := NewProcessBlob(0x1000, make([]byte, 8))

	_, err := blob.OffsetUINT64(1)
	assert.Error(t, err)

	_, err = blob.OffsetUINT32(8)
	assert.Error(t, err)

	sub, err := blob.OffsetBlob(4, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 0x1004, sub.Base())
	assert.Len(t, sub.Data(), 4)
}
