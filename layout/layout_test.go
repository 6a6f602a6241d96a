package layout

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"memsplit/process"
	"memsplit/process_blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinLayoutsValidate(t *testing.T) {
	for _, l := range []Layout{AutoSplitterV1, ExtendedV1} {
		require.NoError(t, l.Validate(), l.Name)
	}

	sig, err := AutoSplitterV1.DiscoverySignature()
	require.NoError(t, err)
	assert.Equal(t, 75, sig.Len())
	assert.Equal(t, process.ProcessMemoryAddress(0x1000), AutoSplitterV1.ObjectAddress(0x1005))
	assert.Equal(t, process.ProcessMemoryAddress(0x1010), AutoSplitterV1.BodyAddress(0x1000))

	require.NoError(t, AutoSplitterV1.Require(FieldLevel, FieldChapter, FieldFileHearts))
	assert.Error(t, AutoSplitterV1.Require(FieldFeed))
}

func TestDecodeAutoSplitterV1(t *testing.T) {
	body := make([]byte, AutoSplitterV1.BodySize)
	binary.LittleEndian.PutUint64(body[0:], 0xdead0000)
	binary.LittleEndian.PutUint32(body[8:], 3)
	binary.LittleEndian.PutUint32(body[12:], math.MaxUint32) // -1
	body[16] = 1
	body[18] = 1
	binary.LittleEndian.PutUint64(body[24:], 25_000_000)
	binary.LittleEndian.PutUint32(body[32:], 4)
	body[37] = 1
	binary.LittleEndian.PutUint32(body[56:], 9)

	rec, err := AutoSplitterV1.Decode(process_blob.NewProcessBlob(0x2000, body))
	require.NoError(t, err)

	assert.Equal(t, "autosplitter-v1", rec.Layout())
	assert.Equal(t, process.ProcessMemoryAddress(0xdead0000), rec.Pointer(FieldLevel))
	assert.Equal(t, uint64(0xdead0000), rec.Uint(FieldLevel))
	assert.Equal(t, int64(3), rec.Int(FieldChapter))
	assert.Equal(t, int64(-1), rec.Int(FieldMode))
	assert.True(t, rec.Bool(FieldTimerActive))
	assert.False(t, rec.Bool(FieldChapterStarted))
	assert.True(t, rec.Bool(FieldChapterComplete))
	assert.Equal(t, int64(25_000_000), rec.Int(FieldChapterTime))
	assert.Equal(t, int64(4), rec.Int(FieldChapterStrawberries))
	assert.False(t, rec.Bool(FieldChapterCassette))
	assert.True(t, rec.Bool(FieldChapterHeart))
	assert.Equal(t, int64(9), rec.Int(FieldFileHearts))

	assert.False(t, rec.Has(FieldFeed))
	assert.Zero(t, rec.Int(FieldFeed))
}

func TestDecodeShortBody(t *testing.T) {
	_, err := ExtendedV1.Decode(process_blob.NewProcessBlob(0x2000, make([]byte, 10)))
	var decodeErr *process.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestValidateRejectsBadTables(t *testing.T) {
	l := Layout{Name: "x", BodySize: 8, Signature: "01", Fields: []Field{{"a", 4, KindI64}}}
	assert.ErrorContains(t, l.Validate(), "outside")

	l = Layout{Name: "x", BodySize: 8, Signature: "01", Fields: []Field{{"a", 0, KindI32}, {"a", 4, KindI32}}}
	assert.ErrorContains(t, l.Validate(), "duplicate")

	l = Layout{Name: "x", BodySize: 8, Signature: "zz"}
	assert.Error(t, l.Validate())
}

func TestLoadYAML(t *testing.T) {
	doc := `
layouts:
  - name: probe
    header-size: 16
    body-size: 12
    signature: "7f ?? 00"
    signature-offset: -1
    fields:
      - {name: level, offset: 0, kind: ptr}
      - {name: speed, offset: 8, kind: F32}
`
	layouts, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, layouts, 1)

	l := layouts[0]
	assert.Equal(t, int64(-1), l.SignatureOffset)
	assert.Equal(t, []Field{{"level", 0, KindPointer}, {"speed", 8, KindF32}}, l.Fields)

	body := make([]byte, 12)
	binary.LittleEndian.PutUint32(body[8:], math.Float32bits(1.5))
	rec, err := l.Decode(process_blob.NewProcessBlob(0, body))
	require.NoError(t, err)
	assert.Equal(t, 1.5, rec.Float("speed"))

	_, err = LoadYAML(strings.NewReader("layouts:\n  - name: bad\n    body-size: 4\n    signature: '00'\n    fields:\n      - {name: a, offset: 0, kind: i128}\n"))
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"autosplitter-v1", "extended-v1"}, r.Names())

	l, err := r.Get("autosplitter-v1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), l.BodySize)

	_, err = r.Get("nope")
	assert.ErrorContains(t, err, "autosplitter-v1")

	require.NoError(t, r.Register(Layout{Name: "tiny", BodySize: 1, Signature: "00", Fields: []Field{{"b", 0, KindU8}}}))
	_, err = r.Get("tiny")
	assert.NoError(t, err)
}
