package autosplitter

import (
	"encoding/binary"
	"errors"
	"testing"
	"unicode/utf16"

	"memsplit/layout"
	"memsplit/process"
	"memsplit/process_blob"
	"memsplit/remote"
	"memsplit/sigcache"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	imageBase = 0x100000
	objOffset = 0x100
	objBody   = objOffset + 16
)

var vtable = []byte{0x10, 0xe2, 0x8b, 0x84, 0xa0, 0x7f, 0, 0}

func putString(buf []byte, off int, s string) {
	units := utf16.Encode([]rune(s))
	binary.LittleEndian.PutUint32(buf[off+16:], uint32(len(units)))
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[off+20+2*i:], u)
	}
}

func u32(v int32) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(v))
}

func u64(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

// freshImage holds the tracked object in its fresh-launch state: chapter and mode -1
func freshImage(t *testing.T) *process_blob.ProcessDump {
	buf := make([]byte, 0x2000)
	copy(buf[objOffset:], vtable)
	binary.LittleEndian.PutUint64(buf[objBody:], imageBase+0x600)
	binary.LittleEndian.PutUint32(buf[objBody+8:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(buf[objBody+12:], 0xFFFFFFFF)
	putString(buf, 0x600, "")
	putString(buf, 0x700, "1")

	dump := process_blob.NewProcessDump(4242)
	dump.AddRegion(imageBase, buf, "rw-p")
	return dump
}

func enterChapterOne(t *testing.T, dump *process_blob.ProcessDump, obj uint64) {
	body := process.ProcessMemoryAddress(obj + 16)
	require.NoError(t, dump.Poke(body, u64(imageBase+0x700)))
	require.NoError(t, dump.Poke(body+8, u32(1)))
	require.NoError(t, dump.Poke(body+12, u32(0)))
	require.NoError(t, dump.Poke(body+17, []byte{1}))
	require.NoError(t, dump.Poke(body+24, u64(TicksPerSecond)))
}

func TestTicksToSeconds(t *testing.T) {
	assert.Equal(t, 1.0, TicksToSeconds(10_000_000))
	assert.Equal(t, 2.5, TicksToSeconds(25_000_000))
	assert.Equal(t, 0.0, TicksToSeconds(0))
}

func TestMode(t *testing.T) {
	assert.Equal(t, "Menu", ModeMenu.String())
	assert.Equal(t, "Other(7)", Mode(7).String())
	assert.True(t, Mode(7).IsOther())
	assert.False(t, ModeCSide.IsOther())

	side, ok := ModeBSide.Side()
	assert.True(t, ok)
	assert.Equal(t, "b-side", side)
	_, ok = ModeMenu.Side()
	assert.False(t, ok)
}

func TestTrackerDiscoversAndFollows(t *testing.T) {
	dump := freshImage(t)
	store, err := sigcache.NewMemoryStore(4)
	require.NoError(t, err)

	tracker, err := NewTracker(dump, TrackerOptions{Store: store})
	require.NoError(t, err)

	state, err := tracker.Poll()
	require.NoError(t, err)
	require.True(t, state.Found)
	assert.Equal(t, process.ProcessMemoryAddress(imageBase+objOffset), tracker.Address())
	assert.Equal(t, Snapshot{Chapter: -1, Mode: ModeMenu}, state.Snapshot)
	assert.Nil(t, state.Extended)

	fp, ok, err := store.Get(4242)
	require.NoError(t, err)
	require.True(t, ok, "discovered fingerprint persisted by pid")
	assert.Equal(t, vtable, fp[:8])

	enterChapterOne(t, dump, imageBase+objOffset)
	state, err = tracker.Poll()
	require.NoError(t, err)
	want := Snapshot{Chapter: 1, Mode: ModeNormal, Level: "1", ChapterStarted: true, ChapterTime: 1.0}
	if diff := cmp.Diff(want, state.Snapshot); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	// the object moves; the structural signature no longer matches but the fingerprint does
	obj, err := dump.ReadMemory(imageBase+objOffset, 80)
	require.NoError(t, err)
	require.NoError(t, dump.Poke(imageBase+0x800, obj))
	require.NoError(t, dump.Poke(imageBase+objOffset, make([]byte, 16)))

	state, err = tracker.Poll()
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemoryAddress(imageBase+0x800), tracker.Address())
	assert.Equal(t, want, state.Snapshot)
}

func TestTrackerUsesCachedFingerprint(t *testing.T) {
	dump := freshImage(t)
	enterChapterOne(t, dump, imageBase+objOffset)

	// a decoy in fresh-launch state behind a different vtable
	decoy := make([]byte, 80)
	copy(decoy, vtable)
	decoy[0] = 0x99
	copy(decoy[24:], u32(-1))
	copy(decoy[28:], u32(-1))
	require.NoError(t, dump.Poke(imageBase+0x900, decoy))

	store, err := sigcache.NewMemoryStore(4)
	require.NoError(t, err)
	var fp sigcache.Fingerprint
	copy(fp[:], vtable)
	require.NoError(t, store.Set(4242, fp))

	tracker, err := NewTracker(dump, TrackerOptions{Store: store})
	require.NoError(t, err)

	state, err := tracker.Poll()
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemoryAddress(imageBase+objOffset), tracker.Address())
	assert.Equal(t, 1, state.Snapshot.Chapter)
}

func TestTrackerStaleFingerprintRediscovers(t *testing.T) {
	dump := freshImage(t)

	store, err := sigcache.NewMemoryStore(4)
	require.NoError(t, err)
	require.NoError(t, store.Set(4242, sigcache.Fingerprint{0xde, 0xad}))

	tracker, err := NewTracker(dump, TrackerOptions{Store: store})
	require.NoError(t, err)

	state, err := tracker.Poll()
	require.NoError(t, err)
	assert.True(t, state.Found)

	fp, _, _ := store.Get(4242)
	assert.Equal(t, vtable, fp[:8])
}

func TestTrackerNothingFound(t *testing.T) {
	dump := process_blob.NewProcessDump(1)
	dump.AddRegion(imageBase, make([]byte, 0x1000), "rw-p")

	tracker, err := NewTracker(dump, TrackerOptions{})
	require.NoError(t, err)

	state, err := tracker.Poll()
	require.NoError(t, err)
	assert.False(t, state.Found)
	assert.True(t, state.Snapshot.Empty())
}

func TestTrackerLostSync(t *testing.T) {
	dump := freshImage(t)
	tracker, err := NewTracker(dump, TrackerOptions{})
	require.NoError(t, err)

	_, err = tracker.Poll()
	require.NoError(t, err)

	require.NoError(t, dump.Close())
	state, err := tracker.Poll()
	require.Error(t, err)
	assert.True(t, process.IsLostSync(err))
	assert.True(t, state.Snapshot.Empty())
	assert.Zero(t, tracker.Address())
}

func TestTrackerRejectsIncompleteLayout(t *testing.T) {
	l := layout.Layout{Name: "partial", BodySize: 8, Signature: "00", Fields: []layout.Field{{Name: layout.FieldLevel, Kind: layout.KindPointer}}}
	_, err := NewTracker(process_blob.NewProcessDump(1), TrackerOptions{Layout: &l})
	assert.ErrorContains(t, err, "missing field")
}

func TestTrackerExtendedAndFeed(t *testing.T) {
	dump := freshImage(t)

	ext := make([]byte, 0x500)
	copy(ext, []byte{0x11, 0x00, 0xef, 0xbe, 0xad, 0xde, 0x00, 0x11})
	binary.LittleEndian.PutUint32(ext[8:], 3)
	binary.LittleEndian.PutUint32(ext[12:], 1)
	binary.LittleEndian.PutUint64(ext[16:], imageBase+0x1100)
	binary.LittleEndian.PutUint64(ext[24:], imageBase+0x1180)
	binary.LittleEndian.PutUint64(ext[32:], 0)
	binary.LittleEndian.PutUint64(ext[40:], imageBase+0x1300)
	binary.LittleEndian.PutUint32(ext[48:], 2)
	putString(ext, 0x100, "Forsaken City")
	putString(ext, 0x180, "Celeste/1-ForsakenCity")
	binary.LittleEndian.PutUint32(ext[0x300+24:], 4) // feed capacity
	putString(ext, 0x400, "a")
	putString(ext, 0x440, "b")
	putString(ext, 0x480, "c")
	require.NoError(t, dump.Poke(imageBase+0x1000, ext))

	tracker, err := NewTracker(dump, TrackerOptions{Extended: &layout.ExtendedV1})
	require.NoError(t, err)

	state, err := tracker.Poll()
	require.NoError(t, err)
	require.NotNil(t, state.Extended)
	assert.Equal(t, ExtendedState{ChapterDeaths: 3, LevelDeaths: 1, AreaName: "Forsaken City", AreaSID: "Celeste/1-ForsakenCity", FeedIndex: 2}, *state.Extended)
	assert.Empty(t, state.Feed, "no replay on first sync")

	slot := func(i int, addr uint64) {
		require.NoError(t, dump.Poke(process.ProcessMemoryAddress(imageBase+0x1300+32+8*i), u64(addr)))
	}
	slot(2, imageBase+0x1400)
	slot(3, imageBase+0x1440)
	slot(0, imageBase+0x1480)
	require.NoError(t, dump.Poke(imageBase+0x1030, u32(5)))

	state, err = tracker.Poll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, state.Feed)

	state, err = tracker.Poll()
	require.NoError(t, err)
	assert.Empty(t, state.Feed)

	// marker destroyed: extended info drops out, the main object is unaffected
	require.NoError(t, dump.Poke(imageBase+0x1000, make([]byte, 8)))
	state, err = tracker.Poll()
	require.NoError(t, err)
	assert.Nil(t, state.Extended)
	assert.True(t, state.Found)
}

func TestTrackerRescansForLateExtendedInfo(t *testing.T) {
	dump := freshImage(t)
	tracker, err := NewTracker(dump, TrackerOptions{Extended: &layout.ExtendedV1})
	require.NoError(t, err)

	state, err := tracker.Poll()
	require.NoError(t, err)
	require.True(t, state.Found)
	assert.Nil(t, state.Extended)

	// the companion object shows up after the first poll
	ext := make([]byte, 0x40)
	copy(ext, []byte{0x11, 0x00, 0xef, 0xbe, 0xad, 0xde, 0x00, 0x11})
	binary.LittleEndian.PutUint32(ext[8:], 9)
	require.NoError(t, dump.Poke(imageBase+0x1000, ext))

	for i := 0; i < ExtendedRescanPolls; i++ {
		state, err = tracker.Poll()
		require.NoError(t, err)
		require.Nil(t, state.Extended, "poll %d", i)
	}

	state, err = tracker.Poll()
	require.NoError(t, err)
	require.NotNil(t, state.Extended)
	assert.Equal(t, 9, state.Extended.ChapterDeaths)
}

func TestFeedOverflowKeepsNewest(t *testing.T) {
	buf := make([]byte, 0x400)
	binary.LittleEndian.PutUint32(buf[24:], 2)
	binary.LittleEndian.PutUint64(buf[32:], imageBase+0x100)
	binary.LittleEndian.PutUint64(buf[40:], imageBase+0x200)
	putString(buf, 0x100, "x4")
	putString(buf, 0x200, "x5")

	dump := process_blob.NewProcessDump(1)
	dump.AddRegion(imageBase, buf, "rw-p")

	var feed FeedReader
	ptr := remote.NewPointer(dump, imageBase)

	pending, err := feed.Pending(ptr, 1)
	require.NoError(t, err)
	assert.Nil(t, pending)

	// writes 1..5 happened since; only the last two survive in a two-slot ring
	pending, err = feed.Pending(ptr, 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"x4", "x5"}, pending)

	// an index going backwards means the publisher restarted
	pending, err = feed.Pending(ptr, 0)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestFeedSkipsCorruptEntry(t *testing.T) {
	buf := make([]byte, 0x400)
	binary.LittleEndian.PutUint32(buf[24:], 2)
	binary.LittleEndian.PutUint64(buf[32:], imageBase+0x100)
	binary.LittleEndian.PutUint64(buf[40:], imageBase+0x200)
	binary.LittleEndian.PutUint32(buf[0x100+16:], 0x7fffffff)
	putString(buf, 0x200, "good")

	dump := process_blob.NewProcessDump(1)
	dump.AddRegion(imageBase, buf, "rw-p")

	var skipped []int
	feed := FeedReader{OnError: func(write int, err error) {
		var decodeErr *process.DecodeError
		assert.ErrorAs(t, err, &decodeErr)
		skipped = append(skipped, write)
	}}
	ptr := remote.NewPointer(dump, imageBase)

	_, err := feed.Pending(ptr, 0)
	require.NoError(t, err)

	pending, err := feed.Pending(ptr, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, pending)
	assert.Equal(t, []int{0}, skipped)

	// already consumed
	pending, err = feed.Pending(ptr, 2)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestFeedUnreadableEntryLosesSync(t *testing.T) {
	buf := make([]byte, 0x400)
	binary.LittleEndian.PutUint32(buf[24:], 1)
	binary.LittleEndian.PutUint64(buf[32:], 0xdead0000)

	dump := process_blob.NewProcessDump(1)
	dump.AddRegion(imageBase, buf, "rw-p")

	var feed FeedReader
	ptr := remote.NewPointer(dump, imageBase)

	_, err := feed.Pending(ptr, 0)
	require.NoError(t, err)

	_, err = feed.Pending(ptr, 1)
	require.Error(t, err)
	assert.True(t, process.IsLostSync(err))
}

func TestLostSyncErrorsAreClassified(t *testing.T) {
	err := &process.ReadError{Address: 1, Size: 1, Err: process.ErrAddressNotMapped}
	assert.True(t, process.IsLostSync(err))
	assert.False(t, process.IsLostSync(errors.New("other")))
}
