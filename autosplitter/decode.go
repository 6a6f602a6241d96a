package autosplitter

import (
	"memsplit/layout"
	"memsplit/mono"
	"memsplit/process"
	"memsplit/remote"
)

// SnapshotFields are the fields a layout must define to be tracked
var SnapshotFields = []string{
	layout.FieldLevel, layout.FieldChapter, layout.FieldMode, layout.FieldTimerActive,
	layout.FieldChapterStarted, layout.FieldChapterComplete, layout.FieldChapterTime,
	layout.FieldChapterStrawberries, layout.FieldChapterCassette, layout.FieldChapterHeart,
	layout.FieldFileTime, layout.FieldFileStrawberries, layout.FieldFileCassettes, layout.FieldFileHearts,
}

// ExtendedFields are the fields an extended layout must define
var ExtendedFields = []string{
	layout.FieldChapterDeaths, layout.FieldLevelDeaths, layout.FieldAreaName, layout.FieldAreaSID,
	layout.FieldLevelSet, layout.FieldFeed, layout.FieldFeedIndex,
}

// stringReader turns string pointers into text. Decode failures are reported through onError
// and read as empty text.
type stringReader struct {
	proc    process.Process
	onError func(field string, err error)
}

func (r stringReader) read(rec *layout.Record, field string) (string, error) {
	s, _, err := mono.ReadString(remote.NewPointer(r.proc, rec.Pointer(field)))
	if err == nil {
		return s, nil
	}
	if process.IsLostSync(err) {
		return "", err
	}
	if r.onError != nil {
		r.onError(field, err)
	}
	return "", nil
}

func decodeSnapshot(strs stringReader, rec *layout.Record) (Snapshot, error) {
	level, err := strs.read(rec, layout.FieldLevel)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Chapter:             int(rec.Int(layout.FieldChapter)),
		Mode:                Mode(rec.Int(layout.FieldMode)),
		Level:               level,
		TimerActive:         rec.Bool(layout.FieldTimerActive),
		ChapterStarted:      rec.Bool(layout.FieldChapterStarted),
		ChapterComplete:     rec.Bool(layout.FieldChapterComplete),
		ChapterTime:         TicksToSeconds(rec.Int(layout.FieldChapterTime)),
		ChapterStrawberries: int(rec.Int(layout.FieldChapterStrawberries)),
		ChapterCassette:     rec.Bool(layout.FieldChapterCassette),
		ChapterHeart:        rec.Bool(layout.FieldChapterHeart),
		FileTime:            TicksToSeconds(rec.Int(layout.FieldFileTime)),
		FileStrawberries:    int(rec.Int(layout.FieldFileStrawberries)),
		FileCassettes:       int(rec.Int(layout.FieldFileCassettes)),
		FileHearts:          int(rec.Int(layout.FieldFileHearts)),
	}, nil
}

func decodeExtended(strs stringReader, rec *layout.Record) (*ExtendedState, error) {
	ext := &ExtendedState{
		ChapterDeaths: int(rec.Int(layout.FieldChapterDeaths)),
		LevelDeaths:   int(rec.Int(layout.FieldLevelDeaths)),
		FeedIndex:     int(rec.Int(layout.FieldFeedIndex)),
	}

	var err error
	if ext.AreaName, err = strs.read(rec, layout.FieldAreaName); err != nil {
		return nil, err
	}
	if ext.AreaSID, err = strs.read(rec, layout.FieldAreaSID); err != nil {
		return nil, err
	}
	if ext.LevelSet, err = strs.read(rec, layout.FieldLevelSet); err != nil {
		return nil, err
	}
	return ext, nil
}
