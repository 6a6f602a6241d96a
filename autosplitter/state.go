// Package autosplitter reconstructs the game's run state from its autosplitter object
package autosplitter

import "fmt"

// TicksPerSecond is the resolution of the game's timers
const TicksPerSecond = 10_000_000

func TicksToSeconds(ticks int64) float64 {
	return float64(ticks) / TicksPerSecond
}

// Mode is the chapter side. Codes other than the named ones are kept as-is.
type Mode int32

const (
	ModeMenu   Mode = -1
	ModeNormal Mode = 0
	ModeBSide  Mode = 1
	ModeCSide  Mode = 2
)

func (m Mode) IsOther() bool {
	return m < ModeMenu || m > ModeCSide
}

// Side is the alias spelling of a playable side
func (m Mode) Side() (string, bool) {
	switch m {
	case ModeNormal:
		return "a-side", true
	case ModeBSide:
		return "b-side", true
	case ModeCSide:
		return "c-side", true
	}
	return "", false
}

func (m Mode) String() string {
	switch m {
	case ModeMenu:
		return "Menu"
	case ModeNormal:
		return "Normal"
	case ModeBSide:
		return "BSide"
	case ModeCSide:
		return "CSide"
	}
	return fmt.Sprintf("Other(%d)", int32(m))
}

// Snapshot is one fully resolved view of the tracked object. The zero value is the
// canonical empty snapshot used whenever the object is not found.
type Snapshot struct {
	Chapter             int
	Mode                Mode
	Level               string
	TimerActive         bool
	ChapterStarted      bool
	ChapterComplete     bool
	ChapterTime         float64
	ChapterStrawberries int
	ChapterCassette     bool
	ChapterHeart        bool
	FileTime            float64
	FileStrawberries    int
	FileCassettes       int
	FileHearts          int
}

func (s Snapshot) Empty() bool {
	return s == Snapshot{}
}

// ElapsedTime is the authoritative run time: file time when secondary is set, else chapter time
func (s Snapshot) ElapsedTime(secondary bool) float64 {
	if secondary {
		return s.FileTime
	}
	return s.ChapterTime
}

// ExtendedState is published by the companion mod; it may be absent
type ExtendedState struct {
	ChapterDeaths int
	LevelDeaths   int
	AreaName      string
	AreaSID       string
	LevelSet      string
	FeedIndex     int
}

// State is the result of one poll
type State struct {
	Found    bool
	Snapshot Snapshot
	Extended *ExtendedState
	Feed     []string
}
