package events

import (
	"memsplit/autosplitter"
)

// Diff compares two consecutive states and returns the events between them, in a fixed
// order: level switch, chapter enter, leave, complete, cassette, heart, strawberry, then one
// event per pending feed string. It has no side effects.
func Diff(prev autosplitter.Snapshot, prevExt *autosplitter.ExtendedState,
	next autosplitter.Snapshot, nextExt *autosplitter.ExtendedState, feed []string) []Event {
	var out []Event

	if prev.Level != next.Level && prev.Level != "" && next.Level != "" {
		out = append(out, newBuilder(KindLevelSwitch).
			add(TierUnqualified, "%s > %s", prev.Level, next.Level).
			add(TierUnqualified, "%s >", prev.Level).
			add(TierUnqualified, "> %s", next.Level).
			event)
	}

	// the credits also set chapterStarted together with chapterComplete
	if !prev.ChapterStarted && next.ChapterStarted && !next.ChapterComplete {
		b := chapter(KindEnterChapter, "enter", next.Chapter, next.Mode, areaSID(nextExt))
		b.add(TierLegacy, "start chapter").add(TierLegacy, "start chapter %d", next.Chapter)
		out = append(out, b.event)
	}

	if prev.ChapterStarted && !next.ChapterStarted && !prev.ChapterComplete {
		b := chapter(KindLeaveChapter, "leave", prev.Chapter, prev.Mode, areaSID(prevExt, nextExt))
		b.add(TierLegacy, "reset chapter").add(TierLegacy, "reset chapter %d", prev.Chapter)
		out = append(out, b.event)
	}

	// completion reports the chapter just finished
	if !prev.ChapterComplete && next.ChapterComplete {
		b := chapter(KindCompleteChapter, "complete", prev.Chapter, prev.Mode, areaSID(prevExt, nextExt))
		out = append(out, b.event)
	}

	if !prev.ChapterCassette && next.ChapterCassette {
		out = append(out, newBuilder(KindCassette).
			add(TierUnqualified, "collect cassette").
			add(TierChapter, "collect chapter %d cassette", next.Chapter).
			add(TierUnqualified, "%d total cassettes", next.FileCassettes).
			event)
	}

	if !prev.ChapterHeart && next.ChapterHeart {
		out = append(out, newBuilder(KindHeart).
			add(TierUnqualified, "collect heart").
			add(TierChapter, "collect chapter %d heart", next.Chapter).
			add(TierUnqualified, "%d total hearts", next.FileHearts).
			event)
	}

	if next.ChapterStrawberries > prev.ChapterStrawberries {
		out = append(out, newBuilder(KindStrawberry).
			add(TierUnqualified, "collect strawberry").
			add(TierChapter, "%d chapter strawberries", next.ChapterStrawberries).
			add(TierUnqualified, "%d total strawberries", next.FileStrawberries).
			event)
	}

	for _, text := range feed {
		if text == "" {
			continue
		}
		out = append(out, newBuilder(KindFeed).add(TierLiteral, "%s", text).event)
	}

	return out
}

func chapter(kind Kind, verb string, c int, mode autosplitter.Mode, sid string) *builder {
	b := newBuilder(kind).
		add(TierUnqualified, "%s chapter", verb).
		add(TierChapter, "%s chapter %d", verb, c)

	side, hasSide := mode.Side()
	if hasSide {
		b.add(TierSide, "%s %s %d", verb, side, c)
	}
	if sid != "" {
		b.add(TierArea, "%s chapter %s", verb, sid)
		if hasSide {
			b.add(TierArea, "%s %s %s", verb, side, sid)
		}
	}
	return b
}

// areaSID returns the first known area id
func areaSID(exts ...*autosplitter.ExtendedState) string {
	for _, ext := range exts {
		if ext != nil && ext.AreaSID != "" {
			return ext.AreaSID
		}
	}
	return ""
}
