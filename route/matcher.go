package route

import (
	"slices"

	"memsplit/events"
)

// Matcher walks a route. Cursor 0 means not started; len(Entries) means complete, and
// stays there until a reset.
type Matcher struct {
	route  Route
	cursor int
}

func NewMatcher(r Route) *Matcher {
	return &Matcher{route: r}
}

func (m *Matcher) Route() Route {
	return m.route
}

func (m *Matcher) Cursor() int {
	return m.cursor
}

func (m *Matcher) Done() bool {
	return m.cursor >= len(m.route.Entries)
}

// Next is the entry the matcher is waiting for
func (m *Matcher) Next() (Entry, bool) {
	if m.Done() {
		return Entry{}, false
	}
	return m.route.Entries[m.cursor], true
}

// Advance consumes one poll's events. Each event satisfies at most one entry, and as many
// consecutive entries as the batch allows are consumed. A reset alias anywhere in the batch
// then rewinds the route.
func (m *Matcher) Advance(batch []events.Event) []Action {
	if len(batch) == 0 {
		return nil
	}

	var actions []Action
	remaining := slices.Clone(batch)

	for !m.Done() {
		entry := m.route.Entries[m.cursor]
		i := slices.IndexFunc(remaining, func(e events.Event) bool { return e.Matches(entry.Alias) })
		if i < 0 {
			break
		}
		remaining = slices.Delete(remaining, i, i+1)

		switch {
		case m.cursor == 0:
			actions = append(actions, Reset, Start)
		case !entry.Silent:
			actions = append(actions, Split)
		}
		m.cursor++
	}

	if m.route.ResetAlias != "" && slices.ContainsFunc(batch, func(e events.Event) bool { return e.Matches(m.route.ResetAlias) }) {
		actions = append(actions, Reset)
		m.cursor = 0
	}

	return actions
}
