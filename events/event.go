// Package events turns consecutive autosplitter states into semantic events
package events

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindLevelSwitch Kind = iota
	KindEnterChapter
	KindLeaveChapter
	KindCompleteChapter
	KindCassette
	KindHeart
	KindStrawberry
	KindFeed
)

func (k Kind) String() string {
	switch k {
	case KindLevelSwitch:
		return "level-switch"
	case KindEnterChapter:
		return "enter-chapter"
	case KindLeaveChapter:
		return "leave-chapter"
	case KindCompleteChapter:
		return "complete-chapter"
	case KindCassette:
		return "cassette"
	case KindHeart:
		return "heart"
	case KindStrawberry:
		return "strawberry"
	case KindFeed:
		return "feed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Tier says how specific a variant spelling is
type Tier int

const (
	TierUnqualified Tier = iota
	TierChapter
	TierSide
	TierArea
	TierLegacy
	TierLiteral
)

// Variant is one spelling of an event
type Variant struct {
	Text string
	Tier Tier
}

// Event is one occurrence with every spelling a route may use for it. Variants are alternatives,
// never parts of one name.
type Event struct {
	Kind     Kind
	Variants []Variant
}

// Matches reports whether alias is one of the event's spellings, ignoring case
func (e Event) Matches(alias string) bool {
	for _, v := range e.Variants {
		if strings.EqualFold(v.Text, alias) {
			return true
		}
	}
	return false
}

func (e Event) Aliases() []string {
	out := make([]string, len(e.Variants))
	for i, v := range e.Variants {
		out[i] = v.Text
	}
	return out
}

// Display lists the current spellings, leaving out legacy ones
func (e Event) Display() []string {
	var out []string
	for _, v := range e.Variants {
		if v.Tier != TierLegacy {
			out = append(out, v.Text)
		}
	}
	return out
}

func (e Event) String() string {
	return fmt.Sprintf("%s[%s]", e.Kind, strings.Join(e.Aliases(), " | "))
}

// builder collects variants, dropping repeats while keeping first-seen order
type builder struct {
	event Event
	seen  map[string]bool
}

func newBuilder(kind Kind) *builder {
	return &builder{event: Event{Kind: kind}, seen: make(map[string]bool)}
}

func (b *builder) add(tier Tier, format string, args ...any) *builder {
	text := fmt.Sprintf(format, args...)
	key := strings.ToLower(text)
	if text == "" || b.seen[key] {
		return b
	}
	b.seen[key] = true
	b.event.Variants = append(b.event.Variants, Variant{Text: text, Tier: tier})
	return b
}
