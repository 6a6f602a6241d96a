// Package route holds the ordered list of events a run is expected to produce and the state
// machine that turns observed events into timer actions.
package route

import (
	"fmt"
	"strconv"
)

// Entry is one expected event. A silent entry advances the route without a split.
type Entry struct {
	Alias  string
	Silent bool
}

func (e Entry) String() string {
	if e.Silent {
		return "!" + e.Alias
	}
	return e.Alias
}

type Route struct {
	Entries []Entry

	// ResetAlias resets the timer and the route whenever observed; empty never matches
	ResetAlias string

	// UseSecondaryTime reports file time instead of chapter time
	UseSecondaryTime bool
}

type ActionKind int

const (
	ActionReset ActionKind = iota
	ActionStart
	ActionSplit
	ActionSetElapsedTime
	ActionSetTimeRunning
)

func (k ActionKind) String() string {
	switch k {
	case ActionReset:
		return "reset"
	case ActionStart:
		return "start"
	case ActionSplit:
		return "split"
	case ActionSetElapsedTime:
		return "set-elapsed-time"
	case ActionSetTimeRunning:
		return "set-time-running"
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is one timer control command
type Action struct {
	Kind    ActionKind
	Seconds float64
	Running bool
}

var (
	Reset = Action{Kind: ActionReset}
	Start = Action{Kind: ActionStart}
	Split = Action{Kind: ActionSplit}
)

func SetElapsedTime(seconds float64) Action {
	return Action{Kind: ActionSetElapsedTime, Seconds: seconds}
}

func SetTimeRunning(running bool) Action {
	return Action{Kind: ActionSetTimeRunning, Running: running}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionSetElapsedTime:
		return a.Kind.String() + "(" + strconv.FormatFloat(a.Seconds, 'f', -1, 64) + ")"
	case ActionSetTimeRunning:
		return a.Kind.String() + "(" + strconv.FormatBool(a.Running) + ")"
	}
	return a.Kind.String()
}
