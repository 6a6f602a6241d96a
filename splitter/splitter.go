// Package splitter runs the polling loop: one read, one snapshot, one diff and one route pass
// per tick, with the elapsed time reported to the timer every tick.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"memsplit/autosplitter"
	"memsplit/events"
	"memsplit/process"
	"memsplit/route"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const DefaultInterval = 100 * time.Millisecond

// TimerSink receives timer control actions
type TimerSink interface {
	Send(action route.Action) error
}

// StateSource produces one resolved state per call; autosplitter.Tracker is the live one
type StateSource interface {
	Poll() (autosplitter.State, error)
}

// Result describes one poll
type Result struct {
	State   autosplitter.State
	Events  []events.Event
	Actions []route.Action
}

// Splitter owns the previous state, the route cursor and the timer-running flag.
// Polls are serialized.
type Splitter struct {
	mu      sync.Mutex
	source  StateSource
	matcher *route.Matcher
	sink    TimerSink
	log     *logger.Logger

	prev    autosplitter.State
	running bool
	synced  bool

	// OnPoll, when set, observes every completed poll
	OnPoll func(Result)
}

func New(source StateSource, r route.Route, sink TimerSink, session string) *Splitter {
	return &Splitter{
		source:  source,
		matcher: route.NewMatcher(r),
		sink:    sink,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("splitter-%s", session))),
	}
}

func (s *Splitter) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matcher.Cursor()
}

// Poll runs one full cycle. A source error is returned after the cycle completes against the
// empty state; the next successful poll starts from scratch.
func (s *Splitter) Poll(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	state, err := s.source.Poll()
	if err != nil {
		s.log.Warn("Lost synchronization: ", err)
		state = autosplitter.State{}
	}

	var evs []events.Event
	if state.Found {
		evs = events.Diff(s.prev.Snapshot, s.prev.Extended, state.Snapshot, state.Extended, state.Feed)
	}
	s.prev = state

	before := s.matcher.Cursor()
	actions := s.matcher.Advance(evs)
	for _, e := range evs {
		s.log.Infoln("Event", e.String())
	}
	if after := s.matcher.Cursor(); after != before {
		next := "done"
		if entry, ok := s.matcher.Next(); ok {
			next = entry.String()
		}
		s.log.Infoln("Route", before, "->", after, "next:", next)
	}

	actions = append(actions, route.SetElapsedTime(state.Snapshot.ElapsedTime(s.matcher.Route().UseSecondaryTime)))

	running := state.Snapshot.TimerActive
	if running != s.running || (state.Found && !s.synced) {
		actions = append(actions, route.SetTimeRunning(running))
	}
	s.running = running
	s.synced = state.Found

	for _, a := range actions {
		if sendErr := s.sink.Send(a); sendErr != nil {
			s.log.Warn("Timer send failed: ", a.String(), " ", sendErr)
		}
	}

	res := Result{State: state, Events: evs, Actions: actions}
	if s.OnPoll != nil {
		s.OnPoll(res)
	}
	return res, err
}

// Run polls every interval until ctx is done or the process exits
func (s *Splitter) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, process.ErrProcessExited) {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
