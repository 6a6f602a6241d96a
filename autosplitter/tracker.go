package autosplitter

import (
	"bytes"
	"errors"
	"fmt"

	"memsplit/layout"
	"memsplit/memscan"
	"memsplit/process"
	"memsplit/process_blob"
	"memsplit/remote"
	"memsplit/sigcache"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ExtendedRescanPolls is how many polls pass between scans for a missing extended object
const ExtendedRescanPolls = 50

type TrackerOptions struct {
	// Layout of the tracked object; defaults to layout.AutoSplitterV1
	Layout *layout.Layout

	// Extended layout; nil disables the extended lookup
	Extended *layout.Layout

	// Store persists the header fingerprint per pid; defaults to an in-memory store
	Store sigcache.Store

	// Range bounds every scan; defaults to process.UserSpaceRange
	Range process.AddressRange
}

// Tracker owns the resolution state for one process: the cached object address, its
// fingerprint and the extended object. It is not safe for concurrent use.
type Tracker struct {
	proc     process.Process
	scanner  *memscan.Scanner
	layout   *layout.Layout
	extended *layout.Layout
	store    sigcache.Store
	strs     stringReader
	log      *logger.Logger

	fingerprint *sigcache.Fingerprint
	address     process.ProcessMemoryAddress

	extAddress process.ProcessMemoryAddress
	extSkip    int
	feed       FeedReader
}

func NewTracker(proc process.Process, opts TrackerOptions) (*Tracker, error) {
	if opts.Layout == nil {
		l := layout.AutoSplitterV1
		opts.Layout = &l
	}
	if err := opts.Layout.Require(SnapshotFields...); err != nil {
		return nil, err
	}
	if opts.Extended != nil {
		if err := opts.Extended.Require(ExtendedFields...); err != nil {
			return nil, err
		}
	}
	if opts.Store == nil {
		store, err := sigcache.NewMemoryStore(sigcache.DefaultMemoryEntries)
		if err != nil {
			return nil, err
		}
		opts.Store = store
	}
	if opts.Range == (process.AddressRange{}) {
		opts.Range = process.UserSpaceRange
	}

	t := &Tracker{
		proc:     proc,
		scanner:  memscan.New(proc, opts.Range),
		layout:   opts.Layout,
		extended: opts.Extended,
		store:    opts.Store,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("tracker-%d", proc.GetPID()))),
	}
	t.strs = stringReader{proc: proc, onError: func(field string, err error) {
		t.log.Debugln("Reading", field, "as empty:", err)
	}}
	t.feed.OnError = func(write int, err error) {
		t.log.Debugln("Skipping feed entry", write, ":", err)
	}
	return t, nil
}

// Address is the cached object address, zero when unresolved
func (t *Tracker) Address() process.ProcessMemoryAddress {
	return t.address
}

// Reset drops every cached address. The persisted fingerprint is kept.
func (t *Tracker) Reset() {
	t.address = 0
	t.extAddress = 0
	t.extSkip = 0
	t.feed.Reset()
}

// Poll resolves the tracked object and decodes it. A missing object yields an empty State and no
// error. On any error the cached state is dropped and the returned State is empty, so the next
// successful poll starts from a clean rescan.
func (t *Tracker) Poll() (State, error) {
	state, err := t.poll()
	if err != nil {
		t.Reset()
		return State{}, err
	}
	return state, nil
}

func (t *Tracker) poll() (State, error) {
	addr, err := t.resolve()
	if err != nil || addr == 0 {
		return State{}, err
	}

	body, err := remote.NewPointer(t.proc, t.layout.BodyAddress(addr)).Preload(process.ProcessMemorySize(t.layout.BodySize))
	if err != nil {
		return State{}, err
	}
	rec, err := t.layout.Decode(body)
	if err != nil {
		return State{}, err
	}
	snap, err := decodeSnapshot(t.strs, rec)
	if err != nil {
		return State{}, err
	}

	state := State{Found: true, Snapshot: snap}
	state.Extended, state.Feed = t.pollExtended()
	return state, nil
}

// resolve returns the address of the live object, or zero when none is found
func (t *Tracker) resolve() (process.ProcessMemoryAddress, error) {
	if t.fingerprint == nil {
		fp, ok, err := t.store.Get(t.proc.GetPID())
		if err != nil {
			t.log.Warn("Signature cache lookup failed: ", err)
		} else if ok {
			t.log.Infoln("Using cached header signature", fp.String())
			t.fingerprint = &fp
		}
	}

	if t.fingerprint != nil {
		if t.address != 0 {
			data, err := t.proc.ReadMemory(t.address, sigcache.FingerprintSize)
			if err == nil && bytes.Equal(data, t.fingerprint[:]) {
				return t.address, nil
			}
			if err != nil && errors.Is(err, process.ErrProcessExited) {
				return 0, err
			}
		}

		t.address = 0
		match, err := t.scanner.First(t.fingerprint.Signature())
		if err == nil {
			t.log.Infoln("Header signature found at", match.Address.ToString())
			t.address = match.Address
			return t.address, nil
		}
		if !errors.Is(err, memscan.ErrNotFound) {
			return 0, err
		}
	}

	return t.discover()
}

// discover finds the object by its structural signature and records its fingerprint
func (t *Tracker) discover() (process.ProcessMemoryAddress, error) {
	sig, err := t.layout.DiscoverySignature()
	if err != nil {
		return 0, err
	}

	match, err := t.scanner.First(sig)
	if errors.Is(err, memscan.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	addr := t.layout.ObjectAddress(match.Address)
	data, err := t.proc.ReadMemory(addr, sigcache.FingerprintSize)
	if err != nil {
		return 0, err
	}
	fp, err := sigcache.FingerprintFrom(data)
	if err != nil {
		return 0, err
	}

	t.log.Infoln("Discovered", t.layout.Name, "at", addr.ToString(), "header", fp.String())
	if err := t.store.Set(t.proc.GetPID(), fp); err != nil {
		t.log.Warn("Signature cache store failed: ", err)
	}
	t.fingerprint = &fp
	t.address = addr
	return addr, nil
}

// pollExtended never fails the poll; the extended object is optional
func (t *Tracker) pollExtended() (*ExtendedState, []string) {
	if t.extended == nil {
		return nil, nil
	}
	if t.extSkip > 0 {
		t.extSkip--
		return nil, nil
	}

	marker, err := t.extended.DiscoverySignature()
	if err != nil {
		return nil, nil
	}

	if t.extAddress == 0 {
		match, err := t.scanner.First(marker)
		if err != nil {
			t.log.Debugln("Extended info not available:", err)
			t.extSkip = ExtendedRescanPolls
			return nil, nil
		}
		t.extAddress = t.extended.ObjectAddress(match.Address)
		t.feed.Reset()
		t.log.Infoln("Extended info found at", t.extAddress.ToString())
	}

	size := t.extended.HeaderSize + t.extended.BodySize
	blob, err := remote.NewPointer(t.proc, t.extAddress).Preload(process.ProcessMemorySize(size))
	if err != nil || !marker.MatchesAt(blob.Data(), 0) {
		t.log.Debugln("Extended info moved, rescanning next poll")
		t.extAddress = 0
		return nil, nil
	}

	ext, feed, err := t.decodeExtended(blob)
	if err != nil {
		t.log.Debugln("Extended info unreadable:", err)
		t.extAddress = 0
		return nil, nil
	}
	return ext, feed
}

func (t *Tracker) decodeExtended(blob *process_blob.ProcessBlob) (*ExtendedState, []string, error) {
	body, err := blob.OffsetBlob(process.ProcessMemoryAddress(t.extended.HeaderSize), process.ProcessMemorySize(t.extended.BodySize))
	if err != nil {
		return nil, nil, err
	}
	rec, err := t.extended.Decode(body)
	if err != nil {
		return nil, nil, err
	}
	ext, err := decodeExtended(t.strs, rec)
	if err != nil {
		return nil, nil, err
	}

	feed, err := t.feed.Pending(remote.NewPointer(t.proc, rec.Pointer(layout.FieldFeed)), ext.FeedIndex)
	if err != nil {
		return nil, nil, err
	}
	return ext, feed, nil
}
