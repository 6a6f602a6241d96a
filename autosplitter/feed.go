package autosplitter

import (
	"memsplit/mono"
	"memsplit/process"
	"memsplit/remote"
)

// FeedReader follows the mod's ring buffer of injected strings. Write k lands in slot
// k % capacity and the published index counts writes so far.
type FeedReader struct {
	synced bool
	last   int

	// OnError sees slots that could not be decoded; they are skipped
	OnError func(write int, err error)
}

// Pending returns the strings written since the previous call, oldest first. The first call
// after construction or Reset only records the index.
func (f *FeedReader) Pending(feed remote.Pointer, index int) ([]string, error) {
	if !f.synced || index < f.last {
		f.synced = true
		f.last = index
		return nil, nil
	}
	if index == f.last {
		return nil, nil
	}

	slots, err := mono.ReadPointerArray(feed)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		f.last = index
		return nil, nil
	}

	start := max(f.last, index-len(slots))
	var out []string
	for i := start; i < index; i++ {
		s, ok, err := mono.ReadString(slots[i%len(slots)])
		if err != nil {
			if process.IsLostSync(err) {
				return nil, err
			}
			if f.OnError != nil {
				f.OnError(i, err)
			}
			continue
		}
		if ok {
			out = append(out, s)
		}
	}

	f.last = index
	return out, nil
}

func (f *FeedReader) Reset() {
	f.synced = false
	f.last = 0
}
