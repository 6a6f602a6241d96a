package sigcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"memsplit/process"
)

// MaxFileEntries bounds the file; the oldest pids are dropped first
const MaxFileEntries = 32

type fileEntry struct {
	HeaderSignature
	Seq uint64 `json:"seq"`
}

// FileStore keeps entries in a small JSON file rewritten on every Set
type FileStore struct {
	mu      sync.Mutex
	path    string
	seq     uint64
	entries map[process.ProcessID]fileEntry
}

func NewFileStore(path string) (*FileStore, error) {
	f := &FileStore{path: path, entries: make(map[process.ProcessID]fileEntry)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("signature cache %s: %w", path, err)
	}
	for _, e := range entries {
		f.entries[e.PID] = e
		f.seq = max(f.seq, e.Seq)
	}
	return f, nil
}

func (f *FileStore) Get(pid process.ProcessID) (Fingerprint, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[pid]
	if !ok {
		return Fingerprint{}, false, nil
	}
	return e.Signature, true, nil
}

func (f *FileStore) Set(pid process.ProcessID, fp Fingerprint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	f.entries[pid] = fileEntry{HeaderSignature: HeaderSignature{PID: pid, Signature: fp}, Seq: f.seq}

	entries := make([]fileEntry, 0, len(f.entries))
	for _, e := range f.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq > entries[j].Seq })
	if len(entries) > MaxFileEntries {
		for _, e := range entries[MaxFileEntries:] {
			delete(f.entries, e.PID)
		}
		entries = entries[:MaxFileEntries]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Close() error {
	return nil
}
