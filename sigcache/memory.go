package sigcache

import (
	lru "github.com/hashicorp/golang-lru"

	"memsplit/process"
)

const DefaultMemoryEntries = 64

// MemoryStore keeps the most recently used entries in process memory
type MemoryStore struct {
	cache *lru.Cache
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: cache}, nil
}

func (m *MemoryStore) Get(pid process.ProcessID) (Fingerprint, bool, error) {
	v, ok := m.cache.Get(pid)
	if !ok {
		return Fingerprint{}, false, nil
	}
	return v.(Fingerprint), true, nil
}

func (m *MemoryStore) Set(pid process.ProcessID, fp Fingerprint) error {
	m.cache.Add(pid, fp)
	return nil
}

func (m *MemoryStore) Close() error {
	m.cache.Purge()
	return nil
}
