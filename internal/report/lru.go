package report

import (
	"sync"

	"github.com/deixis/overseer/internal/runner"
)

// LRUStore is an in-memory LRU cache of run results. When back is set it
// also delegates to it: Save writes through and a Load miss falls back.
type LRUStore struct {
	mu   sync.Mutex
	cap  int
	back Store

	// Doubly-linked list for LRU ordering (most recent at head).
	head, tail *lruEntry
	items      map[string]*lruEntry
}

type lruEntry struct {
	key    string
	result *runner.Result
	prev   *lruEntry
	next   *lruEntry
}

// NewLRUStore creates an LRU cache holding at most cap results. back may
// be nil. Capacity must be >= 1.
func NewLRUStore(cap int, back Store) *LRUStore {
	if cap < 1 {
		cap = 1
	}
	return &LRUStore{
		cap:   cap,
		back:  back,
		items: make(map[string]*lruEntry, cap),
	}
}

// Save inserts result as the most recently used entry, evicting the least
// recently used one when the cache is full.
func (s *LRUStore) Save(result *runner.Result) error {
	s.mu.Lock()
	s.put(result)
	s.mu.Unlock()

	if s.back == nil {
		return nil
	}
	return s.back.Save(result)
}

// Load returns the result for runID and marks it as recently used.
func (s *LRUStore) Load(runID string) (*runner.Result, error) {
	s.mu.Lock()
	if e, ok := s.items[runID]; ok {
		s.moveToFront(e)
		r := e.result
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	if s.back == nil {
		return nil, ErrNotFound
	}
	result, err := s.back.Load(runID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.put(result)
	s.mu.Unlock()
	return result, nil
}

// Len returns the number of cached results.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// put must be called with s.mu held.
func (s *LRUStore) put(result *runner.Result) {
	if e, ok := s.items[result.RunID]; ok {
		e.result = result
		s.moveToFront(e)
		return
	}
	e := &lruEntry{key: result.RunID, result: result}
	s.items[result.RunID] = e
	s.pushFront(e)
	if len(s.items) > s.cap {
		s.evict()
	}
}

func (s *LRUStore) pushFront(e *lruEntry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *LRUStore) moveToFront(e *lruEntry) {
	if s.head == e {
		return
	}
	s.remove(e)
	s.pushFront(e)
}

func (s *LRUStore) remove(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (s *LRUStore) evict() {
	if s.tail == nil {
		return
	}
	e := s.tail
	s.remove(e)
	delete(s.items, e.key)
}
