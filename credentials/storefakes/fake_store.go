package storefakes

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-session-client/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store for tests. The fail switches
// force the next matching operation to error so callers can exercise storage
// failure paths.
type FakeStore struct {
	lock   sync.RWMutex
	record *credentials.Record

	FailSave  bool
	FailClear bool

	saveCalls  int
	clearCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (s *FakeStore) Load() (*credentials.Record, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.record == nil {
		return nil, credentials.ErrNotFound
	}
	copied := *s.record
	return &copied, nil
}

func (s *FakeStore) Save(record *credentials.Record) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.saveCalls++
	if s.FailSave {
		return errors.New("save failed")
	}
	copied := *record
	s.record = &copied
	return nil
}

func (s *FakeStore) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.clearCalls++
	if s.FailClear {
		return errors.New("clear failed")
	}
	s.record = nil
	return nil
}

// SaveCalls reports how many times Save was invoked.
func (s *FakeStore) SaveCalls() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.saveCalls
}

// ClearCalls reports how many times Clear was invoked.
func (s *FakeStore) ClearCalls() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.clearCalls
}
