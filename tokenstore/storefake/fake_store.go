package storefake

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/go-auth-client/tokenstore"
)

var _ tokenstore.Store = (*FakeStore)(nil)

// FakeStore is an in-memory tokenstore.Store. Failures can be injected per
// operation to exercise best-effort persistence paths.
type FakeStore struct {
	values    map[string]string
	getErr    map[string]error
	setErr    map[string]error
	deleteErr map[string]error
	sets      []string
	lock      sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values:    make(map[string]string),
		getErr:    make(map[string]error),
		setErr:    make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

func (s *FakeStore) Get(_ context.Context, key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if err := s.getErr[key]; err != nil {
		return "", err
	}
	v, ok := s.values[key]
	if !ok {
		return "", tokenstore.ErrNotFound
	}
	return v, nil
}

func (s *FakeStore) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.setErr[key]; err != nil {
		return err
	}
	s.values[key] = value
	s.sets = append(s.sets, key)
	return nil
}

func (s *FakeStore) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.deleteErr[key]; err != nil {
		return err
	}
	delete(s.values, key)
	return nil
}

// Seed writes a value without recording it as a Set call.
func (s *FakeStore) Seed(key, value string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
}

// Value returns the stored value and whether it exists.
func (s *FakeStore) Value(key string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (s *FakeStore) Keys() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetOrder returns the keys passed to successful Set calls, oldest first.
func (s *FakeStore) SetOrder() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]string(nil), s.sets...)
}

func (s *FakeStore) FailGet(key string, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.getErr[key] = err
}

func (s *FakeStore) FailSet(key string, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.setErr[key] = err
}

func (s *FakeStore) FailDelete(key string, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.deleteErr[key] = err
}
