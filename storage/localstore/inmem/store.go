package inmemstore

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/trezcool/masomo-certs/core/certificate"
)

// Store is an insertion-ordered, in-process certificate.Store.
// Its size is the number of characters of all keys and values, like browser localStorage.
type Store struct {
	mutex sync.RWMutex
	table map[string]certificate.Item
	order []string
	quota int // chars; 0 disables the check
	size  int
}

var _ certificate.Store = (*Store)(nil)

func New(quota int) *Store {
	return &Store{
		table: make(map[string]certificate.Item),
		quota: quota,
	}
}

func itemSize(key, value string) int {
	return utf8.RuneCountInString(key) + utf8.RuneCountInString(value)
}

func (s *Store) Get(_ context.Context, key string) (certificate.Item, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if item, ok := s.table[key]; ok {
		return item, nil
	}
	return certificate.Item{}, certificate.ErrItemNotFound
}

func (s *Store) Set(_ context.Context, items ...certificate.Item) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// dry run first: all or nothing
	size := s.size
	pending := make(map[string]string, len(items))
	for _, item := range items {
		if prev, ok := pending[item.Key]; ok {
			size -= itemSize(item.Key, prev)
		} else if old, ok := s.table[item.Key]; ok {
			size -= itemSize(old.Key, old.Value)
		}
		pending[item.Key] = item.Value
		size += itemSize(item.Key, item.Value)
	}
	if s.quota > 0 && size > s.quota {
		return certificate.ErrQuotaExceeded
	}

	now := certificate.NowFunc().UTC()
	for _, item := range items {
		if _, ok := s.table[item.Key]; !ok {
			s.order = append(s.order, item.Key)
		}
		item.StoredAt = now
		s.table[item.Key] = item
	}
	s.size = size
	return nil
}

func (s *Store) Remove(_ context.Context, keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := make(map[string]bool, len(keys))
	for _, key := range keys {
		if item, ok := s.table[key]; ok {
			s.size -= itemSize(item.Key, item.Value)
			delete(s.table, key)
			removed[key] = true
		}
	}
	if len(removed) == 0 {
		return nil
	}

	order := s.order[:0]
	for _, key := range s.order {
		if !removed[key] {
			order = append(order, key)
		}
	}
	s.order = order
	return nil
}

func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys, nil
}

// Size returns the number of characters currently stored.
func (s *Store) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.size
}
