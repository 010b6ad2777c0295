package store

import (
	"sort"
	"sync"
)

// FakeStore is primarily used for testing purposes
type FakeStore struct {
	mtx       sync.RWMutex
	events    []string
	snapshots map[string]Snapshot
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		events:    []string{},
		snapshots: map[string]Snapshot{},
	}
}

func (s *FakeStore) AddEvent(event string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.events = append(s.events, event)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	return nil
}

func (s *FakeStore) GetEvents() ([]string, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	events := make([]string, len(s.events))
	copy(events, s.events)
	return events, nil
}

func (s *FakeStore) SetSnapshot(snapshot Snapshot) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.snapshots[snapshot.Slug] = snapshot
	return nil
}

func (s *FakeStore) GetSnapshot(slug string) (Snapshot, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	snapshot, ok := s.snapshots[slug]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snapshot, nil
}

func (s *FakeStore) GetSnapshots() ([]Snapshot, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	snapshots := make([]Snapshot, 0, len(s.snapshots))
	for _, snapshot := range s.snapshots {
		snapshots = append(snapshots, snapshot)
	}
	sortSnapshots(snapshots)
	return snapshots, nil
}

func sortSnapshots(snapshots []Snapshot) {
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Slug < snapshots[j].Slug
	})
}
