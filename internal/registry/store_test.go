package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreAnnounce(t *testing.T) {
	var tests = []struct {
		name   string
		setup  func() *Store
		assert func(t *testing.T, s *Store)
	}{
		{
			name: "new announcements are prepended newest first",
			setup: func() *Store {
				s := NewStore()
				s.Announce(1, "A", "hostA", 5000)
				s.Announce(2, "B", "hostB", 6000)
				s.Announce(3, "C", "hostC", 7000)
				return s
			},
			assert: func(t *testing.T, s *Store) {
				all := s.EnumerateAll()
				assert.Len(t, all, 3)
				assert.Equal(t, []int{3, 2, 1}, []int{all[0].DocID, all[1].DocID, all[2].DocID})
			},
		},
		{
			name: "re-announce of the same (doc, host) replaces instead of duplicating",
			setup: func() *Store {
				s := NewStore()
				s.Announce(1, "Old Title", "hostA", 5000)
				s.Announce(2, "B", "hostB", 6000)
				s.Announce(1, "New Title", "hostA", 5000)
				return s
			},
			assert: func(t *testing.T, s *Store) {
				all := s.EnumerateAll()
				assert.Len(t, all, 2)
				assert.Equal(t, "New Title", all[0].Title)
				assert.Equal(t, 1, all[0].DocID)

				matches := s.Query(1)
				assert.Len(t, matches, 1)
			},
		},
		{
			name: "same doc on distinct hosts keeps both records",
			setup: func() *Store {
				s := NewStore()
				s.Announce(1, "A", "hostA", 5000)
				s.Announce(1, "A", "hostB", 6000)
				return s
			},
			assert: func(t *testing.T, s *Store) {
				assert.Len(t, s.Query(1), 2)
			},
		},
		{
			name: "re-announce under a new port repoints only the peer port",
			setup: func() *Store {
				s := NewStore()
				s.Announce(1, "A", "hostA", 5000)
				s.Announce(2, "B", "hostA", 5050)
				return s
			},
			assert: func(t *testing.T, s *Store) {
				port, ok := s.PeerPort("hostA")
				assert.True(t, ok)
				assert.Equal(t, 5050, port)
				// The old record keeps its old port until re-announced.
				assert.Equal(t, 5000, s.Query(1)[0].Port)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.assert(t, tt.setup())
		})
	}
}

func TestStoreQuery(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.Query(1))

	s.Announce(1, "A", "hostA", 5000)
	s.Announce(1, "A", "hostB", 6000)

	matches := s.Query(1)
	assert.Len(t, matches, 2)
	// Newest first.
	assert.Equal(t, "hostB", matches[0].Host)
	assert.Equal(t, "hostA", matches[1].Host)
}

func TestStoreEnumerateAllReturnsSnapshot(t *testing.T) {
	s := NewStore()
	s.Announce(1, "A", "hostA", 5000)

	snapshot := s.EnumerateAll()
	snapshot[0].Title = "mutated"

	assert.Equal(t, "A", s.EnumerateAll()[0].Title)
}

func TestStorePurge(t *testing.T) {
	var tests = []struct {
		name   string
		setup  func() *Store
		purge  string
		assert func(t *testing.T, s *Store)
	}{
		{
			name: "drops the host and all its records",
			setup: func() *Store {
				s := NewStore()
				s.Announce(1, "A", "hostA", 5000)
				s.Announce(2, "B", "hostA", 5000)
				s.Announce(3, "C", "hostB", 6000)
				return s
			},
			purge: "hostA",
			assert: func(t *testing.T, s *Store) {
				_, ok := s.PeerPort("hostA")
				assert.False(t, ok)
				assert.Empty(t, s.Query(1))
				assert.Empty(t, s.Query(2))
				assert.Len(t, s.Query(3), 1)
			},
		},
		{
			name: "unknown host is a no-op",
			setup: func() *Store {
				s := NewStore()
				s.Announce(1, "A", "hostA", 5000)
				return s
			},
			purge: "ghost",
			assert: func(t *testing.T, s *Store) {
				assert.Len(t, s.EnumerateAll(), 1)
			},
		},
		{
			name: "empty host from a session that never announced is a no-op",
			setup: func() *Store {
				s := NewStore()
				s.Announce(1, "A", "hostA", 5000)
				return s
			},
			purge: "",
			assert: func(t *testing.T, s *Store) {
				assert.Len(t, s.EnumerateAll(), 1)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setup()
			s.Purge(tt.purge)
			// Idempotent: a second purge changes nothing.
			s.Purge(tt.purge)
			tt.assert(t, s)
		})
	}
}

func TestStoreConcurrentAnnounces(t *testing.T) {
	s := NewStore()
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				s.Announce(j, "T", "host", 5000+n)
				s.Query(j)
				s.EnumerateAll()
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	// One record per (doc, host) pair no matter the interleaving.
	records := s.EnumerateAll()
	seen := make(map[[2]interface{}]bool)
	for _, r := range records {
		key := [2]interface{}{r.DocID, r.Host}
		assert.False(t, seen[key], "duplicate record for (%d, %s)", r.DocID, r.Host)
		seen[key] = true
	}
	assert.Len(t, records, 50)
}
