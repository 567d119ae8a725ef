// Package registry implements the central document index: the shared
// in-memory store and the TCP server whose sessions drive it.
package registry

import (
	"sync"

	"github.com/docdex/docdex/internal/shared/models"
)

// Store is the shared index: one port per known host and an ordered record
// list, newest announcement first. A single mutex guards both together so
// no session observes a record whose host is missing from the peer map.
// Nothing here touches the network or the disk.
type Store struct {
	mu        sync.Mutex
	peerPorts map[string]int
	records   []models.Record
}

func NewStore() *Store {
	return &Store{peerPorts: make(map[string]int)}
}

// Announce upserts the host's port, drops any existing record for the same
// (doc, host) pair, and prepends the new record. Returns the applied record.
func (s *Store) Announce(docID int, title, host string, port int) models.Record {
	rec := models.Record{DocID: docID, Title: title, Host: host, Port: port}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.peerPorts[host] = port

	kept := s.records[:0]
	for _, r := range s.records {
		if r.DocID == docID && r.Host == host {
			continue
		}
		kept = append(kept, r)
	}
	s.records = append([]models.Record{rec}, kept...)

	return rec
}

// Query returns every record for the document, newest first. An empty
// result means no known holder; the session reports that as 404.
func (s *Store) Query(docID int) []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []models.Record
	for _, r := range s.records {
		if r.DocID == docID {
			matches = append(matches, r)
		}
	}
	return matches
}

// EnumerateAll returns a snapshot copy of the full record list.
func (s *Store) EnumerateAll() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]models.Record, len(s.records))
	copy(snapshot, s.records)
	return snapshot
}

// Purge removes the host and every record it announced. Idempotent: a
// host that never announced, or an empty host from a session that never
// announced anything, is a no-op.
func (s *Store) Purge(host string) {
	if host == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.peerPorts, host)

	kept := s.records[:0]
	for _, r := range s.records {
		if r.Host == host {
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
}

// PeerPort reports the last-announced port for a host.
func (s *Store) PeerPort(host string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	port, ok := s.peerPorts[host]
	return port, ok
}
