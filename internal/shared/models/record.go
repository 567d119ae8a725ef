package models

import (
	"fmt"
	"net"
	"strconv"
)

// Record is one peer's claim to hold one document. The same DocID may
// appear once per distinct host.
type Record struct {
	DocID int
	Title string
	Host  string
	Port  int
}

func (r Record) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

func (r Record) String() string {
	return fmt.Sprintf("%d %s %s %d", r.DocID, r.Title, r.Host, r.Port)
}

// Document is a locally held file: its id, the title read from its first
// non-empty line, and its path on disk.
type Document struct {
	ID    int
	Title string
	Path  string
}
