package registry

import (
	"log/slog"
	"net"

	"github.com/docdex/docdex/internal/framing"
	"github.com/docdex/docdex/internal/protocol"
	"github.com/docdex/docdex/internal/shared/models"
)

// Server accepts peer control connections and runs one session per
// connection against the shared store.
type Server struct {
	store *Store
	log   *slog.Logger
}

func NewServer(store *Store, logger *slog.Logger) *Server {
	return &Server{store: store, log: logger}
}

// Serve runs the accept loop until the listener is closed. Each accepted
// connection gets its own goroutine; sessions only meet each other inside
// the store's lock.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.log.Info("peer connected", slog.String("remote", conn.RemoteAddr().String()))
		go s.handleSession(conn)
	}
}

// session is the per-connection state: the identity the peer last
// announced, which is what cleanup is keyed on. A peer's announced host
// need not match the address its connection came from.
type session struct {
	lastHost string
	lastPort int
}

func (s *Server) handleSession(conn net.Conn) {
	var sess session
	defer func() {
		conn.Close()
		if sess.lastHost != "" {
			s.log.Info("peer disconnected, purging",
				slog.String("host", sess.lastHost), slog.Int("port", sess.lastPort))
		}
		s.store.Purge(sess.lastHost)
	}()

	for {
		msg, err := framing.ReadMessage(conn)
		if err != nil {
			return
		}

		req, err := protocol.ParseControlRequest(msg)
		if err != nil {
			if !s.respond(conn, models.StatusBadRequest, nil) {
				return
			}
			continue
		}

		if req.Version != protocol.Version {
			if !s.respond(conn, models.StatusVersionNotSupported, nil) {
				return
			}
			continue
		}

		if !s.dispatch(conn, &sess, req) {
			return
		}
	}
}

// dispatch handles one well-formed, version-checked request. Returns false
// when the connection is no longer usable.
func (s *Server) dispatch(conn net.Conn, sess *session, req models.ControlRequest) bool {
	switch req.Method {
	case models.MethodAnnounce:
		rec := s.store.Announce(req.DocID, req.Title, req.Host, req.Port)
		sess.lastHost = req.Host
		sess.lastPort = req.Port
		s.log.Info("announced document",
			slog.Int("doc", rec.DocID), slog.String("title", rec.Title),
			slog.String("host", rec.Host), slog.Int("port", rec.Port))
		return s.respond(conn, models.StatusOK, []models.Record{rec})

	case models.MethodQuery:
		matches := s.store.Query(req.DocID)
		if len(matches) == 0 {
			return s.respond(conn, models.StatusNotFound, nil)
		}
		return s.respond(conn, models.StatusOK, matches)

	case models.MethodEnumerate:
		return s.respond(conn, models.StatusOK, s.store.EnumerateAll())

	default:
		return s.respond(conn, models.StatusBadRequest, nil)
	}
}

func (s *Server) respond(conn net.Conn, status models.Status, records []models.Record) bool {
	_, err := conn.Write(protocol.FormatControlResponse(status, records))
	if err != nil {
		s.log.Warn("failed to write response", slog.Any("error", err))
		return false
	}
	return true
}
