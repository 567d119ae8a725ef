// Package transfer implements the peer-to-peer document exchange: an
// upload server answering fetch requests from local files and a client
// retrieving documents from remote peers.
package transfer

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/docdex/docdex/internal/framing"
	"github.com/docdex/docdex/internal/library"
	"github.com/docdex/docdex/internal/protocol"
	"github.com/docdex/docdex/internal/shared/models"
)

// Server answers fetch requests from the peer's document directory.
// Each connection carries exactly one request/response exchange.
type Server struct {
	dir  string
	log  *slog.Logger
	ln   net.Listener
	port int
}

func NewServer(dir string, logger *slog.Logger) *Server {
	return &Server{dir: dir, log: logger}
}

// Start binds an OS-assigned port and launches the accept loop. The bound
// port is what the peer advertises to the registry.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return err
	}
	s.ln = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.log.Info("upload server listening", slog.Int("port", s.port))

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.handle(conn)
		}
	}()

	return nil
}

func (s *Server) Port() int {
	return s.port
}

func (s *Server) Stop() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	msg, err := framing.ReadMessage(conn)
	if err != nil {
		return
	}

	req, err := protocol.ParseTransferRequest(msg)
	if err != nil {
		s.respondError(conn, models.StatusBadRequest)
		return
	}
	if req.Version != protocol.Version {
		s.respondError(conn, models.StatusVersionNotSupported)
		return
	}

	path := library.DocumentPath(s.dir, req.DocID)
	info, err := os.Stat(path)
	if err != nil {
		s.log.Info("document not held", slog.Int("doc", req.DocID))
		s.respondError(conn, models.StatusNotFound)
		return
	}

	// The file can vanish between the stat and the read; that is fatal
	// for this connection only, with no second response.
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("failed to read document", slog.Int("doc", req.DocID), slog.Any("error", err))
		return
	}

	resp := models.TransferResponse{
		Status:        models.StatusOK,
		Date:          httpDate(time.Now()),
		OS:            platformString(),
		LastModified:  httpDate(info.ModTime()),
		ContentLength: len(data),
		ContentType:   "text/plain",
		Body:          data,
	}
	if _, err := conn.Write(protocol.FormatTransferResponse(resp)); err != nil {
		s.log.Warn("failed to send document", slog.Int("doc", req.DocID), slog.Any("error", err))
		return
	}
	s.log.Info("served document", slog.Int("doc", req.DocID), slog.Int("bytes", len(data)))
}

func (s *Server) respondError(conn net.Conn, status models.Status) {
	conn.Write(protocol.FormatTransferResponse(models.TransferResponse{Status: status}))
}

func httpDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

func platformString() string {
	return fmt.Sprintf("%s %s", runtime.GOOS, runtime.GOARCH)
}
