// Package peer ties a peer process together: the persistent registry
// session, the console command loop, and startup registration of local
// documents.
package peer

import (
	"log/slog"
	"net"
	"time"

	"github.com/docdex/docdex/internal/framing"
	"github.com/docdex/docdex/internal/protocol"
	"github.com/docdex/docdex/internal/shared/models"
)

const registryDialTimeout = 10 * time.Second

// RegistryClient is the peer's side of the long-lived control connection.
// Every request carries the peer's announced identity (hostname and
// upload port); the registry keys disconnect cleanup on it.
type RegistryClient struct {
	conn       net.Conn
	host       string
	uploadPort int
	log        *slog.Logger
}

func DialRegistry(addr, host string, uploadPort int, logger *slog.Logger) (*RegistryClient, error) {
	conn, err := net.DialTimeout("tcp", addr, registryDialTimeout)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to registry", slog.String("addr", addr))
	return &RegistryClient{conn: conn, host: host, uploadPort: uploadPort, log: logger}, nil
}

func (c *RegistryClient) Close() error {
	return c.conn.Close()
}

// Announce registers this peer as a holder of the document.
func (c *RegistryClient) Announce(docID int, title string) (models.ControlResponse, error) {
	return c.roundTrip(models.ControlRequest{
		Method: models.MethodAnnounce,
		DocID:  docID,
		Title:  title,
	})
}

// Query asks which peers hold the document. A 404 response is not an
// error here; the caller inspects the status.
func (c *RegistryClient) Query(docID int) (models.ControlResponse, error) {
	return c.roundTrip(models.ControlRequest{
		Method: models.MethodQuery,
		DocID:  docID,
	})
}

// EnumerateAll lists every record the registry holds.
func (c *RegistryClient) EnumerateAll() (models.ControlResponse, error) {
	return c.roundTrip(models.ControlRequest{Method: models.MethodEnumerate})
}

func (c *RegistryClient) roundTrip(req models.ControlRequest) (models.ControlResponse, error) {
	req.Host = c.host
	req.Port = c.uploadPort

	if _, err := c.conn.Write(protocol.FormatControlRequest(req)); err != nil {
		return models.ControlResponse{}, err
	}

	raw, err := framing.ReadControlResponse(c.conn)
	if err != nil {
		return models.ControlResponse{}, err
	}
	return protocol.ParseControlResponse(raw)
}
