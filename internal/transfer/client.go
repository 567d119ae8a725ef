package transfer

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/docdex/docdex/internal/framing"
	"github.com/docdex/docdex/internal/protocol"
	"github.com/docdex/docdex/internal/shared/models"
	"github.com/schollz/progressbar/v3"
)

var ErrFetchFailed = errors.New("fetch failed")

const connectTimeout = 10 * time.Second

// Client fetches documents from remote upload servers. Stateless: every
// Fetch opens its own connection and closes it when done.
type Client struct {
	host string
	log  *slog.Logger
}

// NewClient builds a fetch client that identifies itself as host in
// request headers.
func NewClient(host string, logger *slog.Logger) *Client {
	return &Client{host: host, log: logger}
}

// Fetch retrieves one document and writes it to destPath. The write is
// atomic: the payload lands in a temp file first and is renamed into
// place only once all Content-Length bytes arrived. Any status other
// than 200 fails the fetch with no file written.
func (c *Client) Fetch(host string, port, docID int, destPath string) ([]byte, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := models.TransferRequest{
		DocID: docID,
		Host:  c.host,
		OS:    platformString(),
	}
	if _, err := conn.Write(protocol.FormatTransferRequest(req)); err != nil {
		return nil, err
	}

	raw, err := framing.ReadMessage(conn)
	if err != nil {
		return nil, err
	}
	header, rest, _ := bytes.Cut(raw, framing.Marker)

	resp, err := protocol.ParseTransferResponseHeader(header)
	if err != nil {
		return nil, err
	}
	if resp.Status != models.StatusOK {
		return nil, fmt.Errorf("%w: %d %s", ErrFetchFailed, resp.Status, resp.Status.Phrase())
	}

	body, err := c.readBody(conn, rest, resp.ContentLength, docID)
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(destPath, body); err != nil {
		return nil, err
	}

	c.log.Info("fetched document",
		slog.Int("doc", docID), slog.String("from", addr), slog.Int("bytes", len(body)))
	return body, nil
}

// readBody completes the payload: whatever arrived with the header block
// plus exactly the missing remainder from the stream.
func (c *Client) readBody(conn net.Conn, rest []byte, length, docID int) ([]byte, error) {
	bar := progressbar.DefaultBytes(int64(length), fmt.Sprintf("fetching doc %d", docID))
	defer bar.Close()

	if len(rest) >= length {
		bar.Add(length)
		return rest[:length], nil
	}

	body := make([]byte, 0, length)
	body = append(body, rest...)
	bar.Add(len(rest))

	remainder, err := framing.ReadBytes(conn, length-len(rest))
	if err != nil {
		return nil, err
	}
	body = append(body, remainder...)
	bar.Add(len(remainder))

	return body, nil
}

func writeAtomic(destPath string, data []byte) error {
	tmp := destPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, destPath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
