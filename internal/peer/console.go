package peer

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/docdex/docdex/internal/library"
	"github.com/docdex/docdex/internal/shared/models"
	"github.com/docdex/docdex/internal/transfer"
)

// Console turns user commands into registry calls and fetches.
type Console struct {
	registry   *RegistryClient
	fetcher    *transfer.Client
	dir        string
	host       string
	uploadPort int
	in         io.Reader
	out        io.Writer
	log        *slog.Logger
}

func NewConsole(registry *RegistryClient, fetcher *transfer.Client, dir, host string, uploadPort int, in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	return &Console{
		registry:   registry,
		fetcher:    fetcher,
		dir:        dir,
		host:       host,
		uploadPort: uploadPort,
		in:         in,
		out:        out,
		log:        logger,
	}
}

// Run reads commands until quit or EOF. Command failures are printed and
// the loop continues; only a dead registry connection ends it.
func (c *Console) Run() error {
	fmt.Fprintln(c.out, "Commands:")
	fmt.Fprintln(c.out, "  list")
	fmt.Fprintln(c.out, "  lookup <doc-id>")
	fmt.Fprintln(c.out, "  get <doc-id>")
	fmt.Fprintln(c.out, "  quit")

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "docdex> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit":
			return nil
		case "list":
			resp, err := c.registry.EnumerateAll()
			if err != nil {
				return err
			}
			c.printResponse(resp)
		case "lookup":
			id, ok := parseIDArg(fields)
			if !ok {
				fmt.Fprintln(c.out, "usage: lookup <doc-id>")
				continue
			}
			resp, err := c.registry.Query(id)
			if err != nil {
				return err
			}
			c.printResponse(resp)
		case "get":
			id, ok := parseIDArg(fields)
			if !ok {
				fmt.Fprintln(c.out, "usage: get <doc-id>")
				continue
			}
			if err := c.get(id); err != nil {
				return err
			}
		default:
			fmt.Fprintln(c.out, "unknown command, try: list | lookup <doc-id> | get <doc-id> | quit")
		}
	}
}

// get queries holders of the document, fetches from the first holder that
// is not this peer, and announces the fresh copy under the same title.
func (c *Console) get(docID int) error {
	resp, err := c.registry.Query(docID)
	if err != nil {
		return err
	}
	if resp.Status != models.StatusOK || len(resp.Records) == 0 {
		c.printResponse(resp)
		return nil
	}

	var holder *models.Record
	for i, rec := range resp.Records {
		if rec.Host == c.host && rec.Port == c.uploadPort {
			continue
		}
		holder = &resp.Records[i]
		break
	}
	if holder == nil {
		fmt.Fprintln(c.out, "no other peer holds this document")
		return nil
	}

	destPath := library.DocumentPath(c.dir, docID)
	fmt.Fprintf(c.out, "fetching doc %d from %s\n", docID, holder.Addr())
	if _, err := c.fetcher.Fetch(holder.Host, holder.Port, docID, destPath); err != nil {
		c.log.Warn("fetch failed", slog.Int("doc", docID), slog.Any("error", err))
		fmt.Fprintf(c.out, "fetch failed: %v\n", err)
		return nil
	}
	fmt.Fprintf(c.out, "saved to %s\n", destPath)

	announceResp, err := c.registry.Announce(docID, holder.Title)
	if err != nil {
		return err
	}
	c.printResponse(announceResp)
	return nil
}

func (c *Console) printResponse(resp models.ControlResponse) {
	fmt.Fprintf(c.out, "%s %d %s\n", resp.Version, resp.Status, resp.Status.Phrase())
	for _, rec := range resp.Records {
		fmt.Fprintln(c.out, rec.String())
	}
}

func parseIDArg(fields []string) (int, bool) {
	if len(fields) != 2 {
		return 0, false
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
