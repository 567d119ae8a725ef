package peer

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/library"
	"github.com/docdex/docdex/internal/transfer"
)

// Run starts the upload server, connects to the registry, announces every
// local document, and hands control to the console loop. It returns when
// the user quits or the registry connection dies.
func Run(settings config.Settings, in io.Reader, out io.Writer, logger *slog.Logger) error {
	if err := os.MkdirAll(settings.PeerDir, 0755); err != nil {
		return err
	}

	upload := transfer.NewServer(settings.PeerDir, logger)
	if err := upload.Start(); err != nil {
		return err
	}
	defer upload.Stop()

	registryAddr := net.JoinHostPort(settings.RegistryHost, strconv.Itoa(settings.RegistryPort))
	registry, err := DialRegistry(registryAddr, settings.Hostname, upload.Port(), logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	docs, err := library.FindDocuments(settings.PeerDir)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		logger.Info("registering document", slog.Int("doc", doc.ID), slog.String("title", doc.Title))
		resp, err := registry.Announce(doc.ID, doc.Title)
		if err != nil {
			return fmt.Errorf("registering document %d: %w", doc.ID, err)
		}
		fmt.Fprintf(out, "%s %d %s\n", resp.Version, resp.Status, resp.Status.Phrase())
	}

	fetcher := transfer.NewClient(settings.Hostname, logger)
	console := NewConsole(registry, fetcher, settings.PeerDir, settings.Hostname, upload.Port(), in, out, logger)
	return console.Run()
}
