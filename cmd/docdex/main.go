package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/peer"
	"github.com/docdex/docdex/internal/registry"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "docdex",
		Short:         "docdex is a peer-to-peer document sharing index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRegistryCmd(), newPeerCmd())
	return root
}

func newRegistryCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Run the central registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.Load()
			if cmd.Flags().Changed("port") {
				settings.RegistryPort = port
			}

			logger, closeLog, err := newLogger(settings.LogFile)
			if err != nil {
				return err
			}
			defer closeLog()

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", settings.RegistryPort))
			if err != nil {
				return err
			}
			logger.Info("registry listening", slog.Int("port", settings.RegistryPort))

			return registry.NewServer(registry.NewStore(), logger).Serve(ln)
		},
	}
	cmd.Flags().IntVar(&port, "port", config.DefaultRegistryPort, "registry listen port")
	return cmd
}

func newPeerCmd() *cobra.Command {
	var registryHost, dir, hostname string
	var registryPort int
	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Run a peer: serve local documents and open the command console",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.Load()
			if cmd.Flags().Changed("registry-host") {
				settings.RegistryHost = registryHost
			}
			if cmd.Flags().Changed("registry-port") {
				settings.RegistryPort = registryPort
			}
			if cmd.Flags().Changed("dir") {
				settings.PeerDir = dir
			}
			if cmd.Flags().Changed("hostname") {
				settings.Hostname = hostname
			}

			logger, closeLog, err := newLogger(settings.LogFile)
			if err != nil {
				return err
			}
			defer closeLog()

			return peer.Run(settings, os.Stdin, os.Stdout, logger)
		},
	}
	cmd.Flags().StringVar(&registryHost, "registry-host", "127.0.0.1", "registry host")
	cmd.Flags().IntVar(&registryPort, "registry-port", config.DefaultRegistryPort, "registry port")
	cmd.Flags().StringVar(&dir, "dir", "documents", "directory of local documents")
	cmd.Flags().StringVar(&hostname, "hostname", "", "hostname to announce to the registry")
	return cmd
}

// newLogger builds the process logger: JSON to a file when one is
// configured, otherwise text to stderr.
func newLogger(logFile string) (*slog.Logger, func(), error) {
	if logFile == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})), func() {}, nil
	}

	out, err := os.Create(logFile)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, func() { out.Close() }, nil
}
