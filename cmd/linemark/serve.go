package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/linemark/internal/config"
	"github.com/jackzampolin/linemark/internal/home"
	"github.com/jackzampolin/linemark/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the linemark server",
	Long: `Start the linemark HTTP server.

The server accepts workbook+PDF uploads, runs annotation jobs
synchronously, and serves the annotated copies and not-found reports.

Endpoints:
  GET  /health                   - server health check
  POST /api/annotate/restricted  - fragment co-occurrence job
  POST /api/annotate/full        - exact-term job
  GET  /api/outputs/{name}       - download an output

Examples:
  linemark serve                    # Start on default port 8080
  linemark serve --port 3000        # Start on custom port
  linemark serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		mgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}

		host := serveHost
		port := servePort
		if !cmd.Flags().Changed("host") && mgr.Get().Server.Host != "" {
			host = mgr.Get().Server.Host
		}
		if !cmd.Flags().Changed("port") && mgr.Get().Server.Port != "" {
			port = mgr.Get().Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: mgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
