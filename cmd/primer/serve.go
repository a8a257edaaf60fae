package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the primer server",
	Long: `Start the primer HTTP server.

The server exposes the catalog and segment stages over HTTP, serves saved
catalogs as JSON and HTML, and manages per-book prompt overrides. Changes to
the config file are picked up without a restart.

Endpoints include:
  - /health                          Basic health check
  - /api/books                       Book list
  - /api/books/{book}/catalog        GET the catalog, POST to build it
  - /swagger                         API documentation

Examples:
  primer serve                    # Listen on server.host:server.port (127.0.0.1:8080)
  primer serve --port 3000        # Custom port
  primer serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		mgr.WatchConfig()

		cfg := mgr.Get()
		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
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
		if f := mgr.ConfigFileUsed(); f != "" {
			logger.Info("loaded config", "file", f)
		}

		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
