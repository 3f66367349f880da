package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-bill/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for rendering bills.

The API provides endpoints for:
  - GET  /api/v1/document-types  - List document types
  - POST /api/v1/barcode         - Barcode payload (add ?image=true for PNG)
  - POST /api/v1/render/html     - Composed HTML
  - POST /api/v1/render/pdf      - Rendered PDF
  - GET  /health                 - Health check

Request body:
  {"bill": {...}, "user": {...}, "line_items": [...], "copy_label": "ORIGINAL"}

Examples:
  # Start server on the configured address
  afip-bill serve

  # Start on custom port in debug mode
  afip-bill serve --address :9090 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (env: AFIP_BILL_SERVER_ADDRESS)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 0, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	set, err := cfg.Templates()
	if err != nil {
		return err
	}
	rate, err := cfg.TaxRate()
	if err != nil {
		return err
	}
	backend, err := cfg.RenderBackend(appLogger)
	if err != nil {
		return err
	}
	opts := cfg.RenderOptions()

	config := &server.Config{
		Address:        cfg.Server.Address,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RenderTimeout:  cfg.Backend.Timeout,
		Debug:          cfg.Server.Debug || serverDebug,
		SalePoint:      cfg.SalePoint,
		Registry:       reg,
		Templates:      set,
		Backend:        backend,
		RenderOptions:  &opts,
		DefaultTaxRate: &rate,
		Logger:         appLogger,
	}
	if serverAddr != "" {
		config.Address = serverAddr
	}
	if readTimeout > 0 {
		config.ReadTimeout = readTimeout
	}
	if writeTimeout > 0 {
		config.WriteTimeout = writeTimeout
	}

	srv := server.NewServer(config)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down server...")
		_ = appLogger.Sync()
		os.Exit(0)
	}()

	fmt.Printf("Starting server on %s (backend: %s)\n", config.Address, backend.Name())
	if cfg.SalePoint == "" {
		fmt.Println("No sale point configured; requests must send sale_point")
	}

	return srv.Run()
}
