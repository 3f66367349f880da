package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/afip-bill/internal/config"
	"github.com/rezonia/afip-bill/internal/logger"
	"github.com/rezonia/afip-bill/pkg/afipbill"
)

var (
	version = "1.0.0"

	// Global flags
	configPath   string
	verbose      bool
	outputFormat string
	salePoint    string
	layout       string
	backendName  string

	cfg       *config.Config
	appLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "afip-bill",
	Short: "Render AFIP electronic bills as PDF",
	Long: `afip-bill renders Argentine AFIP electronic bills (facturas and
credit/debit notes) from their JSON description into printable PDFs,
including the interleaved 2 of 5 barcode with its check digit.

Configuration is read from --config, a .env file and AFIP_BILL_* environment
variables (e.g. AFIP_BILL_SALE_POINT, AFIP_BILL_BACKEND_NAME).

Examples:
  # Render a bill to a temporary PDF
  afip-bill render bill.json --sale-point 0001

  # Render with line items and a user profile
  afip-bill render bill.json --items items.json --user user.json -o factura.pdf

  # Print the composed HTML
  afip-bill html bill.json

  # Show the barcode payload
  afip-bill barcode bill.json`,
	Version:           version,
	PersistentPreRunE: initConfig,
	SilenceUsage:      true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, csv, table)")
	rootCmd.PersistentFlags().StringVar(&salePoint, "sale-point", "", "Sale point number (env: AFIP_BILL_SALE_POINT)")
	rootCmd.PersistentFlags().StringVar(&layout, "layout", "", "Document type layout: bills or notes (env: AFIP_BILL_LAYOUT)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "PDF backend: wkhtmltopdf, auto or basic (env: AFIP_BILL_BACKEND_NAME)")
}

func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Flags win over file and environment
	if salePoint != "" {
		loaded.SalePoint = salePoint
	}
	if layout != "" {
		loaded.Layout = layout
	}
	if backendName != "" {
		loaded.Backend.Name = backendName
	}
	if verbose {
		loaded.Logger.Level = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.New(logger.Config{
		Level:      loaded.Logger.Level,
		OutputPath: loaded.Logger.OutputPath,
		Format:     loaded.Logger.Format,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	cfg = loaded
	appLogger = l
	afipbill.Configure(afipbill.Configuration{SalePoint: cfg.SalePoint})

	printVerbose("Config: sale point %q, layout %q, backend %q\n", cfg.SalePoint, cfg.Layout, cfg.Backend.Name)
	return nil
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
