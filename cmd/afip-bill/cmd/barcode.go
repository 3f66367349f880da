package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-bill/internal/barcode"
	"github.com/rezonia/afip-bill/internal/checkdigit"
)

var (
	barcodePNG    string
	barcodeModule int
	barcodeHeight int
)

var barcodeCmd = &cobra.Command{
	Use:   "barcode [bill file | digits]",
	Short: "Show the barcode payload of a bill",
	Long: `Build the numeric barcode payload of a bill: document number (doc_num,
hyphens removed), document type, sale point, CAE and CAE due date followed by
the check digit, left-padded to an even length.

When the argument is a string of digits instead of a file, its check digit is
printed.

Examples:
  afip-bill barcode bill.json --sale-point 0001
  afip-bill barcode bill.json --png barcode.png
  afip-bill barcode 201234567890100011234567890123420240101`,
	Args: cobra.ExactArgs(1),
	RunE: runBarcode,
}

func init() {
	rootCmd.AddCommand(barcodeCmd)

	barcodeCmd.Flags().StringVar(&barcodePNG, "png", "", "Also write the interleaved 2 of 5 bars to this PNG file")
	barcodeCmd.Flags().IntVar(&barcodeModule, "module-width", 2, "Pixels per bar module")
	barcodeCmd.Flags().IntVar(&barcodeHeight, "height", 60, "Bar height in pixels")
}

func runBarcode(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(args[0]); err != nil {
		check, err := checkdigit.Calculate(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Check digit: %c\n", check)
		return nil
	}

	g, err := newGenerator(args[0])
	if err != nil {
		return err
	}

	payload, err := g.Barcode()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Barcode:     %s\n", payload.String())
	fmt.Fprintf(out, "Check digit: %c\n", payload.CheckDigit())
	fmt.Fprintf(out, "Length:      %d\n", payload.Len())

	if barcodePNG != "" {
		if err := writeBarcodePNG(payload, barcodePNG); err != nil {
			return err
		}
		fmt.Fprintf(out, "Image:       %s\n", barcodePNG)
	}
	return nil
}

func writeBarcodePNG(payload *barcode.Payload, path string) error {
	img, err := payload.PNG(barcodeModule, barcodeHeight)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, img, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}
