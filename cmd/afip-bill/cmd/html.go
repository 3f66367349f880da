package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var htmlOutput string

var htmlCmd = &cobra.Command{
	Use:   "html [bill file]",
	Short: "Print the composed HTML of a bill",
	Long: `Compose header, body and footer templates for a bill and print the
resulting HTML. Useful to debug templates without a PDF backend.

Examples:
  afip-bill html bill.json
  afip-bill html bill.json --items items.json -o factura.html`,
	Args: cobra.ExactArgs(1),
	RunE: runHTML,
}

func init() {
	rootCmd.AddCommand(htmlCmd)

	addInputFlags(htmlCmd)
	htmlCmd.Flags().StringVarP(&htmlOutput, "output", "o", "", "Output file (default: stdout)")
}

func runHTML(cmd *cobra.Command, args []string) error {
	g, err := newGenerator(args[0])
	if err != nil {
		return err
	}

	markup, err := g.RenderTemplate()
	if err != nil {
		return err
	}

	if htmlOutput == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), markup)
		return err
	}

	if err := os.WriteFile(htmlOutput, []byte(markup), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	printVerbose("Written: %s\n", htmlOutput)
	return nil
}
