package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the supported document types",
	Long: `List the document type codes (cbte_tipo) known to the configured
registry layout, with the template each one renders through.

Examples:
  afip-bill types -f table
  afip-bill types --layout notes`,
	Args: cobra.NoArgs,
	RunE: runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	entries := reg.Entries()
	out := cmd.OutOrStdout()

	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "table":
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tNAME\tCATEGORY\tTEMPLATE")
		fmt.Fprintln(tw, "----\t----\t--------\t--------")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Code, e.Name(), e.TaxCategory, e.TemplateID())
		}
		return tw.Flush()
	case "csv":
		fmt.Fprintln(out, "code,name,category,template")
		for _, e := range entries {
			fmt.Fprintf(out, "%s,%s,%s,%s\n", e.Code, escapeCSV(e.Name()), e.TaxCategory, e.TemplateID())
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
