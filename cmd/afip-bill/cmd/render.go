package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-bill/internal/render"
	"github.com/rezonia/afip-bill/pkg/afipbill"
)

var (
	outputPath string
	copies     []string
	timeout    time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render [bill files...]",
	Short: "Render bills to PDF",
	Long: `Render one or more bills to PDF.

Each file holds either the bill object itself or an envelope:
  {"bill": {...}, "user": {...}, "line_items": [...], "copy_label": "ORIGINAL"}

Without --output every bill is written to a new temporary file whose path is
reported; removing it is up to the caller. With several bills --output names
a directory.

Examples:
  afip-bill render bill.json
  afip-bill render bill.json --items items.json -o factura.pdf
  afip-bill render bill.json --copies ORIGINAL,DUPLICADO,TRIPLICADO -o copias.pdf
  afip-bill render bills/ -o out/ -f table`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	addInputFlags(renderCmd)
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file, or directory for several bills (default: temp file)")
	renderCmd.Flags().StringSliceVar(&copies, "copies", nil, "Render one copy per label and merge them (e.g. ORIGINAL,DUPLICADO)")
	renderCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Rendering timeout per bill")
}

func addInputFlags(c *cobra.Command) {
	c.Flags().StringVar(&userFile, "user", "", "JSON file with the issuer profile passed to templates")
	c.Flags().StringVar(&itemsFile, "items", "", "JSON file with the line items")
	c.Flags().StringVar(&copyLabel, "copy-label", "", "Copy label (default: "+afipbill.CopyOriginal+")")
}

func runRender(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".json")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no bill files found")
	}

	printVerbose("Found %d bills to render\n", len(files))

	outputDir := ""
	if outputPath != "" && len(files) > 1 {
		if err := os.MkdirAll(outputPath, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		outputDir = outputPath
	}

	results := make([]*RenderResult, 0, len(files))
	failed := 0
	for _, file := range files {
		target := outputPath
		if outputDir != "" {
			base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			target = filepath.Join(outputDir, base+".pdf")
		}

		result := renderFile(cmd.Context(), file, target)
		results = append(results, result)

		if result.Error != "" {
			failed++
			printVerbose("  Error: %s\n", result.Error)
		} else {
			printVerbose("  Written: %s (%d pages)\n", result.Output, result.Pages)
		}
	}

	if err := outputResults(os.Stdout, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d bills failed", failed, len(files))
	}
	return nil
}

func renderFile(parent context.Context, file, target string) *RenderResult {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	result := &RenderResult{File: file}

	g, err := newGenerator(file)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.DocumentType = g.DocumentType().Code
	result.Name = g.BillName() + " " + strings.ToUpper(g.BillType())

	if payload, err := g.Barcode(); err == nil {
		result.Barcode = payload.String()
	}

	var data []byte
	switch {
	case len(copies) > 0:
		data, err = g.GenerateCopies(ctx, copies...)
	case target == "":
		result.Output, err = g.GeneratePDFFile(ctx)
		if err == nil {
			data, err = os.ReadFile(result.Output)
		}
	default:
		data, err = g.GeneratePDF(ctx)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if result.Output == "" {
		if target == "" {
			f, err := os.CreateTemp("", "afip_bill-*.pdf")
			if err != nil {
				result.Error = err.Error()
				return result
			}
			f.Close()
			target = f.Name()
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			result.Error = fmt.Sprintf("failed to write output: %v", err)
			return result
		}
		result.Output = target
	}

	result.Size = len(data)
	if info, err := render.Inspect(data); err == nil {
		result.Pages = info.Pages
	}
	return result
}

func outputResults(w io.Writer, results []*RenderResult) error {
	switch outputFormat {
	case "json":
		return outputJSON(w, results)
	case "table":
		return outputTable(w, results)
	case "csv":
		return outputCSV(w, results)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func outputJSON(w io.Writer, results []*RenderResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func outputTable(w io.Writer, results []*RenderResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCODE\tNAME\tPAGES\tSIZE\tOUTPUT")
	fmt.Fprintln(tw, "----\t----\t----\t-----\t----\t------")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.File,
			r.DocumentType,
			r.Name,
			r.Pages,
			r.Size,
			r.Output,
		)
	}

	return tw.Flush()
}

func outputCSV(w io.Writer, results []*RenderResult) error {
	fmt.Fprintln(w, "file,code,name,barcode,pages,size,output,error")

	for _, r := range results {
		fmt.Fprintf(w, "%s,%s,%s,%s,%d,%d,%s,%s\n",
			escapeCSV(r.File),
			r.DocumentType,
			escapeCSV(r.Name),
			r.Barcode,
			r.Pages,
			r.Size,
			escapeCSV(r.Output),
			escapeCSV(r.Error),
		)
	}

	return nil
}

func escapeCSV(s string) string {
	if strings.Contains(s, ",") || strings.Contains(s, "\"") || strings.Contains(s, "\n") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}

// RenderResult holds the result of rendering a single bill
type RenderResult struct {
	File         string `json:"file"`
	DocumentType string `json:"cbte_tipo,omitempty"`
	Name         string `json:"name,omitempty"`
	Barcode      string `json:"barcode,omitempty"`
	Output       string `json:"output,omitempty"`
	Pages        int    `json:"pages,omitempty"`
	Size         int    `json:"size,omitempty"`
	Error        string `json:"error,omitempty"`
}
