package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-bill/internal/render"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about rendered PDF files",
	Long: `Validate rendered bills and display basic information about them.

Shows:
  - Whether the file is a valid PDF
  - Page count
  - File metadata

Examples:
  afip-bill info factura.pdf
  afip-bill info out/*.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".pdf")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	for _, file := range files {
		printFileInfo(file)
		fmt.Println()
	}

	return nil
}

func printFileInfo(filePath string) {
	fmt.Printf("File: %s\n", filePath)

	stat, err := os.Stat(filePath)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}

	fmt.Printf("  Size: %d bytes\n", stat.Size())
	fmt.Printf("  Modified: %s\n", stat.ModTime().Format("2006-01-02 15:04:05"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Printf("  Error reading file: %v\n", err)
		return
	}

	info, err := render.Inspect(data)
	fmt.Printf("  Valid: %t\n", info.Valid)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}
	fmt.Printf("  Pages: %d\n", info.Pages)
}
