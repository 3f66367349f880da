package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rezonia/afip-bill/internal/model"
	"github.com/rezonia/afip-bill/pkg/afipbill"
)

// Input flags shared by render, html and barcode
var (
	userFile  string
	itemsFile string
	copyLabel string
)

// billInput is either a bare bill object or an envelope carrying the bill
// with its user context and line items
type billInput struct {
	Bill      json.RawMessage  `json:"bill"`
	User      map[string]any   `json:"user"`
	LineItems []model.LineItem `json:"line_items"`
	CopyLabel string           `json:"copy_label"`
}

func loadInput(path string) (*billInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bill: %w", err)
	}

	in := &billInput{Bill: data}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil && isObject(probe["bill"]) {
		var envelope billInput
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, model.NewMalformedInputError("invalid bill envelope", err)
		}
		in = &envelope
	}

	if userFile != "" {
		raw, err := os.ReadFile(userFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read user: %w", err)
		}
		if err := json.Unmarshal(raw, &in.User); err != nil {
			return nil, model.NewMalformedInputError("user file is not a JSON object", err)
		}
	}

	if itemsFile != "" {
		raw, err := os.ReadFile(itemsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read line items: %w", err)
		}
		if err := json.Unmarshal(raw, &in.LineItems); err != nil {
			return nil, model.NewMalformedInputError("line items file is not a JSON array", err)
		}
	}

	if copyLabel != "" {
		in.CopyLabel = copyLabel
	}
	return in, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func newGenerator(path string) (*afipbill.Generator, error) {
	in, err := loadInput(path)
	if err != nil {
		return nil, err
	}

	opts, err := generatorOptions()
	if err != nil {
		return nil, err
	}
	if in.CopyLabel != "" {
		opts = append(opts, afipbill.WithCopyLabel(in.CopyLabel))
	}

	var user any
	if in.User != nil {
		user = in.User
	}

	g, err := afipbill.New(in.Bill, user, in.LineItems, opts...)
	if err != nil {
		return nil, err
	}

	printVerbose("%s: %s %s (code %s, template %s)\n",
		path, g.BillName(), strings.ToUpper(g.BillType()), g.DocumentType().Code, g.DocumentType().TemplateID())
	return g, nil
}

func generatorOptions() ([]afipbill.Option, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	set, err := cfg.Templates()
	if err != nil {
		return nil, err
	}
	rate, err := cfg.TaxRate()
	if err != nil {
		return nil, err
	}
	backend, err := cfg.RenderBackend(appLogger)
	if err != nil {
		return nil, err
	}

	return []afipbill.Option{
		afipbill.WithSalePoint(cfg.SalePoint),
		afipbill.WithRegistry(reg),
		afipbill.WithTemplates(set),
		afipbill.WithDefaultTaxRate(rate),
		afipbill.WithBackend(backend),
		afipbill.WithRenderOptions(cfg.RenderOptions()),
		afipbill.WithLogger(appLogger),
	}, nil
}

// collectFiles expands globs and directories into files with one of exts
func collectFiles(args []string, exts ...string) ([]string, error) {
	var files []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}
			matches = []string{arg}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}

			if !info.IsDir() {
				// Explicitly named files are kept whatever their extension
				if match == arg || hasExt(match, exts) {
					files = append(files, match)
				}
				continue
			}

			found, err := walkFiles(match, exts)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		}
	}

	return files, nil
}

func walkFiles(dir string, exts []string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && hasExt(path, exts) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
