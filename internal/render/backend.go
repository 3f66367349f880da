// Package render turns composed bill markup into PDF documents.
package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Backend names
const (
	BackendWKHTMLToPDF = "wkhtmltopdf"
	BackendBasic       = "basic"
	BackendAuto        = "auto"
)

// Backend renders markup into PDF bytes
type Backend interface {
	Render(ctx context.Context, markup string, opts Options) ([]byte, error)
	Name() string
}

// Options control page layout. Margins carry a unit suffix (in, mm, cm).
type Options struct {
	Zoom         float64
	PageSize     string
	MarginTop    string
	MarginBottom string
	MarginLeft   string
	MarginRight  string
}

// DefaultOptions returns the layout AFIP bills are printed with
func DefaultOptions() Options {
	return Options{
		Zoom:         1.65,
		PageSize:     "A4",
		MarginTop:    "0.05in",
		MarginBottom: "0.05in",
		MarginLeft:   "0.2in",
		MarginRight:  "0.2in",
	}
}

// Config selects and tunes a backend
type Config struct {
	Name    string
	Path    string
	Timeout time.Duration
	Logger  *zap.Logger
}

// ByName creates a backend. An empty name selects wkhtmltopdf. "auto" prefers
// wkhtmltopdf and falls back to the basic backend, which drops images and so
// the barcode bars, when the executable cannot be found.
func ByName(cfg Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", BackendWKHTMLToPDF:
		w := NewWKHTMLToPDF(cfg.Path)
		if cfg.Timeout > 0 {
			w.SetTimeout(cfg.Timeout)
		}
		return w, nil
	case BackendBasic:
		return NewBasic(), nil
	case BackendAuto:
		w := NewWKHTMLToPDF(cfg.Path)
		if !w.IsAvailable() {
			if cfg.Logger != nil {
				cfg.Logger.Warn("wkhtmltopdf not found, falling back to basic backend without images",
					zap.String("path", w.Path()),
					zap.String("backend", BackendBasic))
			}
			return NewBasic(), nil
		}
		if cfg.Timeout > 0 {
			w.SetTimeout(cfg.Timeout)
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", cfg.Name)
	}
}

// ParseLength converts a length such as "0.2in", "5mm" or "1cm" to inches.
// A bare number is taken as inches.
func ParseLength(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, nil
	}

	factor := 1.0
	switch {
	case strings.HasSuffix(s, "in"):
		s = strings.TrimSuffix(s, "in")
	case strings.HasSuffix(s, "mm"):
		s, factor = strings.TrimSuffix(s, "mm"), 1/25.4
	case strings.HasSuffix(s, "cm"):
		s, factor = strings.TrimSuffix(s, "cm"), 1/2.54
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative length %q", s)
	}
	return v * factor, nil
}
