package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rezonia/afip-bill/internal/model"
)

// WKHTMLToPDF renders markup with the external wkhtmltopdf executable
type WKHTMLToPDF struct {
	path      string
	available bool
	timeout   time.Duration
}

// NewWKHTMLToPDF creates the backend. An empty path searches common locations.
func NewWKHTMLToPDF(path string) *WKHTMLToPDF {
	w := &WKHTMLToPDF{timeout: 60 * time.Second}
	if path != "" {
		if p, err := exec.LookPath(path); err == nil {
			w.path, w.available = p, true
		} else {
			w.path = path
		}
		return w
	}
	w.path, w.available = detectWKHTMLToPDF()
	return w
}

// Name returns the backend name
func (w *WKHTMLToPDF) Name() string {
	return BackendWKHTMLToPDF
}

// IsAvailable returns whether the executable was found
func (w *WKHTMLToPDF) IsAvailable() bool {
	return w.available
}

// Path returns the detected executable path
func (w *WKHTMLToPDF) Path() string {
	return w.path
}

// SetTimeout sets the execution timeout
func (w *WKHTMLToPDF) SetTimeout(d time.Duration) {
	w.timeout = d
}

// Render pipes markup through wkhtmltopdf and returns the PDF it writes
func (w *WKHTMLToPDF) Render(ctx context.Context, markup string, opts Options) ([]byte, error) {
	if !w.available {
		return nil, model.NewRenderError(w.Name(), "executable not available", fmt.Errorf("%q not found", w.path))
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, w.path, Args(opts)...)
	cmd.Stdin = strings.NewReader(markup)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "process failed"
		}
		return nil, model.NewRenderError(w.Name(), msg, err)
	}

	if !bytes.HasPrefix(stdout.Bytes(), pdfMagic) {
		return nil, model.NewRenderError(w.Name(), "output is not a PDF document", nil)
	}
	return stdout.Bytes(), nil
}

// Args returns the command line for opts, reading stdin and writing stdout
func Args(opts Options) []string {
	args := []string{"--quiet", "--encoding", "UTF-8"}
	if opts.Zoom > 0 {
		args = append(args, "--zoom", strconv.FormatFloat(opts.Zoom, 'f', -1, 64))
	}
	if opts.PageSize != "" {
		args = append(args, "--page-size", opts.PageSize)
	}
	for _, m := range []struct{ flag, value string }{
		{"--margin-bottom", opts.MarginBottom},
		{"--margin-top", opts.MarginTop},
		{"--margin-left", opts.MarginLeft},
		{"--margin-right", opts.MarginRight},
	} {
		if m.value != "" {
			args = append(args, m.flag, m.value)
		}
	}
	return append(args, "-", "-")
}

// detectWKHTMLToPDF looks for wkhtmltopdf in common locations
func detectWKHTMLToPDF() (string, bool) {
	paths := []string{
		"wkhtmltopdf",                   // PATH
		"/usr/bin/wkhtmltopdf",          // Linux
		"/usr/local/bin/wkhtmltopdf",    // macOS Intel, manual installs
		"/opt/homebrew/bin/wkhtmltopdf", // macOS Homebrew ARM
	}

	for _, p := range paths {
		if path, err := exec.LookPath(p); err == nil {
			return path, true
		}
	}
	return "wkhtmltopdf", false
}

// GetInstallInstructions returns platform-specific installation instructions
func GetInstallInstructions() string {
	return `wkhtmltopdf is required for full-fidelity bill rendering.

Installation:
  - Ubuntu/Debian: sudo apt install wkhtmltopdf
  - macOS:         brew install --cask wkhtmltopdf
  - Fedora/RHEL:   sudo dnf install wkhtmltopdf

Without it, use the basic backend (--backend basic).`
}
