package afipbill

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rezonia/afip-bill/internal/barcode"
	"github.com/rezonia/afip-bill/internal/model"
	"github.com/rezonia/afip-bill/internal/registry"
	"github.com/rezonia/afip-bill/internal/render"
	"github.com/rezonia/afip-bill/internal/templates"
)

// Barcode image size: pixels per module and bar height
const (
	barcodeModuleWidth = 2
	barcodeHeight      = 60
)

// Generator prepares one bill and renders it. It is built once per render
// request and is not modified after construction.
type Generator struct {
	bill      *model.Invoice
	user      any
	lineItems []model.LineItem
	copyLabel string
	salePoint string
	docType   registry.DocumentType

	registry     *registry.Registry
	templates    *templates.Set
	backend      render.Backend
	renderOpts   render.Options
	defaultRate  *decimal.Decimal
	barcodeImage bool
	logger       *zap.Logger

	barcodeOnce sync.Once
	barcode     *barcode.Payload
	barcodeErr  error
}

// New parses billData (a JSON object) and prepares a generator for it.
// user is passed through to the templates untouched.
func New(billData []byte, user any, lineItems []model.LineItem, opts ...Option) (*Generator, error) {
	inv, err := model.ParseInvoice(billData)
	if err != nil {
		return nil, err
	}
	return newGenerator(inv, user, lineItems, opts)
}

// NewFromFields prepares a generator from already decoded bill fields
func NewFromFields(fields map[string]any, user any, lineItems []model.LineItem, opts ...Option) (*Generator, error) {
	return newGenerator(model.NewInvoice(fields), user, lineItems, opts)
}

func newGenerator(inv *model.Invoice, user any, lineItems []model.LineItem, opts []Option) (*Generator, error) {
	g := &Generator{
		bill:         inv,
		user:         user,
		copyLabel:    CopyOriginal,
		salePoint:    CurrentConfiguration().SalePoint,
		registry:     registry.Default(),
		templates:    templates.Default(),
		renderOpts:   render.DefaultOptions(),
		barcodeImage: true,
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	g.lineItems = make([]model.LineItem, len(lineItems))
	for i, li := range lineItems {
		if g.defaultRate != nil {
			li = li.WithDefaultRate(*g.defaultRate)
		}
		g.lineItems[i] = li
	}

	docType, err := g.registry.Resolve(inv.DocumentType())
	if err != nil {
		return nil, err
	}
	g.docType = docType

	return g, nil
}

// BillName returns the capitalized document name, e.g. "Factura"
func (g *Generator) BillName() string {
	return g.docType.Name()
}

// BillType returns the tax category letter, e.g. "a"
func (g *Generator) BillType() string {
	return g.docType.TaxCategory
}

// DocumentType returns the resolved registry entry
func (g *Generator) DocumentType() registry.DocumentType {
	return g.docType
}

// Invoice returns the parsed bill
func (g *Generator) Invoice() *model.Invoice {
	return g.bill
}

// User returns the user context passed to templates
func (g *Generator) User() any {
	return g.user
}

// LineItems returns a copy of the line items
func (g *Generator) LineItems() []model.LineItem {
	out := make([]model.LineItem, len(g.lineItems))
	copy(out, g.lineItems)
	return out
}

// Totals sums the line items
func (g *Generator) Totals() model.Totals {
	return model.CalculateTotals(g.lineItems)
}

// CopyLabel returns the copy label
func (g *Generator) CopyLabel() string {
	return g.copyLabel
}

// SalePoint returns the sale point embedded in the barcode
func (g *Generator) SalePoint() string {
	return g.salePoint
}

// Barcode returns the barcode payload. It is computed on first use and
// cached for the lifetime of the generator.
func (g *Generator) Barcode() (*barcode.Payload, error) {
	g.barcodeOnce.Do(func() {
		fields, err := barcode.FieldsFromInvoice(g.bill, g.salePoint)
		if err != nil {
			g.barcodeErr = err
			return
		}
		g.barcode, g.barcodeErr = barcode.Build(fields)
	})
	return g.barcode, g.barcodeErr
}

// RenderTemplate composes header, body and footer markup for the bill
func (g *Generator) RenderTemplate() (string, error) {
	return g.renderMarkup(g.copyLabel)
}

// GeneratePDF renders the bill and returns the PDF bytes
func (g *Generator) GeneratePDF(ctx context.Context) ([]byte, error) {
	markup, err := g.renderMarkup(g.copyLabel)
	if err != nil {
		return nil, err
	}
	return g.renderPDF(ctx, markup)
}

// GeneratePDFFile renders the bill into a new temporary file and returns its
// path. Removing the file is up to the caller.
func (g *Generator) GeneratePDFFile(ctx context.Context) (string, error) {
	data, err := g.GeneratePDF(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "afip_bill-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	g.logger.Debug("bill written",
		zap.String("path", f.Name()),
		zap.Int("bytes", len(data)))
	return f.Name(), nil
}

// GenerateCopies renders one copy per label and merges them into a single
// PDF. Without labels ORIGINAL, DUPLICADO and TRIPLICADO are produced.
func (g *Generator) GenerateCopies(ctx context.Context, labels ...string) ([]byte, error) {
	if len(labels) == 0 {
		labels = []string{CopyOriginal, CopyDuplicate, CopyTriplicate}
	}

	docs := make([][]byte, 0, len(labels))
	for _, label := range labels {
		markup, err := g.renderMarkup(label)
		if err != nil {
			return nil, err
		}
		doc, err := g.renderPDF(ctx, markup)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	merged, err := render.Merge(docs)
	if err != nil {
		return nil, model.NewRenderError("pdfcpu", "failed to merge copies", err)
	}
	return merged, nil
}

func (g *Generator) templateData(copyLabel string) (templates.Data, error) {
	payload, err := g.Barcode()
	if err != nil {
		return templates.Data{}, err
	}

	views := make([]templates.LineItemView, 0, len(g.lineItems))
	for _, li := range g.lineItems {
		views = append(views, templates.NewLineItemView(li))
	}

	data := templates.Data{
		Bill:      g.bill.Fields(),
		User:      g.user,
		LineItems: views,
		Totals:    g.Totals(),
		Barcode:   payload.String(),
		CopyLabel: copyLabel,
		BillName:  g.BillName(),
		BillType:  g.BillType(),
		SalePoint: g.salePoint,
	}

	if g.barcodeImage {
		uri, err := payload.DataURI(barcodeModuleWidth, barcodeHeight)
		if err != nil {
			return templates.Data{}, err
		}
		data.BarcodeImage = template.URL(uri)
	}

	return data, nil
}

func (g *Generator) renderMarkup(copyLabel string) (string, error) {
	data, err := g.templateData(copyLabel)
	if err != nil {
		return "", err
	}

	markup, err := g.templates.Compose(g.docType.TemplateID(), data)
	if err != nil {
		return "", err
	}

	g.logger.Debug("bill markup composed",
		zap.String("cbte_tipo", g.docType.Code),
		zap.String("template", g.docType.TemplateID()),
		zap.String("copy", copyLabel),
		zap.Int("line_items", len(g.lineItems)))
	return markup, nil
}

func (g *Generator) renderPDF(ctx context.Context, markup string) ([]byte, error) {
	backend := g.backend
	if backend == nil {
		backend = render.NewWKHTMLToPDF("")
	}

	start := time.Now()
	data, err := backend.Render(ctx, markup, g.renderOpts)
	if err != nil {
		g.logger.Error("bill rendering failed",
			zap.String("backend", backend.Name()),
			zap.String("cbte_tipo", g.docType.Code),
			zap.Error(err))
		if !errors.Is(err, model.ErrRender) {
			err = model.NewRenderError(backend.Name(), "render failed", err)
		}
		return nil, err
	}

	g.logger.Info("bill rendered",
		zap.String("backend", backend.Name()),
		zap.String("cbte_tipo", g.docType.Code),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return data, nil
}
