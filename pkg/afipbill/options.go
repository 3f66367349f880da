package afipbill

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rezonia/afip-bill/internal/registry"
	"github.com/rezonia/afip-bill/internal/render"
	"github.com/rezonia/afip-bill/internal/templates"
)

// Option configures a Generator
type Option func(*Generator)

// WithCopyLabel sets the copy label (ORIGINAL, DUPLICADO, ...)
func WithCopyLabel(label string) Option {
	return func(g *Generator) {
		g.copyLabel = label
	}
}

// WithSalePoint sets the sale point, overriding the process-wide default
func WithSalePoint(salePoint string) Option {
	return func(g *Generator) {
		g.salePoint = salePoint
	}
}

// WithRegistry sets the document type registry
func WithRegistry(r *registry.Registry) Option {
	return func(g *Generator) {
		if r != nil {
			g.registry = r
		}
	}
}

// WithTemplates sets the template set
func WithTemplates(s *templates.Set) Option {
	return func(g *Generator) {
		if s != nil {
			g.templates = s
		}
	}
}

// WithBackend sets the PDF backend
func WithBackend(b render.Backend) Option {
	return func(g *Generator) {
		if b != nil {
			g.backend = b
		}
	}
}

// WithRenderOptions sets the page layout passed to the backend
func WithRenderOptions(opts render.Options) Option {
	return func(g *Generator) {
		g.renderOpts = opts
	}
}

// WithDefaultTaxRate sets the rate for line items that carry none
func WithDefaultTaxRate(rate decimal.Decimal) Option {
	return func(g *Generator) {
		g.defaultRate = &rate
	}
}

// WithBarcodeImage toggles embedding the rendered bars in the markup
func WithBarcodeImage(enabled bool) Option {
	return func(g *Generator) {
		g.barcodeImage = enabled
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}
