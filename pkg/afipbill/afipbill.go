// Package afipbill renders AFIP electronic bills (facturas, notas de débito
// and notas de crédito) to PDF.
//
// Example usage:
//
//	afipbill.Configure(afipbill.Configuration{SalePoint: "0001"})
//
//	gen, err := afipbill.New(billJSON, user, items)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pdf, err := gen.GeneratePDF(ctx)
package afipbill

import (
	"sync"

	"github.com/rezonia/afip-bill/internal/model"
	"github.com/rezonia/afip-bill/internal/registry"
)

// Re-export core types for public API
type (
	Invoice      = model.Invoice
	LineItem     = model.LineItem
	Totals       = model.Totals
	DocumentType = registry.DocumentType
	Registry     = registry.Registry
	BillError    = model.BillError
)

// Re-export error sentinels
var (
	ErrInvalidInput        = model.ErrInvalidInput
	ErrMalformedInput      = model.ErrMalformedInput
	ErrUnknownDocumentType = model.ErrUnknownDocumentType
	ErrMissingField        = model.ErrMissingField
	ErrTemplateNotFound    = model.ErrTemplateNotFound
	ErrRender              = model.ErrRender
)

// Copy labels printed at the top of each copy
const (
	CopyOriginal   = "ORIGINAL"
	CopyDuplicate  = "DUPLICADO"
	CopyTriplicate = "TRIPLICADO"
)

// Configuration holds process-wide defaults applied to every Generator that
// does not set them explicitly
type Configuration struct {
	SalePoint string
}

var (
	configMu sync.RWMutex
	current  Configuration
)

// Configure replaces the process-wide defaults. Call it once at startup,
// before constructing generators.
func Configure(c Configuration) {
	configMu.Lock()
	defer configMu.Unlock()
	current = c
}

// CurrentConfiguration returns the process-wide defaults
func CurrentConfiguration() Configuration {
	configMu.RLock()
	defer configMu.RUnlock()
	return current
}
