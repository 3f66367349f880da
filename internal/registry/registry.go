// Package registry maps AFIP cbte_tipo codes to the template that renders
// them, their display name and their tax category letter.
//
// The mapping is policy: two layouts ship with the package and either can be
// extended or overridden per code.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rezonia/afip-bill/internal/model"
)

// Layout names
const (
	LayoutBills = "bills"
	LayoutNotes = "notes"
)

// DocumentType describes how one cbte_tipo is rendered
type DocumentType struct {
	Code        string `json:"code" mapstructure:"code"`
	Directory   string `json:"directory" mapstructure:"directory"`
	Template    string `json:"template" mapstructure:"template"`
	DisplayName string `json:"display_name" mapstructure:"display_name"`
	TaxCategory string `json:"tax_category" mapstructure:"tax_category"`
}

// TemplateID returns the template identifier, e.g. "bills/factura_a"
func (d DocumentType) TemplateID() string {
	if d.Directory == "" {
		return d.Template
	}
	return d.Directory + "/" + d.Template
}

// Name returns the capitalized display name
func (d DocumentType) Name() string {
	return Capitalize(d.DisplayName)
}

// BillsLayout renders credit and debit notes with the invoice templates
var BillsLayout = []DocumentType{
	{Code: "01", Directory: "bills", Template: "factura_a", DisplayName: "factura", TaxCategory: "a"},
	{Code: "02", Directory: "bills", Template: "factura_a", DisplayName: "Nota de débito", TaxCategory: "a"},
	{Code: "03", Directory: "bills", Template: "factura_a", DisplayName: "Nota de crédito", TaxCategory: "a"},
	{Code: "06", Directory: "bills", Template: "factura_b", DisplayName: "factura", TaxCategory: "b"},
	{Code: "07", Directory: "bills", Template: "factura_b", DisplayName: "Nota de débito", TaxCategory: "b"},
	{Code: "08", Directory: "bills", Template: "factura_b", DisplayName: "Nota de crédito", TaxCategory: "b"},
	{Code: "11", Directory: "bills", Template: "factura_b", DisplayName: "factura", TaxCategory: "c"},
	{Code: "12", Directory: "bills", Template: "factura_b", DisplayName: "Nota de débito", TaxCategory: "c"},
	{Code: "13", Directory: "bills", Template: "factura_b", DisplayName: "Nota de crédito", TaxCategory: "c"},
}

// NotesLayout routes credit and debit notes to their own templates
var NotesLayout = []DocumentType{
	{Code: "01", Directory: "bills", Template: "factura_a", DisplayName: "factura", TaxCategory: "a"},
	{Code: "02", Directory: "notes", Template: "nota_a", DisplayName: "Nota de débito", TaxCategory: "a"},
	{Code: "03", Directory: "notes", Template: "nota_a", DisplayName: "Nota de crédito", TaxCategory: "a"},
	{Code: "06", Directory: "bills", Template: "factura_b", DisplayName: "factura", TaxCategory: "b"},
	{Code: "07", Directory: "notes", Template: "nota_b", DisplayName: "Nota de débito", TaxCategory: "b"},
	{Code: "08", Directory: "notes", Template: "nota_b", DisplayName: "Nota de crédito", TaxCategory: "b"},
	{Code: "11", Directory: "bills", Template: "factura_b", DisplayName: "factura", TaxCategory: "c"},
	{Code: "12", Directory: "notes", Template: "nota_b", DisplayName: "Nota de débito", TaxCategory: "c"},
	{Code: "13", Directory: "notes", Template: "nota_b", DisplayName: "Nota de crédito", TaxCategory: "c"},
}

// Registry is a read-only code lookup, safe for concurrent use
type Registry struct {
	entries map[string]DocumentType
}

// New creates a registry from entries
func New(entries []DocumentType) (*Registry, error) {
	r := &Registry{entries: make(map[string]DocumentType, len(entries))}
	for _, e := range entries {
		if err := validate(e); err != nil {
			return nil, err
		}
		if _, dup := r.entries[e.Code]; dup {
			return nil, fmt.Errorf("duplicate document type code %q", e.Code)
		}
		r.entries[e.Code] = e
	}
	return r, nil
}

// MustNew is like New but panics on invalid entries
func MustNew(entries []DocumentType) *Registry {
	r, err := New(entries)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = MustNew(BillsLayout)

// Default returns the registry for the bills layout
func Default() *Registry {
	return defaultRegistry
}

// ForLayout returns a registry for a named layout
func ForLayout(name string) (*Registry, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", LayoutBills:
		return defaultRegistry, nil
	case LayoutNotes:
		return New(NotesLayout)
	default:
		return nil, fmt.Errorf("unknown registry layout %q (want %s or %s)", name, LayoutBills, LayoutNotes)
	}
}

// Resolve returns the entry for code
func (r *Registry) Resolve(code string) (DocumentType, error) {
	e, ok := r.entries[strings.TrimSpace(code)]
	if !ok {
		return DocumentType{}, model.NewUnknownDocumentTypeError(code)
	}
	return e, nil
}

// Merge returns a new registry where overrides replace or add entries
func (r *Registry) Merge(overrides []DocumentType) (*Registry, error) {
	merged := make(map[string]DocumentType, len(r.entries)+len(overrides))
	for k, v := range r.entries {
		merged[k] = v
	}
	for _, o := range overrides {
		if err := validate(o); err != nil {
			return nil, err
		}
		merged[o.Code] = o
	}
	return &Registry{entries: merged}, nil
}

// Codes returns the registered codes in ascending order
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.entries))
	for c := range r.entries {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Entries returns all entries ordered by code
func (r *Registry) Entries() []DocumentType {
	codes := r.Codes()
	out := make([]DocumentType, 0, len(codes))
	for _, c := range codes {
		out = append(out, r.entries[c])
	}
	return out
}

// Len returns the number of entries
func (r *Registry) Len() int {
	return len(r.entries)
}

// Capitalize upper-cases the first letter and lower-cases the rest
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

func validate(e DocumentType) error {
	if len(e.Code) != 2 || e.Code[0] < '0' || e.Code[0] > '9' || e.Code[1] < '0' || e.Code[1] > '9' {
		return fmt.Errorf("document type code %q must be two digits", e.Code)
	}
	if e.Template == "" {
		return fmt.Errorf("document type %s has no template", e.Code)
	}
	if strings.Contains(e.Template, "/") || strings.Contains(e.Directory, "..") {
		return fmt.Errorf("document type %s has an invalid template path", e.Code)
	}
	return nil
}
