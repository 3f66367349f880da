// Package templates holds the HTML templates bills are rendered from and the
// data contract they are executed against.
//
// A document is the concatenation of the shared header, the body selected by
// the document type and the shared footer. Template identifiers are paths
// without extension relative to the template root, e.g. "bills/factura_a".
package templates

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/afip-bill/internal/decimal"
	"github.com/rezonia/afip-bill/internal/model"
)

// Shared template identifiers
const (
	HeaderID = "shared/header"
	FooterID = "shared/footer"
)

const extension = ".html"

//go:embed html
var embedded embed.FS

// Set loads and caches templates from a file system
type Set struct {
	fsys fs.FS

	mu    sync.Mutex
	cache map[string]*template.Template
}

var defaultSet = func() *Set {
	sub, err := fs.Sub(embedded, "html")
	if err != nil {
		panic(err)
	}
	return NewSet(sub)
}()

// Default returns the set of embedded templates
func Default() *Set {
	return defaultSet
}

// NewSet creates a set reading templates from fsys
func NewSet(fsys fs.FS) *Set {
	return &Set{
		fsys:  fsys,
		cache: make(map[string]*template.Template),
	}
}

// FromDir creates a set reading templates from dir
func FromDir(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("templates dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates dir %s is not a directory", dir)
	}
	return NewSet(os.DirFS(dir)), nil
}

// Has reports whether a template backs id
func (s *Set) Has(id string) bool {
	_, err := s.lookup(id)
	return err == nil
}

// Execute renders a single template
func (s *Set) Execute(id string, data any) (string, error) {
	tmpl, err := s.lookup(id)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", id, err)
	}
	return sb.String(), nil
}

// Compose renders header, body and footer and concatenates them in that order
func (s *Set) Compose(bodyID string, data any) (string, error) {
	// Resolve the body first so a missing template is reported before any
	// rendering work happens.
	if _, err := s.lookup(bodyID); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, id := range []string{HeaderID, bodyID, FooterID} {
		part, err := s.Execute(id, data)
		if err != nil {
			return "", err
		}
		sb.WriteString(part)
	}
	return sb.String(), nil
}

// IDs lists the template identifiers available in the set
func (s *Set) IDs() ([]string, error) {
	var ids []string
	err := fs.WalkDir(s.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, extension) {
			ids = append(ids, strings.TrimSuffix(path, extension))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Set) lookup(id string) (*template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tmpl, ok := s.cache[id]; ok {
		return tmpl, nil
	}

	if id == "" || !fs.ValidPath(id) {
		return nil, model.NewTemplateNotFoundError(id, nil)
	}

	src, err := fs.ReadFile(s.fsys, id+extension)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.NewTemplateNotFoundError(id, nil)
		}
		return nil, model.NewTemplateNotFoundError(id, err)
	}

	tmpl, err := template.New(id).Funcs(Funcs()).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", id, err)
	}

	s.cache[id] = tmpl
	return tmpl, nil
}

// Fielder is implemented by user contexts that are not plain maps
type Fielder interface {
	Field(key string) string
}

// Funcs returns the functions available to templates
func Funcs() template.FuncMap {
	return template.FuncMap{
		"field": Field,
		"money": money.Display,
		"upper": strings.ToUpper,
		"pad":   Pad,
	}
}

// Field looks key up in a map or Fielder, returning "" when absent
func Field(v any, key string) string {
	switch m := v.(type) {
	case nil:
		return ""
	case Fielder:
		return m.Field(key)
	case *model.Invoice:
		s, _ := m.String(key)
		return s
	case map[string]any:
		if x, ok := m[key]; ok && x != nil {
			return strings.TrimSpace(fmt.Sprint(x))
		}
	case map[string]string:
		return m[key]
	}
	return ""
}

// Pad left-pads s with zeros to width
func Pad(width int, s string) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// Data is what header, body and footer templates are executed against
type Data struct {
	Bill         map[string]any
	User         any
	LineItems    []LineItemView
	Totals       model.Totals
	Barcode      string
	BarcodeImage template.URL
	CopyLabel    string
	BillName     string
	BillType     string
	SalePoint    string
}

// LineItemView is a line item with its computed amounts
type LineItemView struct {
	Name             string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	UnitPriceWithTax decimal.Decimal
	TaxRate          decimal.Decimal
	LineTotal        decimal.Decimal
	TaxAmount        decimal.Decimal
	TotalWithTax     decimal.Decimal
}

// NewLineItemView computes the amounts of li
func NewLineItemView(li model.LineItem) LineItemView {
	rate := li.EffectiveTaxRate()
	return LineItemView{
		Name:             li.Name,
		Quantity:         li.Quantity,
		UnitPrice:        li.UnitPrice,
		UnitPriceWithTax: li.UnitPrice.Add(money.Percent(li.UnitPrice, rate)),
		TaxRate:          rate,
		LineTotal:        li.LineTotal(),
		TaxAmount:        li.TaxAmount(),
		TotalWithTax:     li.TotalWithTax(),
	}
}
