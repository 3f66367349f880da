package afipbill_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/afip-bill/internal/model"
	"github.com/rezonia/afip-bill/internal/registry"
	"github.com/rezonia/afip-bill/internal/render"
	"github.com/rezonia/afip-bill/pkg/afipbill"
)

const sampleBill = `{
	"cbte_tipo": "01",
	"doc_num": "20-12345678-9",
	"cae": "12345678901234",
	"fch_vto_pago": "20240101",
	"cbte_desde": 42,
	"nombre_cliente": "Cliente SA"
}`

// recordingBackend captures the markup it receives
type recordingBackend struct {
	calls   []string
	failErr error
}

func (r *recordingBackend) Name() string { return "recording" }

func (r *recordingBackend) Render(_ context.Context, markup string, _ render.Options) ([]byte, error) {
	r.calls = append(r.calls, markup)
	if r.failErr != nil {
		return nil, r.failErr
	}
	return []byte("%PDF-1.4 fake"), nil
}

func sampleItems() []model.LineItem {
	return []model.LineItem{
		model.NewLineItem("Servicio de consultoría", decimal.NewFromInt(2), decimal.RequireFromString("100.50")),
		model.NewLineItem("Licencia", decimal.NewFromInt(1), decimal.NewFromInt(1000)).
			WithTaxRate(decimal.RequireFromString("10.5")),
	}
}

func newSample(t *testing.T, opts ...afipbill.Option) *afipbill.Generator {
	t.Helper()
	opts = append([]afipbill.Option{afipbill.WithSalePoint("0001")}, opts...)
	g, err := afipbill.New([]byte(sampleBill), map[string]any{"razon_social": "Empresa SRL"}, sampleItems(), opts...)
	require.NoError(t, err)
	return g
}

func TestNew_ResolvesDocumentType(t *testing.T) {
	g := newSample(t)

	assert.Equal(t, "Factura", g.BillName())
	assert.Equal(t, "a", g.BillType())
	assert.Equal(t, "01", g.DocumentType().Code)
	assert.Equal(t, afipbill.CopyOriginal, g.CopyLabel())
	assert.Equal(t, "0001", g.SalePoint())
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		bill string
		want error
	}{
		{"malformed json", `{"cbte_tipo":`, afipbill.ErrMalformedInput},
		{"not an object", `[1,2]`, afipbill.ErrMalformedInput},
		{"unknown code", `{"cbte_tipo":"99"}`, afipbill.ErrUnknownDocumentType},
		{"missing code", `{"cae":"1"}`, afipbill.ErrUnknownDocumentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := afipbill.New([]byte(tt.bill), nil, nil)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_WithRegistry(t *testing.T) {
	notes, err := registry.ForLayout("notes")
	require.NoError(t, err)

	g, err := afipbill.New([]byte(`{"cbte_tipo":"08"}`), nil, nil, afipbill.WithRegistry(notes))
	require.NoError(t, err)
	assert.Equal(t, "notes/nota_b", g.DocumentType().TemplateID())
	assert.Equal(t, "b", g.BillType())
}

func TestNewFromFields(t *testing.T) {
	g, err := afipbill.NewFromFields(map[string]any{"cbte_tipo": "06"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", g.BillType())

	v, ok := g.Invoice().String(model.FieldSaleCondition)
	assert.True(t, ok)
	assert.Equal(t, "Otra", v)
}

func TestGenerator_Barcode(t *testing.T) {
	g := newSample(t)

	p, err := g.Barcode()
	require.NoError(t, err)
	assert.Equal(t, "2012345678901000112345678901234202401014", p.String())

	again, err := g.Barcode()
	require.NoError(t, err)
	assert.Same(t, p, again)
}

func TestGenerator_BarcodeUsesConfiguredSalePoint(t *testing.T) {
	prev := afipbill.CurrentConfiguration()
	t.Cleanup(func() { afipbill.Configure(prev) })

	afipbill.Configure(afipbill.Configuration{SalePoint: "0002"})
	g, err := afipbill.New([]byte(sampleBill), nil, nil)
	require.NoError(t, err)

	p, err := g.Barcode()
	require.NoError(t, err)
	assert.Contains(t, p.String(), "20123456789010002")
}

func TestGenerator_BarcodeMissingField(t *testing.T) {
	g, err := afipbill.New([]byte(`{"cbte_tipo":"01","doc_num":"20123456789"}`), nil, nil,
		afipbill.WithSalePoint("0001"))
	require.NoError(t, err)

	_, err = g.Barcode()
	assert.ErrorIs(t, err, afipbill.ErrMissingField)

	// the failure is cached as well
	_, err2 := g.Barcode()
	assert.Equal(t, err, err2)

	_, err = g.RenderTemplate()
	assert.ErrorIs(t, err, afipbill.ErrMissingField)
}

func TestGenerator_LineItemsAndTotals(t *testing.T) {
	g := newSample(t)

	items := g.LineItems()
	require.Len(t, items, 2)
	items[0].Name = "changed"
	assert.Equal(t, "Servicio de consultoría", g.LineItems()[0].Name)

	totals := g.Totals()
	assert.True(t, decimal.RequireFromString("1201").Equal(totals.Net), totals.Net.String())
	assert.True(t, decimal.RequireFromString("147.21").Equal(totals.Tax), totals.Tax.String())
	assert.True(t, decimal.RequireFromString("1348.21").Equal(totals.Total), totals.Total.String())
}

func TestGenerator_DefaultTaxRateOption(t *testing.T) {
	g := newSample(t, afipbill.WithDefaultTaxRate(decimal.NewFromInt(27)))

	items := g.LineItems()
	assert.True(t, decimal.NewFromInt(27).Equal(items[0].EffectiveTaxRate()))
	assert.True(t, decimal.RequireFromString("10.5").Equal(items[1].EffectiveTaxRate()))
}

func TestGenerator_RenderTemplate(t *testing.T) {
	g := newSample(t)

	markup, err := g.RenderTemplate()
	require.NoError(t, err)

	assert.Contains(t, markup, "Factura")
	assert.Contains(t, markup, "ORIGINAL")
	assert.Contains(t, markup, "Cliente SA")
	assert.Contains(t, markup, "Empresa SRL")
	assert.Contains(t, markup, "00000042")
	assert.Contains(t, markup, "Servicio de consultoría")
	assert.Contains(t, markup, "2012345678901000112345678901234202401014")
	assert.Contains(t, markup, "data:image/png;base64,")
	assert.Contains(t, markup, "1348.21")
}

func TestGenerator_RenderTemplateDeterministic(t *testing.T) {
	first, err := newSample(t).RenderTemplate()
	require.NoError(t, err)
	second, err := newSample(t).RenderTemplate()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerator_RenderTemplateWithoutImage(t *testing.T) {
	g := newSample(t, afipbill.WithBarcodeImage(false), afipbill.WithCopyLabel(afipbill.CopyDuplicate))

	markup, err := g.RenderTemplate()
	require.NoError(t, err)
	assert.NotContains(t, markup, "data:image/png")
	assert.Contains(t, markup, "DUPLICADO")
}

func TestGenerator_GeneratePDF(t *testing.T) {
	g := newSample(t, afipbill.WithBackend(render.NewBasic()))

	data, err := g.GeneratePDF(context.Background())
	require.NoError(t, err)
	assert.True(t, render.IsPDF(data))

	info, err := render.Inspect(data)
	require.NoError(t, err)
	assert.True(t, info.Valid)
	assert.GreaterOrEqual(t, info.Pages, 1)
}

func TestGenerator_GeneratePDFPassesMarkup(t *testing.T) {
	backend := &recordingBackend{}
	g := newSample(t, afipbill.WithBackend(backend))

	_, err := g.GeneratePDF(context.Background())
	require.NoError(t, err)

	markup, err := g.RenderTemplate()
	require.NoError(t, err)
	require.Len(t, backend.calls, 1)
	assert.Equal(t, markup, backend.calls[0])
}

func TestGenerator_GeneratePDFWrapsBackendError(t *testing.T) {
	backend := &recordingBackend{failErr: errors.New("boom")}
	g := newSample(t, afipbill.WithBackend(backend))

	_, err := g.GeneratePDF(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, afipbill.ErrRender)
	assert.Contains(t, err.Error(), "boom")
}

func TestGenerator_GeneratePDFFile(t *testing.T) {
	g := newSample(t, afipbill.WithBackend(render.NewBasic()))

	path, err := g.GeneratePDFFile(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	assert.True(t, strings.HasSuffix(path, ".pdf"))
	assert.Contains(t, path, "afip_bill-")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, render.IsPDF(data))
}

func TestGenerator_GenerateCopies(t *testing.T) {
	backend := &recordingBackend{}
	g := newSample(t, afipbill.WithBackend(backend))

	// merging fake documents fails, but every copy is rendered first
	_, err := g.GenerateCopies(context.Background())
	assert.ErrorIs(t, err, afipbill.ErrRender)
	require.Len(t, backend.calls, 3)
	assert.Contains(t, backend.calls[0], afipbill.CopyOriginal)
	assert.Contains(t, backend.calls[1], afipbill.CopyDuplicate)
	assert.Contains(t, backend.calls[2], afipbill.CopyTriplicate)
}

func TestGenerator_GenerateCopiesMerged(t *testing.T) {
	g := newSample(t, afipbill.WithBackend(render.NewBasic()))

	data, err := g.GenerateCopies(context.Background(), afipbill.CopyOriginal, afipbill.CopyDuplicate)
	require.NoError(t, err)

	info, err := render.Inspect(data)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.Pages, 2)
}

func TestGenerator_RenderTemplateMissingTemplate(t *testing.T) {
	reg := registry.MustNew([]registry.DocumentType{
		{Code: "01", Directory: "bills", Template: "factura_x", DisplayName: "factura", TaxCategory: "a"},
	})
	g := newSample(t, afipbill.WithRegistry(reg))

	_, err := g.RenderTemplate()
	assert.ErrorIs(t, err, afipbill.ErrTemplateNotFound)

	_, err = g.GeneratePDF(context.Background())
	assert.ErrorIs(t, err, afipbill.ErrTemplateNotFound)
}

func TestGenerator_DefaultBackendRequiresWKHTMLToPDF(t *testing.T) {
	if render.NewWKHTMLToPDF("").IsAvailable() {
		t.Skip("wkhtmltopdf is installed")
	}
	g := newSample(t)

	data, err := g.GeneratePDF(context.Background())
	assert.Nil(t, data)
	assert.ErrorIs(t, err, afipbill.ErrRender)

	path, err := g.GeneratePDFFile(context.Background())
	assert.Empty(t, path)
	assert.ErrorIs(t, err, afipbill.ErrRender)
}
