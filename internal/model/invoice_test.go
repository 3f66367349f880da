package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/afip-bill/internal/model"
)

const sampleBill = `{
	"cbte_tipo": "01",
	"doc_num": "20-12345678-9",
	"cae": 12345678901234,
	"fch_vto_pago": "20240101",
	"imp_total": 1210.5,
	"nombre_cliente": "Cliente SA"
}`

func TestParseInvoice(t *testing.T) {
	inv, err := model.ParseInvoice([]byte(sampleBill))
	require.NoError(t, err)

	assert.Equal(t, "01", inv.DocumentType())

	cae, ok := inv.String(model.FieldCAE)
	require.True(t, ok)
	assert.Equal(t, "12345678901234", cae, "numbers keep their literal text")

	total, ok := inv.String("imp_total")
	require.True(t, ok)
	assert.Equal(t, "1210.5", total)
}

func TestParseInvoice_Defaults(t *testing.T) {
	inv, err := model.ParseInvoice([]byte(sampleBill))
	require.NoError(t, err)

	cond, ok := inv.String(model.FieldSaleCondition)
	require.True(t, ok)
	assert.Equal(t, "Otra", cond)

	inv, err = model.ParseInvoice([]byte(`{"cbte_tipo":"01","cond_venta":"Contado"}`))
	require.NoError(t, err)
	cond, _ = inv.String(model.FieldSaleCondition)
	assert.Equal(t, "Contado", cond)
}

func TestParseInvoice_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"not json",
		"[1, 2]",
		"null",
		`{"cbte_tipo": "01"`,
		`{"cbte_tipo": "01"} {"x": 1}`,
	}

	for _, in := range inputs {
		_, err := model.ParseInvoice([]byte(in))
		require.Error(t, err, in)
		assert.ErrorIs(t, err, model.ErrMalformedInput, in)
	}
}

func TestInvoice_Require(t *testing.T) {
	inv := model.NewInvoice(map[string]any{
		"cae":   "  ",
		"other": nil,
		"ok":    "value",
	})

	_, err := inv.Require("cae")
	assert.ErrorIs(t, err, model.ErrMissingField)

	_, err = inv.Require("other")
	assert.ErrorIs(t, err, model.ErrMissingField)

	_, err = inv.Require("absent")
	assert.ErrorIs(t, err, model.ErrMissingField)
	assert.Contains(t, err.Error(), "absent")

	v, err := inv.Require("ok")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestInvoice_Immutable(t *testing.T) {
	source := map[string]any{"cbte_tipo": "01"}
	inv := model.NewInvoice(source)

	source["cbte_tipo"] = "06"
	assert.Equal(t, "01", inv.DocumentType())

	fields := inv.Fields()
	fields["cbte_tipo"] = "11"
	assert.Equal(t, "01", inv.DocumentType())
}

func TestInvoice_Keys(t *testing.T) {
	inv := model.NewInvoice(map[string]any{"b": 1, "a": 2})
	assert.Equal(t, []string{"a", "b", "cond_venta"}, inv.Keys())
}

func TestLineItem_Calculate(t *testing.T) {
	item := model.NewLineItem("Producto A", decimal.NewFromInt(3), decimal.RequireFromString("100.50"))

	assert.True(t, item.LineTotal().Equal(decimal.RequireFromString("301.5")))
	// Default 21%
	assert.True(t, item.TaxAmount().Equal(decimal.RequireFromString("63.315")),
		"got %s", item.TaxAmount().String())
	assert.True(t, item.TotalWithTax().Equal(decimal.RequireFromString("364.815")))
}

func TestLineItem_Properties(t *testing.T) {
	tests := []struct {
		q, p, r string
	}{
		{"1", "1", "21"},
		{"2.5", "10.10", "10.5"},
		{"0", "999", "27"},
		{"7", "0.33", "0"},
		{"1000", "1234.56", "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.q+"x"+tt.p+"@"+tt.r, func(t *testing.T) {
			q := decimal.RequireFromString(tt.q)
			p := decimal.RequireFromString(tt.p)
			r := decimal.RequireFromString(tt.r)
			item := model.NewLineItem("x", q, p).WithTaxRate(r)

			assert.True(t, item.LineTotal().Equal(q.Mul(p)))
			assert.True(t, item.TaxAmount().Equal(q.Mul(p).Mul(r).Div(decimal.NewFromInt(100))))
			assert.True(t, item.TotalWithTax().Equal(item.LineTotal().Add(item.TaxAmount())))
		})
	}
}

func TestLineItem_WithDefaultRate(t *testing.T) {
	ten := decimal.NewFromInt(10)
	item := model.NewLineItem("x", decimal.NewFromInt(1), decimal.NewFromInt(100))

	withDefault := item.WithDefaultRate(ten)
	assert.True(t, withDefault.TaxAmount().Equal(ten))
	assert.Nil(t, item.TaxRate, "original is not mutated")

	explicit := item.WithTaxRate(decimal.NewFromInt(27)).WithDefaultRate(ten)
	assert.True(t, explicit.EffectiveTaxRate().Equal(decimal.NewFromInt(27)))
}

func TestCalculateTotals(t *testing.T) {
	items := []model.LineItem{
		model.NewLineItem("A", decimal.NewFromInt(2), decimal.NewFromInt(100)),
		model.NewLineItem("B", decimal.NewFromInt(1), decimal.NewFromInt(50)).WithTaxRate(decimal.RequireFromString("10.5")),
	}

	totals := model.CalculateTotals(items)
	assert.True(t, totals.Net.Equal(decimal.NewFromInt(250)))
	assert.True(t, totals.Tax.Equal(decimal.RequireFromString("47.25")))
	assert.True(t, totals.Total.Equal(decimal.RequireFromString("297.25")))

	empty := model.CalculateTotals(nil)
	assert.True(t, empty.Total.IsZero())
}

func TestBillError(t *testing.T) {
	err := model.NewMissingFieldError("cae")

	require.Contains(t, err.Error(), "MISSING_FIELD")
	require.Contains(t, err.Error(), "cae")
	assert.ErrorIs(t, err, model.ErrMissingField)
	assert.NotErrorIs(t, err, model.ErrRender)
	assert.Equal(t, model.ErrCodeMissingField, model.Code(err))
}

func TestBillError_WithCause(t *testing.T) {
	cause := assert.AnError
	err := model.NewRenderError("wkhtmltopdf", "process failed", cause)

	require.Contains(t, err.Error(), "wkhtmltopdf")
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, model.ErrRender)
	assert.Equal(t, "", model.Code(assert.AnError))
}
