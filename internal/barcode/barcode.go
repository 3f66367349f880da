// Package barcode builds the numeric payload printed as an interleaved
// 2-of-5 barcode at the foot of AFIP bills, and renders its bars.
package barcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	bc "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/twooffive"

	"github.com/rezonia/afip-bill/internal/checkdigit"
	"github.com/rezonia/afip-bill/internal/model"
)

// Fields are the payload sources in the order they are concatenated
type Fields struct {
	CUIT         string
	DocumentType string
	SalePoint    string
	CAE          string
	CAEDueDate   string
}

// FieldsFromInvoice collects the payload sources of inv. A missing source
// field yields a missing field error naming the bill key.
func FieldsFromInvoice(inv *model.Invoice, salePoint string) (Fields, error) {
	var f Fields
	var err error

	if f.CUIT, err = inv.Require(model.FieldDocNumber); err != nil {
		return Fields{}, err
	}
	if f.DocumentType, err = inv.Require(model.FieldDocumentType); err != nil {
		return Fields{}, err
	}
	if f.CAE, err = inv.Require(model.FieldCAE); err != nil {
		return Fields{}, err
	}
	if f.CAEDueDate, err = inv.Require(model.FieldCAEDueDate); err != nil {
		return Fields{}, err
	}
	f.SalePoint = salePoint
	return f, nil
}

// Payload is an even-length digit string ending in its check digit
type Payload struct {
	code  string
	check byte
}

// Build concatenates fields, appends the check digit and left-pads the
// result with "0" to an even length.
func Build(f Fields) (*Payload, error) {
	parts := []struct {
		name  string
		value string
	}{
		{model.FieldDocNumber, strings.TrimSpace(strings.ReplaceAll(f.CUIT, "-", ""))},
		{model.FieldDocumentType, strings.TrimSpace(f.DocumentType)},
		{"sale_point", strings.TrimSpace(f.SalePoint)},
		{model.FieldCAE, strings.TrimSpace(f.CAE)},
		{model.FieldCAEDueDate, strings.TrimSpace(f.CAEDueDate)},
	}

	var sb strings.Builder
	for _, p := range parts {
		if p.value == "" {
			return nil, model.NewMissingFieldError(p.name)
		}
		sb.WriteString(p.value)
	}

	digits := sb.String()
	check, err := checkdigit.Calculate(digits)
	if err != nil {
		return nil, fmt.Errorf("barcode payload %q: %w", digits, err)
	}

	code := digits + string(check)
	if len(code)%2 == 1 {
		code = "0" + code
	}
	return &Payload{code: code, check: check}, nil
}

// String returns the full payload
func (p *Payload) String() string {
	return p.code
}

// CheckDigit returns the trailing check digit
func (p *Payload) CheckDigit() byte {
	return p.check
}

// Len returns the payload length, always even
func (p *Payload) Len() int {
	return len(p.code)
}

// PNG renders the bars with each module moduleWidth pixels wide
func (p *Payload) PNG(moduleWidth, height int) ([]byte, error) {
	if moduleWidth < 1 || height < 1 {
		return nil, fmt.Errorf("invalid barcode size %dx%d", moduleWidth, height)
	}

	code, err := twooffive.Encode(p.code, true)
	if err != nil {
		return nil, fmt.Errorf("encode interleaved 2 of 5: %w", err)
	}

	scaled, err := bc.Scale(code, code.Bounds().Dx()*moduleWidth, height)
	if err != nil {
		return nil, fmt.Errorf("scale barcode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI renders the bars as a base64 PNG data URI for embedding in markup
func (p *Payload) DataURI(moduleWidth, height int) (string, error) {
	img, err := p.PNG(moduleWidth, height)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img), nil
}
