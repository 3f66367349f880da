package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Bill field keys consumed by logic. Every other key is display-only.
const (
	FieldDocumentType  = "cbte_tipo"
	FieldDocNumber     = "doc_num"
	FieldCAE           = "cae"
	FieldCAEDueDate    = "fch_vto_pago"
	FieldSaleCondition = "cond_venta"
)

// Defaults are merged under every parsed bill
var Defaults = map[string]any{
	FieldSaleCondition: "Otra",
}

// Invoice holds the named fields of an AFIP bill as parsed from its JSON
// description. It is immutable after construction.
type Invoice struct {
	fields map[string]any
}

// ParseInvoice parses a JSON object into an Invoice. Numbers keep their
// literal text so identifiers such as CAE are never reformatted.
func ParseInvoice(data []byte) (*Invoice, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, NewMalformedInputError("bill data is not a JSON object", err)
	}
	if fields == nil {
		return nil, NewMalformedInputError("bill data is empty", nil)
	}
	if dec.More() {
		return nil, NewMalformedInputError("trailing data after bill object", nil)
	}

	return NewInvoice(fields), nil
}

// NewInvoice builds an Invoice from already decoded fields
func NewInvoice(fields map[string]any) *Invoice {
	merged := make(map[string]any, len(fields)+len(Defaults))
	for k, v := range Defaults {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Invoice{fields: merged}
}

// String returns the field as text, trimmed. ok is false when the field is
// absent, null or blank.
func (inv *Invoice) String(key string) (string, bool) {
	v, ok := inv.fields[key]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return "", false
	}
	return s, true
}

// Require returns the field as text or a missing field error
func (inv *Invoice) Require(key string) (string, error) {
	s, ok := inv.String(key)
	if !ok {
		return "", NewMissingFieldError(key)
	}
	return s, nil
}

// Get returns the raw field value
func (inv *Invoice) Get(key string) (any, bool) {
	v, ok := inv.fields[key]
	return v, ok
}

// DocumentType returns the cbte_tipo code
func (inv *Invoice) DocumentType() string {
	s, _ := inv.String(FieldDocumentType)
	return s
}

// Fields returns a copy of all fields
func (inv *Invoice) Fields() map[string]any {
	out := make(map[string]any, len(inv.fields))
	for k, v := range inv.fields {
		out[k] = v
	}
	return out
}

// Keys returns the field names in sorted order
func (inv *Invoice) Keys() []string {
	keys := make([]string, 0, len(inv.fields))
	for k := range inv.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
