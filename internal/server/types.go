package server

import (
	"encoding/json"
	"time"

	"github.com/rezonia/afip-bill/internal/model"
	"github.com/rezonia/afip-bill/internal/registry"
)

// RenderRequest is the body of the barcode and render endpoints
type RenderRequest struct {
	Bill      json.RawMessage  `json:"bill"`
	User      map[string]any   `json:"user,omitempty"`
	LineItems []model.LineItem `json:"line_items,omitempty"`
	CopyLabel string           `json:"copy_label,omitempty"`
	SalePoint string           `json:"sale_point,omitempty"`
	Copies    []string         `json:"copies,omitempty"`
}

// BarcodeResponse is the response for barcode endpoint
type BarcodeResponse struct {
	Barcode    string `json:"barcode"`
	CheckDigit string `json:"check_digit"`
	Length     int    `json:"length"`
	Image      string `json:"image,omitempty"`
}

// DocumentTypesResponse is the response for document-types endpoint
type DocumentTypesResponse struct {
	Count         int                     `json:"count"`
	DocumentTypes []registry.DocumentType `json:"document_types"`
}

// HealthResponse is the response for health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Time      time.Time `json:"time"`
	Backend   string    `json:"backend"`
	Templates int       `json:"templates"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
