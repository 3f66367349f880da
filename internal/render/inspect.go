package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDF magic bytes
var pdfMagic = []byte("%PDF")

func init() {
	// Keep pdfcpu from creating a configuration directory in the user's home.
	model.ConfigPath = "disable"
}

// Info describes a rendered PDF
type Info struct {
	Size  int  `json:"size"`
	Pages int  `json:"pages"`
	Valid bool `json:"valid"`
}

// IsPDF reports whether data starts with the PDF header
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Inspect validates data with pdfcpu and counts its pages
func Inspect(data []byte) (*Info, error) {
	info := &Info{Size: len(data)}
	if !IsPDF(data) {
		return info, fmt.Errorf("not a PDF document")
	}

	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return info, fmt.Errorf("validate pdf: %w", err)
	}
	info.Valid = true

	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return info, fmt.Errorf("count pages: %w", err)
	}
	info.Pages = pages
	return info, nil
}

// Merge concatenates PDF documents in order
func Merge(docs [][]byte) ([]byte, error) {
	switch len(docs) {
	case 0:
		return nil, fmt.Errorf("nothing to merge")
	case 1:
		return docs[0], nil
	}

	readers := make([]io.ReadSeeker, 0, len(docs))
	for i, d := range docs {
		if !IsPDF(d) {
			return nil, fmt.Errorf("document %d is not a PDF", i)
		}
		readers = append(readers, bytes.NewReader(d))
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("merge pdf: %w", err)
	}
	return buf.Bytes(), nil
}
