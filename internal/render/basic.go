package render

import (
	"bytes"
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/rezonia/afip-bill/internal/model"
)

// Basic renders a simplified version of the markup with gofpdf. Only text,
// line breaks and bold/italic/underline survive; layout and images are
// dropped. It needs no external process.
type Basic struct {
	baseFontSize float64
}

// NewBasic creates the basic backend
func NewBasic() *Basic {
	return &Basic{baseFontSize: 6}
}

// Name returns the backend name
func (b *Basic) Name() string {
	return BackendBasic
}

// Render lays out the markup text on A4 pages
func (b *Basic) Render(ctx context.Context, markup string, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewRenderError(b.Name(), "cancelled", err)
	}

	margins := make([]float64, 4)
	for i, s := range []string{opts.MarginLeft, opts.MarginTop, opts.MarginRight, opts.MarginBottom} {
		v, err := ParseLength(s)
		if err != nil {
			return nil, model.NewRenderError(b.Name(), "invalid margin", err)
		}
		margins[i] = v
	}

	zoom := opts.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	pageSize := opts.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}
	fontSize := b.baseFontSize * zoom
	lineHeight := fontSize / 72 * 1.3

	pdf := gofpdf.New("P", "in", pageSize, "")
	pdf.SetMargins(margins[0], margins[1], margins[2])
	pdf.SetAutoPageBreak(true, margins[3])
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title := extractTitle(markup); title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator("afip-bill", false)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", fontSize)
	htmlWriter := pdf.HTMLBasicNew()
	htmlWriter.Write(lineHeight, tr(Simplify(markup)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, model.NewRenderError(b.Name(), "pdf output failed", err)
	}
	return buf.Bytes(), nil
}

var (
	dropBlocks  = regexp.MustCompile(`(?is)<(head|style|script)\b.*?</(head|style|script)>`)
	lineBreaks  = regexp.MustCompile(`(?i)<br\s*/?>|</(div|p|tr|table|h[1-6]|li)>`)
	cellBreaks  = regexp.MustCompile(`(?i)</t[dh]>`)
	keptTags    = regexp.MustCompile(`(?i)^</?(b|i|u)>$`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)
	spaces      = regexp.MustCompile(`[ \t\r\n]+`)
	breakSpaces = regexp.MustCompile(`\s*<br>\s*`)
	extraBreaks = regexp.MustCompile(`(<br>){3,}`)
	titleTag    = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
)

// Simplify reduces markup to the subset gofpdf's HTML writer understands:
// text, <br> and <b>/<i>/<u>.
func Simplify(markup string) string {
	s := dropBlocks.ReplaceAllString(markup, "")
	s = lineBreaks.ReplaceAllString(s, "\x00")
	s = cellBreaks.ReplaceAllString(s, "  ")
	s = anyTag.ReplaceAllStringFunc(s, func(tag string) string {
		if keptTags.MatchString(tag) {
			return strings.ToLower(tag)
		}
		return " "
	})
	// Escaped angle brackets must not turn into tags for the HTML writer.
	s = strings.NewReplacer("&lt;", "‹", "&gt;", "›").Replace(s)
	s = html.UnescapeString(s)
	s = spaces.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\x00", "<br>")
	s = breakSpaces.ReplaceAllString(s, "<br>")
	s = extraBreaks.ReplaceAllString(s, "<br><br>")
	s = strings.TrimPrefix(s, "<br>")
	return strings.TrimSpace(s)
}

func extractTitle(markup string) string {
	m := titleTag.FindStringSubmatch(markup)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}
