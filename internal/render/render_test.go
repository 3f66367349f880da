package render_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rezonia/afip-bill/internal/model"
	"github.com/rezonia/afip-bill/internal/render"
)

const sampleMarkup = `<!DOCTYPE html>
<html><head><title>Factura A 0001-00000012</title><style>body { color: red; }</style></head>
<body>
<div class="copy">ORIGINAL</div>
<div><b>Razón social:</b> Empresa &lt;SA&gt;<br>
<b>CUIT:</b> 30-71234567-1</div>
<table><tr><td>Servicio</td><td>2</td><td>1000.00</td></tr></table>
<img src="data:image/png;base64,AAAA">
</body></html>`

func TestDefaultOptions(t *testing.T) {
	opts := render.DefaultOptions()
	assert.Equal(t, 1.65, opts.Zoom)
	assert.Equal(t, "0.05in", opts.MarginTop)
	assert.Equal(t, "0.05in", opts.MarginBottom)
	assert.Equal(t, "0.2in", opts.MarginLeft)
	assert.Equal(t, "0.2in", opts.MarginRight)
}

func TestArgs(t *testing.T) {
	args := render.Args(render.DefaultOptions())
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "--zoom 1.65")
	assert.Contains(t, joined, "--margin-top 0.05in")
	assert.Contains(t, joined, "--margin-bottom 0.05in")
	assert.Contains(t, joined, "--margin-left 0.2in")
	assert.Contains(t, joined, "--margin-right 0.2in")
	assert.Equal(t, []string{"-", "-"}, args[len(args)-2:])
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in       string
		expected float64
	}{
		{"0.2in", 0.2},
		{"25.4mm", 1},
		{"2.54cm", 1},
		{"0.5", 0.5},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := render.ParseLength(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, v, 1e-9)
		})
	}

	_, err := render.ParseLength("wide")
	require.Error(t, err)
	_, err = render.ParseLength("-1in")
	require.Error(t, err)
}

func TestSimplify(t *testing.T) {
	out := render.Simplify(sampleMarkup)

	assert.NotContains(t, out, "color: red")
	assert.NotContains(t, out, "Factura A 0001", "head is dropped")
	assert.NotContains(t, out, "<div")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "<b>Razón social:</b> Empresa ‹SA›")
	assert.Contains(t, out, "ORIGINAL<br>")
	assert.Contains(t, out, "Servicio")
	assert.NotContains(t, out, "<br><br><br>")
}

func TestWKHTMLToPDF_Unavailable(t *testing.T) {
	w := render.NewWKHTMLToPDF("/nonexistent/wkhtmltopdf")
	assert.False(t, w.IsAvailable())
	assert.Equal(t, render.BackendWKHTMLToPDF, w.Name())

	_, err := w.Render(context.Background(), sampleMarkup, render.DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRender)
}

func TestBasic_RenderAndInspect(t *testing.T) {
	b := render.NewBasic()

	data, err := b.Render(context.Background(), sampleMarkup, render.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, render.IsPDF(data))

	info, err := render.Inspect(data)
	require.NoError(t, err)
	assert.True(t, info.Valid)
	assert.Equal(t, 1, info.Pages)
	assert.Equal(t, len(data), info.Size)
}

func TestBasic_InvalidMargin(t *testing.T) {
	opts := render.DefaultOptions()
	opts.MarginLeft = "lots"

	_, err := render.NewBasic().Render(context.Background(), sampleMarkup, opts)
	assert.ErrorIs(t, err, model.ErrRender)
}

func TestBasic_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := render.NewBasic().Render(ctx, sampleMarkup, render.DefaultOptions())
	assert.ErrorIs(t, err, model.ErrRender)
}

func TestInspect_NotPDF(t *testing.T) {
	_, err := render.Inspect([]byte("<html></html>"))
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	b := render.NewBasic()
	first, err := b.Render(context.Background(), "<b>ORIGINAL</b>", render.DefaultOptions())
	require.NoError(t, err)
	second, err := b.Render(context.Background(), "<b>DUPLICADO</b>", render.DefaultOptions())
	require.NoError(t, err)

	merged, err := render.Merge([][]byte{first, second})
	require.NoError(t, err)

	info, err := render.Inspect(merged)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Pages)

	single, err := render.Merge([][]byte{first})
	require.NoError(t, err)
	assert.Equal(t, first, single)

	_, err = render.Merge(nil)
	require.Error(t, err)
	_, err = render.Merge([][]byte{first, []byte("nope")})
	require.Error(t, err)
}

func TestByName(t *testing.T) {
	b, err := render.ByName(render.Config{Name: "basic"})
	require.NoError(t, err)
	assert.Equal(t, render.BackendBasic, b.Name())

	b, err = render.ByName(render.Config{Name: "wkhtmltopdf", Path: "/nonexistent/wk", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, render.BackendWKHTMLToPDF, b.Name())

	b, err = render.ByName(render.Config{Name: "", Path: "/nonexistent/wk"})
	require.NoError(t, err)
	assert.Equal(t, render.BackendWKHTMLToPDF, b.Name(), "empty name never falls back")

	_, err = render.ByName(render.Config{Name: "chrome"})
	require.Error(t, err)
}

func TestByName_AutoFallbackIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	b, err := render.ByName(render.Config{Name: "auto", Path: "/nonexistent/wk", Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Equal(t, render.BackendBasic, b.Name())

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, render.BackendBasic, entries[0].ContextMap()["backend"])
	assert.Equal(t, "/nonexistent/wk", entries[0].ContextMap()["path"])
}
