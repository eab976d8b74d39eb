package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Academic warning reports",
		Columns: []Column{{Header: "STT", Width: 5}, {Header: "Student name", Width: 25}, {Header: "Note"}},
		Rows: [][]string{
			{"1", "Nguyễn Văn An", "absent, late"},
			{"2", "Trần Bình", strings.Repeat("long note ", 30)},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	body, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(body, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(body[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"STT", "Student name", "Note"}, records[0])
	assert.Equal(t, "Nguyễn Văn An", records[1][1])
	assert.Equal(t, "absent, late", records[1][2])
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"3"})
	_, err := NewCSVExporter().Render(data)
	require.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	body, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{Title: "empty"})
	require.Error(t, err)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths([]Column{{Width: 1}, {Width: 3}, {}})
	require.Len(t, widths, 3)
	assert.InDelta(t, pdfUsableWidth, widths[0]+widths[1]+widths[2], 0.001)
	assert.InDelta(t, widths[0], widths[2], 0.001)
}

func TestFitTruncates(t *testing.T) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 8)
	assert.Equal(t, "ok", fit(pdf, "ok", 50))
	got := fit(pdf, strings.Repeat("w", 200), 20)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, pdf.GetStringWidth(got), 18.0)
}
