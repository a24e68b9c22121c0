package report

import (
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Table is a titled grid rendered to PDF. Widths are in millimetres and
// must line up with Headers.
type Table struct {
	Title   string
	Headers []string
	Widths  []float64
	Rows    [][]string
}

const (
	rowHeight    = 7
	headerHeight = 8
	cellPadding  = 2
	bottomMargin = 15
)

// WritePDF renders t on A4 pages. The title and generation time appear on
// the first page; column headers repeat on every page.
func WritePDF(w io.Writer, t Table, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(t.Title, true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetAutoPageBreak(false, bottomMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			pdf.SetFont("Helvetica", "B", 18)
			pdf.SetTextColor(0, 128, 102)
			pdf.CellFormat(0, 12, tr(t.Title), "", 1, "C", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetTextColor(90, 90, 90)
			pdf.CellFormat(0, 6, "Report generated: "+generatedAt.Format("2006-01-02 15:04 MST"), "", 1, "R", false, 0, "")
			pdf.Ln(4)
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(0, 128, 102)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range t.Headers {
			pdf.CellFormat(t.Widths[i], headerHeight, fit(pdf, tr, h, t.Widths[i]), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	})

	body := func() {
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFillColor(240, 245, 244)
	}
	pdf.AddPage()
	body()
	_, pageHeight := pdf.GetPageSize()
	for n, row := range t.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottomMargin {
			pdf.AddPage()
			body()
		}
		for i, cell := range row {
			pdf.CellFormat(t.Widths[i], rowHeight, fit(pdf, tr, cell, t.Widths[i]), "1", 0, "L", n%2 == 1, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

// fit truncates s with an ellipsis so it fits a cell of width w and returns
// it translated for the core fonts. Truncation runs on the UTF-8 text so a
// multi-byte character is never split.
func fit(pdf *fpdf.Fpdf, tr func(string) string, s string, w float64) string {
	limit := w - cellPadding
	if pdf.GetStringWidth(tr(s)) <= limit {
		return tr(s)
	}
	const ellipsis = "..."
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(tr(string(r)+ellipsis)) > limit {
		r = r[:len(r)-1]
	}
	return tr(strings.TrimSpace(string(r)) + ellipsis)
}
