// Package report compiles a patient record into the clinic's printable
// prontuário: a sectioned, paginated A4 PDF.
package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/odontocare/prontuario/pkg/models"
)

// Layout constants in millimeters on an A4 page. The three page-break
// thresholds are tuned so the procedure-history title always fits on the
// same page as at least one procedure table; they are fixed values, not
// derived from text metrics, and pagination depends on them exactly.
const (
	marginX      = 14.0
	contentTop   = 20.0 // cursor reset after a page break
	headerTitleY = 15.0
	headerRegY   = 24.0
	headerDocY   = 32.0
	firstBlockY  = 45.0

	sectionBreakAt   = 270.0 // after an ordinary section
	historyBreakAt   = 200.0 // before the procedure-history title
	procedureBreakAt = 250.0 // between procedure tables

	titleH = 7.0
	rowH   = 6.0
	labelW = 60.0
	valueW = 182.0 - labelW // content width is 210 - 2*marginX
)

const (
	historyTitle  = "Histórico de Procedimentos"
	emptyHistory  = "Nenhum procedimento registrado."
	principalName = "Procedimento Principal"
	placeholder   = "-"
)

// Header carries the fixed lines printed at the top of the first page.
type Header struct {
	ClinicName   string
	Registration string
	Title        string
}

// Compiler builds prontuário documents. It is stateless between calls
// and safe for concurrent use.
type Compiler struct {
	header Header
}

// NewCompiler creates a compiler with the given document header.
func NewCompiler(h Header) *Compiler {
	if h.Title == "" {
		h.Title = "Prontuário Odontológico"
	}
	return &Compiler{header: h}
}

// Compile renders the record into PDF bytes. Malformed field values
// never fail compilation; they render as the placeholder.
func (c *Compiler) Compile(rec models.PatientRecord) ([]byte, error) {
	pdf := c.build(rec)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Compiler) build(rec models.PatientRecord) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	c.renderHeader(pdf, tr, rec)

	y := firstBlockY
	for _, s := range sectionData(rec) {
		y = renderTable(pdf, tr, s, y)
		if y > sectionBreakAt {
			pdf.AddPage()
			y = contentTop
		}
	}

	if y > historyBreakAt {
		pdf.AddPage()
		y = contentTop
	}
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(marginX, y)
	pdf.CellFormat(0, titleH, tr(historyTitle), "", 1, "L", false, 0, "")
	y += titleH + 2

	if len(rec.Procedures) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetXY(marginX, y)
		pdf.CellFormat(0, rowH, tr(emptyHistory), "", 1, "L", false, 0, "")
		return pdf
	}

	tables := procedureData(rec)
	for i, s := range tables {
		y = renderTable(pdf, tr, s, y)
		if y > procedureBreakAt && i < len(tables)-1 {
			pdf.AddPage()
			y = contentTop
		}
	}
	return pdf
}

func (c *Compiler) renderHeader(pdf *gofpdf.Fpdf, tr func(string) string, rec models.PatientRecord) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginX, headerTitleY)
	pdf.CellFormat(0, 8, tr(c.header.ClinicName), "", 1, "C", false, 0, "")

	reg := c.header.Registration
	if rec.ID != "" {
		if reg != "" {
			reg += " - "
		}
		reg += fmt.Sprintf("Registro nº %s", rec.ID)
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginX, headerRegY)
	pdf.CellFormat(0, 6, tr(reg), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(marginX, headerDocY)
	pdf.CellFormat(0, 7, tr(c.header.Title), "", 1, "C", false, 0, "")
	pdf.Line(marginX, headerDocY+9, 210-marginX, headerDocY+9)
}

// renderTable draws a titled two-column table starting at y and returns
// the cursor position below it.
func renderTable(pdf *gofpdf.Fpdf, tr func(string) string, s table, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginX, y)
	pdf.CellFormat(0, titleH, tr(s.title), "", 1, "L", false, 0, "")
	y += titleH

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range s.rows {
		pdf.SetXY(marginX, y)
		pdf.CellFormat(labelW, rowH, tr(r.label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, rowH, tr(r.value), "1", 1, "L", false, 0, "")
		y += rowH
	}
	return y + 3
}
