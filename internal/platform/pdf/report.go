package pdf

import (
	"io"

	"github.com/jung-kurt/gofpdf"
)

type Column struct {
	Header string
	Width  float64
	Align  string
}

// Report is a single titled table with optional key/value header lines and a
// footer line under the table.
type Report struct {
	Title   string
	Details [][2]string
	Columns []Column
	Rows    [][]string
	Footer  string
}

func Render(w io.Writer, report Report) error {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(report.Title, true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, report.Title)
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 11)
	for _, detail := range report.Details {
		doc.CellFormat(40, 7, detail[0]+":", "", 0, "L", false, 0, "")
		doc.CellFormat(0, 7, detail[1], "", 1, "L", false, 0, "")
	}
	if len(report.Details) > 0 {
		doc.Ln(4)
	}

	if len(report.Columns) > 0 {
		doc.SetFont("Helvetica", "B", 11)
		doc.SetFillColor(230, 230, 230)
		for _, col := range report.Columns {
			doc.CellFormat(col.Width, 8, col.Header, "1", 0, alignOf(col), true, 0, "")
		}
		doc.Ln(-1)

		doc.SetFont("Helvetica", "", 10)
		for _, row := range report.Rows {
			for i, col := range report.Columns {
				value := ""
				if i < len(row) {
					value = row[i]
				}
				doc.CellFormat(col.Width, 7, value, "1", 0, alignOf(col), false, 0, "")
			}
			doc.Ln(-1)
		}
	}

	if report.Footer != "" {
		doc.Ln(4)
		doc.SetFont("Helvetica", "B", 11)
		doc.Cell(0, 8, report.Footer)
	}

	if err := doc.Error(); err != nil {
		return err
	}
	return doc.Output(w)
}

func alignOf(col Column) string {
	if col.Align == "" {
		return "L"
	}
	return col.Align
}
