package pdf

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"dealdesk/internal/models"
)

// PipelineReport is everything printed on the pipeline export.
type PipelineReport struct {
	GeneratedAt    time.Time
	Funnel         []models.FunnelRow
	WinRate        models.WinRate
	Forecast       []models.ForecastRow
	ActivityCounts []models.ActivityCount
	// StageNames maps stage ids to display names; unknown ids print as-is.
	StageNames map[string]string
}

const fontName = "Helvetica"

type writer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

// WritePipelineReport renders report as a single A4 document into w.
func WritePipelineReport(w io.Writer, report PipelineReport) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Pipeline report", false)
	pdf.SetAuthor("dealdesk", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	g := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 18)
	pdf.CellFormat(0, 10, "Pipeline report", "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 7, "Generated "+report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	g.hr()

	g.sectionTitle("Win rate")
	g.kvLine("Won", strconv.FormatInt(report.WinRate.Won, 10))
	g.kvLine("Total", strconv.FormatInt(report.WinRate.Total, 10))
	g.kvLine("Win rate", fmt.Sprintf("%.1f%%", report.WinRate.WinRate*100))
	g.hr()

	g.sectionTitle("Open deals by stage")
	rows := make([][]string, 0, len(report.Funnel))
	for _, f := range report.Funnel {
		name := f.StageID
		if n, ok := report.StageNames[f.StageID]; ok {
			name = n
		}
		rows = append(rows, []string{name, strconv.FormatInt(f.Count, 10), money(f.TotalValue)})
	}
	g.table([]string{"Stage", "Deals", "Value"}, []float64{90, 30, 50}, rows)
	g.hr()

	g.sectionTitle("Forecast by expected close month")
	rows = rows[:0]
	for _, f := range report.Forecast {
		rows = append(rows, []string{f.Month, money(f.ForecastValue)})
	}
	g.table([]string{"Month", "Value"}, []float64{90, 80}, rows)
	g.hr()

	g.sectionTitle("Activities by owner")
	rows = rows[:0]
	for _, a := range report.ActivityCounts {
		rows = append(rows, []string{a.OwnerID, strconv.FormatInt(a.Count, 10)})
	}
	g.table([]string{"Owner", "Activities"}, []float64{120, 50}, rows)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pipeline report: %w", err)
	}
	return nil
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func (g *writer) sectionTitle(s string) {
	g.pdf.SetFont(fontName, "B", 12)
	g.pdf.CellFormat(0, 7, g.tr(s), "", 1, "L", false, 0, "")
	g.pdf.SetFont(fontName, "", 11)
}

func (g *writer) kvLine(key, val string) {
	g.pdf.SetFont(fontName, "B", 11)
	g.pdf.CellFormat(45, 6, g.tr(key)+":", "", 0, "L", false, 0, "")
	g.pdf.SetFont(fontName, "", 11)
	g.pdf.CellFormat(0, 6, g.tr(val), "", 1, "L", false, 0, "")
}

func (g *writer) table(header []string, widths []float64, rows [][]string) {
	g.pdf.SetFont(fontName, "B", 10)
	for i, h := range header {
		g.pdf.CellFormat(widths[i], 7, g.tr(h), "1", 0, "L", false, 0, "")
	}
	g.pdf.Ln(-1)
	g.pdf.SetFont(fontName, "", 10)
	if len(rows) == 0 {
		g.pdf.CellFormat(0, 7, "No data", "", 1, "L", false, 0, "")
		return
	}
	for _, row := range rows {
		for i, cell := range row {
			align := "L"
			if i > 0 {
				align = "R"
			}
			g.pdf.CellFormat(widths[i], 6, g.tr(cell), "1", 0, align, false, 0, "")
		}
		g.pdf.Ln(-1)
	}
}

func (g *writer) hr() {
	y := g.pdf.GetY() + 1.5
	g.pdf.SetLineWidth(0.2)
	g.pdf.Line(20, y, 190, y)
	g.pdf.SetY(y + 2)
}
