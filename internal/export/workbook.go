// Package export renders a project's designs and insights as an XLSX
// workbook with two sheets: Designs (one row per submission) and Insights
// (the aggregated snapshot).
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"streetplan/internal/insights"
	"streetplan/internal/types"
)

const (
	SheetDesigns  = "Designs"
	SheetInsights = "Insights"

	// ContentType is the media type of the rendered workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var metricColumns = []string{
	"parkingPressure", "livability", "biodiversity", "safety", "heatStress", "accessibility",
}

func metricValues(m types.Metrics) []any {
	return []any{m.ParkingPressure, m.Livability, m.Biodiversity, m.Safety, m.HeatStress, m.Accessibility}
}

// Build creates the workbook in memory. The caller must Close it.
func Build(project *types.Project, designs []types.Design, snap insights.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetDesigns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetInsights); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err := writeDesigns(f, designs, bold); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeInsights(f, project, snap, bold); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write renders the workbook straight to w.
func Write(w io.Writer, project *types.Project, designs []types.Design, snap insights.Snapshot) error {
	f, err := Build(project, designs, snap)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename is the attachment name for a project export.
func Filename(project *types.Project) string {
	return fmt.Sprintf("streetplan-%s.xlsx", project.ID)
}

func writeDesigns(f *excelize.File, designs []types.Design, headerStyle int) error {
	header := []any{"id", "createdAt", "respondentType", "ageGroup", "postalCode4"}
	for _, k := range types.SliderKeys {
		header = append(header, string(k))
	}
	for _, m := range metricColumns {
		header = append(header, m)
	}

	sw := sheetWriter{f: f, sheet: SheetDesigns}
	sw.row(header...)
	if err := f.SetRowStyle(SheetDesigns, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for _, d := range designs {
		postal := ""
		if d.PostalCode4 != nil {
			postal = *d.PostalCode4
		}
		row := []any{d.ID, d.CreatedAt.UTC().Format(time.RFC3339), string(d.RespondentType), string(d.AgeGroup), postal}
		for _, k := range types.SliderKeys {
			row = append(row, d.Sliders.Get(k))
		}
		row = append(row, metricValues(d.Metrics)...)
		sw.row(row...)
	}
	if sw.err != nil {
		return sw.err
	}
	return f.SetColWidth(SheetDesigns, "A", "B", 42)
}

func writeInsights(f *excelize.File, project *types.Project, snap insights.Snapshot, headerStyle int) error {
	sw := sheetWriter{f: f, sheet: SheetInsights}
	heading := func(title string) {
		sw.blank()
		sw.row(title)
		if sw.err == nil {
			sw.err = f.SetCellStyle(SheetInsights, cell(1, sw.next-1), cell(1, sw.next-1), headerStyle)
		}
	}

	sw.row("project", project.Name)
	sw.row("area", project.AreaName)
	sw.row("totalDesigns", snap.TotalDesigns)

	heading("Summary")
	sw.row("slider", "average", "median")
	for _, k := range types.SliderKeys {
		if st, ok := snap.Summary[k]; ok {
			sw.row(string(k), st.Average, st.Median)
		}
	}

	heading("Top combinations")
	header := []any{"rank"}
	for _, k := range types.SliderKeys {
		header = append(header, string(k))
	}
	sw.row(append(header, "count")...)
	for i, c := range snap.TopCombinations {
		row := []any{i + 1}
		for _, k := range types.SliderKeys {
			row = append(row, c.Sliders.Get(k))
		}
		sw.row(append(row, c.Count)...)
	}

	heading("Consensus design")
	for _, k := range types.SliderKeys {
		sw.row(string(k), snap.Consensus.Sliders.Get(k))
	}

	heading("Metrics")
	sw.row("metric", "baseline", "consensus")
	baseline, consensus := metricValues(snap.BaselineMetrics), metricValues(snap.Consensus.Metrics)
	for i, name := range metricColumns {
		sw.row(name, baseline[i], consensus[i])
	}

	heading("Costs")
	sw.row("key", "unitCost", "unitOpex", "units", "capex", "opex")
	for _, item := range snap.Costs.Items {
		sw.row(string(item.Key), item.UnitCost, item.UnitOpex, item.Units, item.Capex, item.Opex)
	}
	sw.row("total", nil, nil, nil, snap.Costs.TotalCapex, snap.Costs.TotalOpex)

	if sw.err != nil {
		return sw.err
	}
	return f.SetColWidth(SheetInsights, "A", "A", 24)
}

// sheetWriter appends rows to a sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func (w *sheetWriter) row(values ...any) {
	if w.next == 0 {
		w.next = 1
	}
	if w.err == nil {
		if err := w.f.SetSheetRow(w.sheet, cell(1, w.next), &values); err != nil {
			w.err = fmt.Errorf("write %s row %d: %w", w.sheet, w.next, err)
		}
	}
	w.next++
}

func (w *sheetWriter) blank() {
	if w.next == 0 {
		w.next = 1
	}
	w.next++
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
