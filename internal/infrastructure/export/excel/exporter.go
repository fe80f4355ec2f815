package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Analyses"

var headerRow = []string{
	"Analyzed At",
	"Filename",
	"Result",
	"Crop",
	"Disease",
	"Health %",
	"Disease %",
	"Note",
}

// Exporter renders analysis history into an xlsx workbook.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) WriteHistoryReport(w io.Writer, records []domain.AnalysisRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "H", 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	for col, title := range headerRow {
		if err := setCell(f, col+1, 1, title); err != nil {
			return err
		}
	}
	for i, record := range records {
		for col, value := range reportRow(record) {
			if value == nil {
				continue
			}
			if err := setCell(f, col+1, i+2, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}

// reportRow flattens one record into the header's column order. Percent
// columns are formatted here and nowhere earlier; stored confidences stay
// raw floats.
func reportRow(record domain.AnalysisRecord) []any {
	row := make([]any, len(headerRow))
	row[0] = record.CreatedAt.Format(time.DateTime)
	row[1] = record.Filename

	switch record.Outcome.Kind {
	case domain.OutcomeHealthy:
		h := record.Outcome.Healthy
		row[2] = "Healthy"
		row[3] = h.CropDisplay.DisplayName
		row[5] = domain.ClampPercent(h.Confidence)
		if h.Ambiguous {
			row[7] = "low decision margin"
		}
	case domain.OutcomeDiseased:
		d := record.Outcome.Diseased
		row[2] = "Diseased"
		row[3] = d.CropDisplay.DisplayName
		row[4] = d.DiseaseDisplay.DisplayName
		row[5] = domain.ClampPercent(d.HealthConfidence)
		row[6] = domain.ClampPercent(d.DiseaseConfidence)
		if d.Ambiguous {
			row[7] = "low decision margin"
		}
	case domain.OutcomeUnsupported:
		row[2] = "Unsupported"
		row[7] = string(record.Outcome.Unsupported.Reason)
	case domain.OutcomeIncomplete:
		row[2] = "Incomplete"
		row[7] = record.Outcome.Incomplete.Cause
	}
	return row
}
