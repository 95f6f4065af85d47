package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"lyyti/internal"
)

// WriteOutput joins records with CRLF and writes them as UTF-8 text.
func WriteOutput(records []internal.Record, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(Render(records)), 0o644)
}

func Render(records []internal.Record) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, r.Line())
	}
	return strings.Join(lines, internal.LineBreak)
}

func ExportRejectionsToXLSX(rows []internal.RejectionRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"bib", "surname", "firstname", "license_id", "reason", "declared", "found"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.Bib)
		set(2, row.Surname)
		set(3, row.FirstName)
		set(4, row.LicenseID)
		set(5, row.Reason)
		set(6, row.Declared)
		set(7, row.Found)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
