package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sternrassler/warera-trades/internal/transactions"
	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written to the XLSX export.
const SheetName = "Sheet1"

// Default export file names.
const (
	DefaultCSVFile  = "warera_transactions_final.csv"
	DefaultXLSXFile = "warera_transactions_final.xlsx"
)

// Paths locates the two export files.
type Paths struct {
	CSV  string
	XLSX string
}

// WriteCSV writes a header row and rows to path, replacing any existing file.
func WriteCSV(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		if err := w.Write(r.Record()); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return file.Close()
}

// WriteXLSX writes a header row and rows to the first sheet of a new
// workbook at path. Numbers are stored as numeric cells; missing values are
// left blank.
func WriteXLSX(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := setRow(f, SheetName, 1, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		if err := setRow(f, SheetName, i+2, r.Cells()); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

// setRow writes values starting at column A of row; nil values are skipped.
func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// CleanAndExport transforms c and writes both export files. It returns the
// number of data rows written.
func CleanAndExport(paths Paths, c transactions.Collection, users, countries NameSource) (int, error) {
	logger := logging.NewLogger("export")

	rows, err := Transform(c, users, countries)
	if err != nil {
		return 0, fmt.Errorf("transform: %w", err)
	}

	for i := 0; i < len(rows) && i < 5; i++ {
		logger.Debug().
			Int("row", i).
			Strs("quantity_money", []string{rows[i].Quantity.csv(true), rows[i].TotalMoney.csv(false)}).
			Msg("Sample row")
	}

	if err := WriteCSV(paths.CSV, rows); err != nil {
		return 0, err
	}
	if err := WriteXLSX(paths.XLSX, rows); err != nil {
		return 0, err
	}

	logger.Info().
		Int("rows", len(rows)).
		Str("csv", paths.CSV).
		Str("xlsx", paths.XLSX).
		Msg("Export written")
	return len(rows), nil
}
