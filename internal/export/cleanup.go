package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/xuri/excelize/v2"
)

// ErrMissingExport is returned by cleanup when an export file does not exist.
var ErrMissingExport = errors.New("export file not found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CleanCSV rewrites path as plain UTF-8 without a byte order mark. Records
// are parsed and written back unchanged.
func CleanCSV(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingExport, path)
		}
		return fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// CleanXLSX copies the first sheet of path into a fresh workbook and
// replaces path with it. Every cell keeps its value and its stored type.
func CleanXLSX(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingExport, path)
		}
		return fmt.Errorf("stat xlsx: %w", err)
	}

	src, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open xlsx: %w", err)
	}
	defer src.Close()

	sheets := src.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("open xlsx: %s has no sheets", path)
	}
	rows, err := src.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	dst := excelize.NewFile()
	defer dst.Close()
	if sheets[0] != SheetName {
		if err := dst.SetSheetName(SheetName, sheets[0]); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	for i, row := range rows {
		values := make([]any, len(row))
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("read row %d: %w", i, err)
			}
			typ, err := src.GetCellType(sheets[0], cell)
			if err != nil {
				return fmt.Errorf("read cell %s: %w", cell, err)
			}
			values[j] = cellValue(v, typ)
		}
		if err := setRow(dst, sheets[0], i+1, values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	tmp := filepath.Join(filepath.Dir(path), ".cleanup-"+filepath.Base(path))
	if err := dst.SaveAs(tmp); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace xlsx: %w", err)
	}
	return nil
}

// cellValue converts a raw cell value back to the type it was stored with.
// Only numeric and boolean cells are converted; text stays text.
func cellValue(v string, typ excelize.CellType) any {
	if v == "" {
		return nil
	}
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	case excelize.CellTypeBool:
		return v == "1" || v == "TRUE" || v == "true"
	}
	return v
}

// Cleanup runs CleanCSV and CleanXLSX over the export files.
func Cleanup(paths Paths) error {
	logger := logging.NewLogger("export")

	if err := CleanCSV(paths.CSV); err != nil {
		return fmt.Errorf("clean csv: %w", err)
	}
	if err := CleanXLSX(paths.XLSX); err != nil {
		return fmt.Errorf("clean xlsx: %w", err)
	}

	logger.Info().Str("csv", paths.CSV).Str("xlsx", paths.XLSX).Msg("Cleanup finished")
	return nil
}
