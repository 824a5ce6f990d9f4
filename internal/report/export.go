package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/radiusdt/vector-insights/internal/models"
)

// Format selects the on-disk export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want csv, json or xlsx)", s)
}

// WriteTableCSV writes t with a header row.
func WriteTableCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write %s header: %w", t.Name, err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write %s rows: %w", t.Name, err)
	}
	return nil
}

// Document is the JSON export: the typed result plus its flat tables.
type Document struct {
	Report string         `json:"report"`
	Result *models.Result `json:"result"`
	Tables []Table        `json:"tables"`
}

// WriteJSON writes the JSON document of res.
func WriteJSON(w io.Writer, res *models.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document{Report: res.ReportName(), Result: res, Tables: Flatten(res)}); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteXLSX writes res as a workbook with one sheet per flat table, in
// Flatten order. Cells that parse as numbers are stored as numbers.
func WriteXLSX(w io.Writer, res *models.Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, t := range Flatten(res) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return fmt.Errorf("name sheet %s: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("add sheet %s: %w", t.Name, err)
		}
		if err := fillSheet(f, t); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, t Table) error {
	for c, h := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(t.Name, cell, h); err != nil {
			return fmt.Errorf("write %s header: %w", t.Name, err)
		}
	}
	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var val any = v
			if n, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
				val = n
			}
			if err := f.SetCellValue(t.Name, cell, val); err != nil {
				return fmt.Errorf("write %s rows: %w", t.Name, err)
			}
		}
	}
	return nil
}

// WriteDir exports res under dir and returns the written paths. CSV writes
// one file per table into dir/<report name>/; JSON and XLSX write
// dir/<report name>.json and dir/<report name>.xlsx.
func WriteDir(dir string, res *models.Result, format Format) ([]string, error) {
	switch format {
	case FormatXLSX:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		path := filepath.Join(dir, res.ReportName()+".xlsx")
		if err := writeFile(path, func(w io.Writer) error { return WriteXLSX(w, res) }); err != nil {
			return nil, err
		}
		return []string{path}, nil

	case FormatJSON:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		path := filepath.Join(dir, res.ReportName()+".json")
		if err := writeFile(path, func(w io.Writer) error { return WriteJSON(w, res) }); err != nil {
			return nil, err
		}
		return []string{path}, nil

	case FormatCSV:
		base := filepath.Join(dir, res.ReportName())
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		var paths []string
		for _, t := range Flatten(res) {
			path := filepath.Join(base, t.Name+".csv")
			if err := writeFile(path, func(w io.Writer) error { return WriteTableCSV(w, t) }); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// WriteBrief writes the markdown brief next to the other exports.
func WriteBrief(dir string, res *models.Result, opts BriefOptions) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, res.ReportName()+"_brief.md")
	err := writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, RenderBrief(res, opts))
		return err
	})
	return path, err
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
