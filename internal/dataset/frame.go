package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Frame is a headered CSV file held as raw cells.
type Frame struct {
	Name    string
	Header  []string
	Records [][]string
}

// ReadFrame opens path and reads it as comma-delimited text with a header row.
func ReadFrame(name, path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}
	defer f.Close()

	frame, err := ParseFrame(name, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return frame, nil
}

// ParseFrame reads CSV text from r. An input with no header row is rejected.
func ParseFrame(name string, r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrSchemaMismatch, name)
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		records = append(records, row)
	}

	return &Frame{Name: name, Header: header, Records: records}, nil
}

func (f *Frame) Len() int {
	return len(f.Records)
}

// HasColumn reports whether the header names column.
func (f *Frame) HasColumn(column string) bool {
	return f.columnIndex(column) >= 0
}

// Floats parses the first n cells of column as float64.
func (f *Frame) Floats(column string, n int) ([]float64, error) {
	idx := f.columnIndex(column)
	if idx < 0 {
		return nil, missingColumn(f.Name, column)
	}
	return f.floatsAt(idx, column, n)
}

// FirstFloats parses the first n cells of the leftmost column.
func (f *Frame) FirstFloats(n int) ([]float64, error) {
	if len(f.Header) == 0 {
		return nil, missingColumn(f.Name, "<first>")
	}
	return f.floatsAt(0, f.Header[0], n)
}

func (f *Frame) floatsAt(idx int, column string, n int) ([]float64, error) {
	if n > len(f.Records) {
		n = len(f.Records)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		row := f.Records[i]
		if idx >= len(row) {
			return nil, &SchemaError{Source: f.Name, Column: column, Row: i, Reason: "missing cell"}
		}
		raw := cleanCell(row[idx])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &SchemaError{Source: f.Name, Column: column, Row: i, Reason: fmt.Sprintf("not a number: %q", raw)}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &SchemaError{Source: f.Name, Column: column, Row: i, Reason: fmt.Sprintf("not a finite number: %q", raw)}
		}
		out[i] = v
	}
	return out, nil
}

func (f *Frame) columnIndex(column string) int {
	for i, h := range f.Header {
		if strings.EqualFold(h, column) {
			return i
		}
	}
	return -1
}

func cleanCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.TrimSpace(s)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}
