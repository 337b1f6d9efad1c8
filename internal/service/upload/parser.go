package upload

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/storeops/cam-cli/internal/service/project"
)

// ErrHeaderMismatch indicates an upload file whose header row differs from
// the canonical upload schema.
var ErrHeaderMismatch = errors.New("upload header does not match expected format")

// ErrEmptyFile indicates an upload file without any rows.
var ErrEmptyFile = errors.New("upload file contains no rows")

// Table is a parsed upload file: the header row plus data rows with blank
// lines already dropped.
type Table struct {
	Header []string
	Rows   [][]string
}

// Options tunes upload parsing.
type Options struct {
	// ValidateHeader rejects files whose first row differs from
	// project.UploadHeaders.
	ValidateHeader bool
}

// Parse reads a .csv or .xlsx upload by file extension.
func Parse(name string, content []byte, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ParseCSV(content, opts)
	case ".xlsx":
		return ParseXLSX(content, opts)
	default:
		return nil, fmt.Errorf("unsupported upload file type %q (expected .csv or .xlsx)", filepath.Ext(name))
	}
}

// ParseCSV parses CSV upload content. Quoting is read leniently since the
// existing tooling writes non-RFC quoted files.
func ParseCSV(content []byte, opts Options) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records := make([][]string, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, record)
	}
	return buildTable(records, opts)
}

// ParseXLSX parses the first sheet of an xlsx upload.
func ParseXLSX(content []byte, opts Options) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return buildTable(records, opts)
}

// ReadRaw returns every row of a .csv or .xlsx file without header handling
// or blank-row filtering. XLSX sheets are concatenated in workbook order,
// which is how multi-block allocation sheets arrive.
func ReadRaw(name string, content []byte) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		reader := csv.NewReader(bytes.NewReader(content))
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		records := make([][]string, 0)
		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("parse csv: %w", err)
			}
			records = append(records, record)
		}
		return records, nil
	case ".xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		records := make([][]string, 0)
		for _, sheet := range f.GetSheetList() {
			rows, err := f.GetRows(sheet)
			if err != nil {
				return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
			}
			records = append(records, rows...)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q (expected .csv or .xlsx)", filepath.Ext(name))
	}
}

func buildTable(records [][]string, opts Options) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	header := trimRow(records[0])
	if opts.ValidateHeader {
		if strings.Join(header, ",") != project.UploadHeaderLine {
			return nil, fmt.Errorf("%w: got %q, expected %q",
				ErrHeaderMismatch, strings.Join(header, ","), project.UploadHeaderLine)
		}
	}
	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlankRow(record) {
			continue
		}
		rows = append(rows, record)
	}
	return &Table{Header: header, Rows: rows}, nil
}

func trimRow(row []string) []string {
	trimmed := make([]string, len(row))
	for i, field := range row {
		trimmed[i] = strings.TrimSpace(field)
	}
	return trimmed
}

func isBlankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// ValidateTrackingDates rejects half-specified tracking ranges before any
// network call is made.
func ValidateTrackingDates(start, end string) error {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if (start == "") != (end == "") {
		return fmt.Errorf("tracking dates must be provided as a pair: start=%q end=%q", start, end)
	}
	return nil
}
