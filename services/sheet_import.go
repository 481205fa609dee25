package services

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SourceKind identifies where a set of tables came from.
type SourceKind string

const (
	SourcePDF    SourceKind = "pdf"
	SourceXLSX   SourceKind = "xlsx"
	SourceCSV    SourceKind = "csv"
	SourceManual SourceKind = "manual"
)

// ErrUnsupportedFormat is returned for uploads that are not .pdf, .xlsx or .csv.
var ErrUnsupportedFormat = errors.New("unsupported file format: must be .pdf, .xlsx or .csv")

// ErrEmptySheet is returned when a spreadsheet has no header row.
var ErrEmptySheet = errors.New("file must contain a header row")

// DetectSource classifies an upload by its file extension.
func DetectSource(fileName string) (SourceKind, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return SourcePDF, nil
	case ".xlsx":
		return SourceXLSX, nil
	case ".csv":
		return SourceCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// ImportSheet reads a spreadsheet upload into one table: the first row is the
// header and every later non-blank row is data. Cells are kept as strings;
// numeric interpretation happens downstream.
func ImportSheet(r io.Reader, kind SourceKind) (Table, error) {
	var (
		headers []string
		rows    [][]string
		err     error
	)
	switch kind {
	case SourceCSV:
		headers, rows, err = readCSVRecords(r)
	case SourceXLSX:
		headers, rows, err = parseExcel(r)
	default:
		return Table{}, ErrUnsupportedFormat
	}
	if err != nil {
		return Table{}, err
	}
	if len(headers) == 0 {
		return Table{}, ErrEmptySheet
	}
	return tableFromStrings(headers, rows), nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	all, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	var headers []string
	var rows [][]string
	for _, rec := range all {
		if blankRecord(rec) {
			continue
		}
		if headers == nil {
			headers = trimAll(rec)
			continue
		}
		rows = append(rows, rec)
	}
	return headers, rows, nil
}
