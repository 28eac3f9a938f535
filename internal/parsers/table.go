package parsers

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	apperrors "order-allocation-service/pkg/errors"
	"order-allocation-service/pkg/logger"
)

// TableFormat identifies the source file format of a table. Numeric cell
// conventions differ by format: legacy CSV exports carry decimal-comma
// values, while XLSX cells are already typed and render with a dot decimal.
type TableFormat string

const (
	TableFormatCSV  TableFormat = "csv"
	TableFormatXLSX TableFormat = "xlsx"
)

// Table is one loaded spreadsheet: the original headers plus raw string
// cells. Schema resolution happens later; the loader makes no assumptions
// about column meaning.
type Table struct {
	Name    string
	Format  TableFormat
	Headers []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table from headers and rows. Header whitespace is
// trimmed, mirroring how the source tool cleaned uploaded frames.
func NewTable(name string, headers []string, rows [][]string) *Table {
	cleaned := make([]string, len(headers))
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		cleaned[i] = strings.TrimSpace(h)
		index[cleaned[i]] = i
	}
	return &Table{
		Name:    name,
		Format:  TableFormatCSV,
		Headers: cleaned,
		Rows:    rows,
		index:   index,
	}
}

// DecimalComma reports whether the table's numeric cells use the
// decimal-comma convention. CSV exports do; XLSX cells keep their typed
// dot-decimal rendering.
func (t *Table) DecimalComma() bool {
	return t.Format != TableFormatXLSX
}

// Column returns the index of a header, or -1 when absent.
func (t *Table) Column(header string) int {
	if i, ok := t.index[header]; ok {
		return i
	}
	return -1
}

// Value returns the trimmed cell under the given header for a row. Rows may
// be ragged (XLSX rows drop trailing empty cells); out-of-range lookups
// yield the empty string.
func (t *Table) Value(row []string, header string) string {
	i := t.Column(header)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// LoaderConfig holds configuration for the table loader.
type LoaderConfig struct {
	// Delimiter for CSV input; stock/order exports are semicolon-delimited
	Delimiter rune
	// SkipEmptyRows drops rows whose every cell is blank
	SkipEmptyRows bool
}

// DefaultLoaderConfig returns the configuration matching the upstream export
// format: ';' delimiter, Latin-1 text, empty rows skipped.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		Delimiter:     ';',
		SkipEmptyRows: true,
	}
}

// TableLoader reads spreadsheet files into Tables. CSV input is decoded from
// Latin-1; .xlsx files are read from their first sheet.
type TableLoader struct {
	config *LoaderConfig
	logger logger.Logger
}

// NewTableLoader creates a TableLoader with the given configuration.
func NewTableLoader(config *LoaderConfig) *TableLoader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &TableLoader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("table_loader"),
	}
}

// Load reads one file into a Table, choosing the reader by extension.
func (tl *TableLoader) Load(path string) (*Table, error) {
	tl.logger.WithField("file_path", path).Debug("Loading table")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return tl.loadCSV(path)
	case ".xlsx":
		return tl.loadXLSX(path)
	default:
		return nil, apperrors.FileError(apperrors.CodeUnsupportedFormat, path, nil)
	}
}

// LoadAll reads every path in order, failing on the first unreadable file.
func (tl *TableLoader) LoadAll(paths []string) ([]*Table, error) {
	tables := make([]*Table, 0, len(paths))
	for _, path := range paths {
		table, err := tl.Load(path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (tl *TableLoader) loadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, apperrors.FileError(apperrors.CodeFilePermission, path, err)
		}
		return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
	}
	defer file.Close()

	// Exports come from legacy systems in Latin-1; decode before the CSV
	// reader sees the bytes.
	decoded := transform.NewReader(file, charmap.ISO8859_1.NewDecoder())

	reader := csv.NewReader(decoded)
	reader.Comma = tl.config.Delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.New(apperrors.CategorySchema, apperrors.CodeEmptyTable,
			"file contains no header row: "+path).
			WithSuggestion("ensure the export has a header row followed by data").
			WithContext("file_path", path)
	}
	if err != nil {
		return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
		}
		if tl.config.SkipEmptyRows && isEmptyRow(record) {
			continue
		}
		rows = append(rows, record)
	}

	table := NewTable(filepath.Base(path), headers, rows)
	tl.logger.WithFields(logger.Fields{
		"file_path": path,
		"columns":   len(table.Headers),
		"rows":      table.Len(),
	}).Debug("Loaded CSV table")
	return table, nil
}

func (tl *TableLoader) loadXLSX(path string) (*Table, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.New(apperrors.CategorySchema, apperrors.CodeEmptyTable,
			"workbook contains no sheets: "+path).
			WithContext("file_path", path)
	}

	all, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
	}
	if len(all) == 0 {
		return nil, apperrors.New(apperrors.CategorySchema, apperrors.CodeEmptyTable,
			"sheet contains no header row: "+path).
			WithContext("file_path", path)
	}

	var rows [][]string
	for _, record := range all[1:] {
		if tl.config.SkipEmptyRows && isEmptyRow(record) {
			continue
		}
		rows = append(rows, record)
	}

	table := NewTable(filepath.Base(path), all[0], rows)
	table.Format = TableFormatXLSX
	tl.logger.WithFields(logger.Fields{
		"file_path": path,
		"sheet":     sheets[0],
		"columns":   len(table.Headers),
		"rows":      table.Len(),
	}).Debug("Loaded XLSX table")
	return table, nil
}

func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
