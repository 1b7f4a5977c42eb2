// Package datasource loads loan batches from CSV and XLSX files.
//
// A file is rejected with a DataSourceError when it cannot be read as a
// table of loans: no header, a missing required column or a cell that is not
// a number. Values that parse but break a loan invariant (a negative
// principal, say) are returned as-is for the engine to judge.
package datasource

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
)

// ErrDataSource matches every DataSourceError through errors.Is.
var ErrDataSource = errors.New("data source error")

// DataSourceError reports a file that cannot be turned into loan records.
type DataSourceError struct {
	Source string
	Line   int    // 1-based row in the file, 0 when not row specific
	Column string // canonical column name, empty when not column specific
	Err    error
}

func (e *DataSourceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %s", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

func (e *DataSourceError) Is(target error) bool {
	return target == ErrDataSource
}

// Format identifies a supported file layout.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", &DataSourceError{Source: name, Err: fmt.Errorf("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(name))}
	}
}

// Load reads a loan batch from a .csv or .xlsx file.
func Load(path string) ([]loans.LoanRecord, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DataSourceError{Source: path, Err: err}
	}
	defer f.Close()

	return Read(f, path, format)
}

// Read parses a loan batch in the given format. source names the input in
// errors.
func Read(r io.Reader, source string, format Format) ([]loans.LoanRecord, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r, source)
	case FormatXLSX:
		return ReadXLSX(r, source)
	default:
		return nil, &DataSourceError{Source: source, Err: fmt.Errorf("unsupported format %q", format)}
	}
}
