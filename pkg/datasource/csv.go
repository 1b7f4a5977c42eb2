package datasource

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
)

// ReadCSV parses a comma separated loan table with a header row.
func ReadCSV(r io.Reader, source string) ([]loans.LoanRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		dsErr := &DataSourceError{Source: source, Err: err}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			dsErr.Line = parseErr.Line
			dsErr.Err = parseErr.Err
		}
		return nil, dsErr
	}
	return parseRows(source, rows)
}
