package datasource

import (
	"errors"
	"io"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX parses the first sheet of a workbook as a loan table. Cells are
// read raw so number formats such as currency do not leak into parsing.
func ReadXLSX(r io.Reader, source string) ([]loans.LoanRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &DataSourceError{Source: source, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DataSourceError{Source: source, Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DataSourceError{Source: source, Err: err}
	}
	return parseRows(source, rows)
}
