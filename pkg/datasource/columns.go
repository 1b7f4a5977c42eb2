package datasource

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
)

// Canonical column names.
const (
	ColumnID        = "id"
	ColumnName      = "name"
	ColumnAge       = "age"
	ColumnPurpose   = "purpose"
	ColumnPrincipal = "principal"
	ColumnRate      = "annual_rate_pct"
	ColumnTerm      = "term_months"
)

// Columns lists the canonical header in export order.
var Columns = []string{ColumnID, ColumnName, ColumnAge, ColumnPurpose, ColumnPrincipal, ColumnRate, ColumnTerm}

var requiredColumns = []string{ColumnPrincipal, ColumnRate, ColumnTerm}

// headerAliases maps accepted header spellings, lower-cased, to canonical
// columns. The second group is the legacy spreadsheet layout.
var headerAliases = map[string]string{
	"id":              ColumnID,
	"name":            ColumnName,
	"age":             ColumnAge,
	"purpose":         ColumnPurpose,
	"principal":       ColumnPrincipal,
	"annual_rate_pct": ColumnRate,
	"term_months":     ColumnTerm,

	"nombre":             ColumnName,
	"edad":               ColumnAge,
	"proposito":          ColumnPurpose,
	"monto_prestamo":     ColumnPrincipal,
	"tasa_interes_anual": ColumnRate,
	"tiempo_meses":       ColumnTerm,
}

type header map[string]int

func parseHeader(source string, row []string) (header, error) {
	h := make(header, len(row))
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		column, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, dup := h[column]; dup {
			return nil, &DataSourceError{Source: source, Line: 1, Column: column, Err: errors.New("duplicate column")}
		}
		h[column] = i
	}
	for _, column := range requiredColumns {
		if _, ok := h[column]; !ok {
			return nil, &DataSourceError{Source: source, Line: 1, Column: column, Err: errors.New("missing required column")}
		}
	}
	return h, nil
}

func (h header) cell(row []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseRows converts data rows following the header row. Rows are numbered
// from 2, the header being line 1.
func parseRows(source string, rows [][]string) ([]loans.LoanRecord, error) {
	if len(rows) == 0 {
		return nil, &DataSourceError{Source: source, Err: errors.New("empty file")}
	}
	h, err := parseHeader(source, rows[0])
	if err != nil {
		return nil, err
	}

	batch := make([]loans.LoanRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		loan, err := h.record(row)
		if err != nil {
			err.Source = source
			err.Line = i + 2
			return nil, err
		}
		batch = append(batch, loan)
	}
	return batch, nil
}

func (h header) record(row []string) (loans.LoanRecord, *DataSourceError) {
	loan := loans.LoanRecord{
		ID:      h.cell(row, ColumnID),
		Name:    h.cell(row, ColumnName),
		Purpose: h.cell(row, ColumnPurpose),
	}

	var err error
	if loan.Principal, err = parseFloat(h.cell(row, ColumnPrincipal)); err != nil {
		return loans.LoanRecord{}, &DataSourceError{Column: ColumnPrincipal, Err: err}
	}
	if loan.AnnualRatePct, err = parseFloat(h.cell(row, ColumnRate)); err != nil {
		return loans.LoanRecord{}, &DataSourceError{Column: ColumnRate, Err: err}
	}
	if loan.TermMonths, err = parseInt(h.cell(row, ColumnTerm)); err != nil {
		return loans.LoanRecord{}, &DataSourceError{Column: ColumnTerm, Err: err}
	}
	if age := h.cell(row, ColumnAge); age != "" {
		if loan.Age, err = parseInt(age); err != nil {
			return loans.LoanRecord{}, &DataSourceError{Column: ColumnAge, Err: err}
		}
	}
	return loan, nil
}

func parseFloat(value string) (float64, error) {
	if value == "" {
		return 0, errors.New("missing value")
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	return f, nil
}

// parseInt accepts integral floats such as "36.0", which spreadsheets emit.
func parseInt(value string) (int, error) {
	if value == "" {
		return 0, errors.New("missing value")
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%q is not a whole number", value)
	}
	return int(f), nil
}
