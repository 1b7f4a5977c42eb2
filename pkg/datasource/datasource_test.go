package datasource

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const englishCSV = `id,name,age,purpose,principal,annual_rate_pct,term_months
L1,Ana Torres,34,home,10000000,8.0,36
L2,Luis Pardo,,car,25000,1.5,48.0

L3,"Ruiz, Eva",22,education,4000,12.5,18
`

const legacyCSV = "\ufeffNombre,Edad,Proposito,Monto_Prestamo,Tasa_Interes_Anual,Tiempo_Meses\n" +
	"Ana Torres,34,Vivienda,10000000,8.0,36\n" +
	"Luis Pardo,41,Auto,25000,1.5,48\n"

func requireDataSourceError(t *testing.T, err error) *DataSourceError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataSource))
	assert.False(t, errors.Is(err, loans.ErrInvalidInput))
	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	return dsErr
}

func TestReadCSVEnglishHeader(t *testing.T) {
	batch, err := ReadCSV(strings.NewReader(englishCSV), "loans.csv")
	require.NoError(t, err)
	require.Len(t, batch, 3)

	assert.Equal(t, loans.LoanRecord{
		ID: "L1", Name: "Ana Torres", Age: 34, Purpose: "home",
		Principal: 10_000_000, AnnualRatePct: 8.0, TermMonths: 36,
	}, batch[0])
	assert.Equal(t, 0, batch[1].Age)
	assert.Equal(t, 48, batch[1].TermMonths)
	assert.Equal(t, "Ruiz, Eva", batch[2].Name)
}

func TestReadCSVLegacyHeader(t *testing.T) {
	batch, err := ReadCSV(strings.NewReader(legacyCSV), "loan_data.csv")
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, "", batch[0].ID)
	assert.Equal(t, "Ana Torres", batch[0].Label())
	assert.Equal(t, "Vivienda", batch[0].Purpose)
	assert.Equal(t, 41, batch[1].Age)
	assert.Equal(t, 25_000.0, batch[1].Principal)
	assert.Equal(t, 1.5, batch[1].AnnualRatePct)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		column string
		msg    string
	}{
		{"empty file", "", 0, "", "empty file"},
		{"missing column", "name,principal,annual_rate_pct\nA,100,5\n", 1, ColumnTerm, "missing required column"},
		{"duplicate column", "principal,monto_prestamo,annual_rate_pct,term_months\n1,2,3,4\n", 1, ColumnPrincipal, "duplicate column"},
		{"bad number", "principal,annual_rate_pct,term_months\n100,5,12\n1e,5,12\n", 3, ColumnPrincipal, "not a number"},
		{"fractional term", "principal,annual_rate_pct,term_months\n100,5,12.5\n", 2, ColumnTerm, "not a whole number"},
		{"missing rate", "principal,annual_rate_pct,term_months\n100,,12\n", 2, ColumnRate, "missing value"},
		{"bad age", "principal,annual_rate_pct,term_months,age\n100,5,12,old\n", 2, ColumnAge, "not a whole number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), "input.csv")
			dsErr := requireDataSourceError(t, err)
			assert.Equal(t, "input.csv", dsErr.Source)
			assert.Equal(t, tt.line, dsErr.Line)
			assert.Equal(t, tt.column, dsErr.Column)
			assert.Contains(t, dsErr.Error(), tt.msg)
		})
	}
}

func TestReadCSVMalformedQuoting(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("principal,annual_rate_pct,term_months\n\"100,5,12\n"), "input.csv")
	dsErr := requireDataSourceError(t, err)
	assert.GreaterOrEqual(t, dsErr.Line, 2)
	assert.Empty(t, dsErr.Column)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	batch, err := ReadCSV(strings.NewReader("principal,annual_rate_pct,term_months\n"), "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestReadCSVKeepsInvariantViolations(t *testing.T) {
	input := "id,principal,annual_rate_pct,term_months\nNEG,-500,5,12\nZERO,100,5,0\n"
	batch, err := ReadCSV(strings.NewReader(input), "loans.csv")
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.True(t, errors.Is(batch[0].Validate(), loans.ErrInvalidInput))
	assert.True(t, errors.Is(batch[1].Validate(), loans.ErrInvalidInput))
}

func TestDataSourceErrorMessage(t *testing.T) {
	err := &DataSourceError{Source: "a.csv", Line: 4, Column: ColumnRate, Err: errors.New("boom")}
	assert.Equal(t, "a.csv: line 4: column annual_rate_pct: boom", err.Error())

	err = &DataSourceError{Source: "a.csv", Err: errors.New("boom")}
	assert.Equal(t, "a.csv: boom", err.Error())
}

func writeWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadXLSX(t *testing.T) {
	buf := writeWorkbook(t, [][]any{
		{"Nombre", "Edad", "Proposito", "Monto_Prestamo", "Tasa_Interes_Anual", "Tiempo_Meses"},
		{"Ana Torres", 34, "Vivienda", 10_000_000, 8.0, 36},
		{"Eva Ruiz", 22, "Estudios", 4_000.5, 12.5, 18},
	})

	batch, err := ReadXLSX(buf, "loans.xlsx")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "Ana Torres", batch[0].Name)
	assert.Equal(t, 10_000_000.0, batch[0].Principal)
	assert.Equal(t, 36, batch[0].TermMonths)
	assert.Equal(t, 4_000.5, batch[1].Principal)
	assert.Equal(t, 12.5, batch[1].AnnualRatePct)
}

func TestReadXLSXErrors(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("not a workbook"), "bad.xlsx")
	requireDataSourceError(t, err)

	buf := writeWorkbook(t, [][]any{
		{"principal", "annual_rate_pct", "term_months"},
		{"lots", 5, 12},
	})
	_, err = ReadXLSX(buf, "bad.xlsx")
	dsErr := requireDataSourceError(t, err)
	assert.Equal(t, 2, dsErr.Line)
	assert.Equal(t, ColumnPrincipal, dsErr.Column)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "loans.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte(englishCSV), 0o600))
	batch, err := Load(csvPath)
	require.NoError(t, err)
	assert.Len(t, batch, 3)

	xlsxPath := filepath.Join(dir, "loans.xlsx")
	buf := writeWorkbook(t, [][]any{
		{"id", "principal", "annual_rate_pct", "term_months"},
		{"X1", 1_000, 3, 12},
	})
	require.NoError(t, os.WriteFile(xlsxPath, buf.Bytes(), 0o600))
	batch, err = Load(xlsxPath)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "X1", batch[0].ID)

	_, err = Load(filepath.Join(dir, "loans.json"))
	requireDataSourceError(t, err)

	_, err = Load(filepath.Join(dir, "missing.csv"))
	dsErr := requireDataSourceError(t, err)
	assert.True(t, errors.Is(dsErr, os.ErrNotExist))
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat("upload.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)

	_, err = DetectFormat("upload.xls")
	requireDataSourceError(t, err)
}
