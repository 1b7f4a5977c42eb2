package export

import (
	"fmt"
	"io"

	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// MetricsSheet names the worksheet written by WriteMetricsXLSX.
const MetricsSheet = "Metrics"

func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// WriteMetricsXLSX writes the metrics of a batch as a single-sheet workbook
// with numeric cells.
func WriteMetricsXLSX(w io.Writer, metrics []loans.DerivedMetrics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), MetricsSheet); err != nil {
		return err
	}

	header := make([]any, len(MetricsHeader))
	for i, name := range MetricsHeader {
		header[i] = name
	}
	if err := f.SetSheetRow(MetricsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, m := range metrics {
		row := []any{
			m.ID, m.Name, m.Age, m.Purpose, cents(m.Principal), m.AnnualRatePct, m.TermMonths,
			cents(m.MonthlyPayment), cents(m.TotalCost), cents(m.TotalInterest), cents(m.InterestPct),
			cents(m.CompoundFinalAmount), cents(m.SimpleAmount), cents(m.CompoundMinusSimple),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(MetricsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(MetricsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}
