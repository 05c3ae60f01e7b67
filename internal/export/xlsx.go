// Package export renders the reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"budget/internal/core"
	"budget/internal/sheets"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// amountFormat is the built-in "#,##0.00" number format.
const amountFormat = 4

// IncomeSummaryXLSX writes the income summary as a single sheet workbook.
func IncomeSummaryXLSX(w io.Writer, periods []core.PeriodSummary) error {
	return WriteXLSX(w, sheets.IncomeSummaryTable(periods))
}

// TransactionsXLSX writes the transaction summary and the transaction list
// on two sheets.
func TransactionsXLSX(w io.Writer, txs []core.InvestmentTransaction, summary core.TransactionSummary) error {
	return WriteXLSX(w, sheets.TransactionSummaryTable(summary), sheets.TransactionsTable(txs))
}

// WriteXLSX writes one sheet per table, named after the table title.
func WriteXLSX(w io.Writer, tables ...sheets.Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: amountFormat})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}

	for i, t := range tables {
		name := t.Title
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}

		for col, h := range t.Header {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(name, cell, h); err != nil {
				return err
			}
		}
		if len(t.Header) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
			if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
				return err
			}
		}

		for r, row := range t.Rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				if err := setCell(f, name, cell, v, amountStyle); err != nil {
					return fmt.Errorf("write %s!%s: %w", name, cell, err)
				}
			}
		}

		if width := t.Width(); width > 0 {
			if err := f.SetColWidth(name, "A", sheets.ColumnName(width), 16); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet, cell string, v any, amountStyle int) error {
	d, ok := v.(decimal.Decimal)
	if !ok {
		return f.SetCellValue(sheet, cell, v)
	}
	if err := f.SetCellFloat(sheet, cell, d.InexactFloat64(), core.StoredPlaces, 64); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, amountStyle)
}
