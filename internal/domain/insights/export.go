package insights

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary    = "Summary"
	sheetCategories = "Categories"
	sheetDetailed   = "Detailed"
	sheetMonthly    = "Monthly"
)

// WriteWorkbook writes view as an .xlsx workbook to w.
func WriteWorkbook(view *DashboardView, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	summary := [][]any{
		{"Mode", string(view.Mode)},
		{"Total", view.TotalAmount},
		{"Transactions", view.TransactionCount},
		{"Uncategorized amount", view.UncategorizedAmount},
		{"Uncategorized count", view.UncategorizedCount},
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return err
	}

	categories := [][]any{{"Category", "Amount", "Count", "Share (%)"}}
	for _, c := range view.CategoryBreakdown {
		categories = append(categories, []any{c.Name, c.Amount, c.Count, c.Share.InexactFloat64()})
	}
	if err := addSheet(f, sheetCategories, categories); err != nil {
		return err
	}

	if view.Mode == ModeHierarchical {
		detailed := [][]any{{"Major", "Minor", "Amount", "Count", "Share (%)"}}
		for _, d := range view.DetailedCategoryBreakdown {
			minor := ""
			if d.MinorName != nil {
				minor = *d.MinorName
			}
			detailed = append(detailed, []any{d.MajorName, minor, d.Amount, d.Count, d.Share.InexactFloat64()})
		}
		if err := addSheet(f, sheetDetailed, detailed); err != nil {
			return err
		}
	}

	monthly := [][]any{{"Month", "Category", "Amount", "Count"}}
	for _, m := range view.MonthlyData {
		monthly = append(monthly, []any{m.Month, "", m.Amount, m.Count})
		for _, c := range m.Categories {
			monthly = append(monthly, []any{m.Month, c.Name, c.Amount, c.Count})
		}
	}
	if err := addSheet(f, sheetMonthly, monthly); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}
	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
