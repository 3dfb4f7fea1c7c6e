package insights

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		view := Aggregate([]Entry{
			{Date: date(2025, 6, 1), Amount: 3000, Category: flat("食費")},
			{Date: date(2025, 6, 2), Amount: 1000},
		}, ModeFlat)

		var buf bytes.Buffer
		require.NoError(t, WriteWorkbook(view, &buf))

		f, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{sheetSummary, sheetCategories, sheetMonthly}, f.GetSheetList())

		summary, err := f.GetRows(sheetSummary)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mode", "flat"}, summary[0])
		assert.Equal(t, []string{"Total", "4000"}, summary[1])

		categories, err := f.GetRows(sheetCategories)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, []string{"食費", "3000", "1", "75"}, categories[1])

		monthly, err := f.GetRows(sheetMonthly)
		require.NoError(t, err)
		require.Len(t, monthly, 3)
		assert.Equal(t, "2025-06", monthly[1][0])
		assert.Equal(t, "4000", monthly[1][2])
		assert.Equal(t, "食費", monthly[2][1])
	})

	t.Run("hierarchical adds detailed sheet", func(t *testing.T) {
		view := Aggregate([]Entry{
			{Date: date(2025, 6, 1), Amount: 1000, Category: hier("食費", "外食")},
			{Date: date(2025, 6, 1), Amount: 500, Category: hier("食費", "")},
		}, ModeHierarchical)

		var buf bytes.Buffer
		require.NoError(t, WriteWorkbook(view, &buf))

		f, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer f.Close()

		assert.Contains(t, f.GetSheetList(), sheetDetailed)
		detailed, err := f.GetRows(sheetDetailed)
		require.NoError(t, err)
		require.Len(t, detailed, 3)
		assert.Equal(t, []string{"食費", "外食", "1000", "1"}, detailed[1][:4])
		assert.Equal(t, "", detailed[2][1])
	})
}
