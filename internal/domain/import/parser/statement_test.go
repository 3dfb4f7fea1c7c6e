package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jcbPreamble = `"","","今回のお支払日","2025/01/10"
"","","今回のお支払金額合計(￥)","1,500"
"","","　うち国内ご利用金額合計(￥)","1,000"
"","","　うち海外ご利用金額合計(￥)","500"
"【ご利用明細】"
"ご利用者","カテゴリ","ご利用日","ご利用先など","ご利用金額(￥)","支払区分","今回回数","訂正サイン","お支払い金額(￥)","国内／海外","摘要","備考"
`

func TestParseStatement(t *testing.T) {
	t.Run("parses header and rows", func(t *testing.T) {
		doc := jcbPreamble +
			`"****-****-****-***","≪ショッピング取組（国内）≫","2024/1/1","店","110","１回","","","110","国内","Ａｐｐｌｅ　Ｐａｙご利用分","* 1"` + "\n" +
			`"****-****-****-***","≪ショッピング取組（国内）≫","2024/12/02","テスト店舗","1,000","１回","","","1000","国内","","* 2"` + "\n"

		stmt, err := ParseStatement(doc)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), stmt.PaymentDate)
		assert.Equal(t, int64(1500), stmt.TotalAmount)
		assert.Equal(t, int64(1000), stmt.DomesticAmount)
		assert.Equal(t, int64(500), stmt.OverseasAmount)

		require.Len(t, stmt.Rows, 2)
		first := stmt.Rows[0]
		assert.Equal(t, 7, first.Line)
		assert.Equal(t, "2024/1/1", first.UsageDate)
		assert.Equal(t, "店", first.StoreName)
		assert.Equal(t, "110", first.Amount)
		assert.Equal(t, "１回", first.PaymentType)
		assert.Equal(t, "Ａｐｐｌｅ　Ｐａｙご利用分", first.Note)
		assert.Equal(t, "国内", first.Region)
		assert.Equal(t, "1,000", stmt.Rows[1].Amount)
	})

	t.Run("header only yields no rows", func(t *testing.T) {
		stmt, err := ParseStatement(jcbPreamble)
		require.NoError(t, err)
		assert.Empty(t, stmt.Rows)
	})

	t.Run("blank separator line keeps row positions", func(t *testing.T) {
		doc := strings.Replace(jcbPreamble, `"【ご利用明細】"`, "", 1) +
			`"","","2024/12/01","テスト店舗","1000","１回","","","1000","国内","",""` + "\n"

		stmt, err := ParseStatement(doc)
		require.NoError(t, err)
		require.Len(t, stmt.Rows, 1)
		assert.Equal(t, "テスト店舗", stmt.Rows[0].StoreName)
	})

	t.Run("skips empty trailer rows", func(t *testing.T) {
		doc := jcbPreamble +
			`"","","2024/12/01","テスト店舗","1000","１回","","","1000","国内","",""` + "\n" +
			",,,,\n\n"

		stmt, err := ParseStatement(doc)
		require.NoError(t, err)
		assert.Len(t, stmt.Rows, 1)
	})

	t.Run("quoted newline does not shift later rows", func(t *testing.T) {
		doc := jcbPreamble +
			`"","","2024/12/01","店A","100","１回","","","100","国内","一行目` + "\n" + `二行目",""` + "\n" +
			`"","","2024/12/02","店B","200","１回","","","200","国内","",""` + "\n"

		stmt, err := ParseStatement(doc)
		require.NoError(t, err)
		require.Len(t, stmt.Rows, 2)
		assert.Equal(t, "一行目\n二行目", stmt.Rows[0].Note)
		assert.Equal(t, 7, stmt.Rows[0].Line)
		assert.Equal(t, 9, stmt.Rows[1].Line)
	})

	t.Run("bare quotes are kept literally", func(t *testing.T) {
		doc := strings.ReplaceAll(jcbPreamble, "\n", "\r\n") +
			`本人,ショッピング,2025/06/15,ABC "X" STORE,5000,１回払い,,,5000,国内,,` + "\r\n" +
			`"","","2025/06/16","店"A","100","１回","","","100","国内","",""` + "\r\n"

		stmt, err := ParseStatement(doc)
		require.NoError(t, err)
		require.Len(t, stmt.Rows, 2)
		assert.Equal(t, `ABC "X" STORE`, stmt.Rows[0].StoreName)
		assert.Equal(t, "5000", stmt.Rows[0].Amount)
		assert.Equal(t, 7, stmt.Rows[0].Line)
		assert.Equal(t, `店"A`, stmt.Rows[1].StoreName)
		assert.Equal(t, "100", stmt.Rows[1].Amount)
		assert.Equal(t, 8, stmt.Rows[1].Line)
	})

	t.Run("short rows leave missing columns empty", func(t *testing.T) {
		doc := jcbPreamble + `"","","2024/12/01","店A"` + "\n"

		stmt, err := ParseStatement(doc)
		require.NoError(t, err)
		require.Len(t, stmt.Rows, 1)
		assert.Equal(t, "店A", stmt.Rows[0].StoreName)
		assert.Empty(t, stmt.Rows[0].Amount)
	})
}

func TestParseStatement_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind FormatErrorKind
	}{
		{
			name: "not a statement",
			doc:  "invalid,csv,format\n1,2,3",
			kind: InvalidHeader,
		},
		{
			name: "empty document",
			doc:  "",
			kind: InvalidHeader,
		},
		{
			name: "too few columns",
			doc:  strings.Replace(jcbPreamble, `"","","今回のお支払日","2025/01/10"`, `"","","今回のお支払日"`, 1),
			kind: InvalidHeader,
		},
		{
			name: "labels out of order",
			doc: strings.NewReplacer(
				"今回のお支払日", "X", "今回のお支払金額合計(￥)", "今回のお支払日", "X", "今回のお支払金額合計(￥)",
			).Replace(jcbPreamble),
			kind: InvalidHeader,
		},
		{
			name: "missing value",
			doc:  strings.Replace(jcbPreamble, `"1,500"`, `" "`, 1),
			kind: InvalidHeader,
		},
		{
			name: "non-numeric total",
			doc:  strings.Replace(jcbPreamble, `"1,500"`, `"千五百"`, 1),
			kind: InvalidHeader,
		},
		{
			name: "bad payment date",
			doc:  strings.Replace(jcbPreamble, `"2025/01/10"`, `"来月"`, 1),
			kind: InvalidHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatement(tt.doc)
			require.Error(t, err)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.kind, fe.Kind)
			assert.True(t, strings.HasPrefix(err.Error(), string(tt.kind)))
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025/07/10", time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), false},
		{"2024/1/1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{" 2024-12-31 ", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"20240229", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), false},
		{"2023/02/29", time.Time{}, true},
		{"yesterday", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"10,000", 10000, false},
		{" 500 ", 500, false},
		{"-1,200", -1200, false},
		{"1,234,567", 1234567, false},
		{"abc", 0, true},
		{"12.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
