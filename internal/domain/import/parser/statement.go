// Package parser reads JCB card statement exports.
//
// The document is a CSV grid with a fixed preamble:
//
//	row 0..3  header block; column 2 is a label, column 3 its value
//	row 4     separator / title
//	row 5     column header row for the line items
//	row 6..   line items
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

// Header block labels, in row order.
const (
	LabelPaymentDate    = "今回のお支払日"
	LabelTotalAmount    = "今回のお支払金額合計(￥)"
	LabelDomesticAmount = "うち国内ご利用金額合計(￥)"
	LabelOverseasAmount = "うち海外ご利用金額合計(￥)"
)

var headerLabels = [...]string{
	LabelPaymentDate,
	LabelTotalAmount,
	LabelDomesticAmount,
	LabelOverseasAmount,
}

const (
	headerRows        = len(headerLabels)
	headerLabelCol    = 2
	headerValueCol    = 3
	columnHeaderIndex = 5
	firstDataIndex    = 6
)

var dateLayouts = []string{
	"2006/1/2",
	"2006-1-2",
	"2006.1.2",
	"20060102",
}

// FormatErrorKind separates structural header failures from broken CSV.
type FormatErrorKind string

const (
	InvalidHeader FormatErrorKind = "Invalid CSV header format"
	MalformedCSV  FormatErrorKind = "CSV parse error"
)

// FormatError rejects a whole document.
type FormatError struct {
	Kind   FormatErrorKind
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func headerError(format string, args ...any) *FormatError {
	return &FormatError{Kind: InvalidHeader, Detail: fmt.Sprintf(format, args...)}
}

// RawRow is one line item bound by column header name.
// Values are untrimmed; Line is the 1-based source line. Blank data rows
// never become a RawRow.
type RawRow struct {
	Line          int    `csv:"-"`
	Cardholder    string `csv:"ご利用者"`
	Category      string `csv:"カテゴリ"`
	UsageDate     string `csv:"ご利用日"`
	StoreName     string `csv:"ご利用先など"`
	Amount        string `csv:"ご利用金額(￥)"`
	PaymentType   string `csv:"支払区分"`
	Installment   string `csv:"今回回数"`
	Correction    string `csv:"訂正サイン"`
	PaymentAmount string `csv:"お支払い金額(￥)"`
	Region        string `csv:"国内／海外"`
	Note          string `csv:"摘要"`
	Remarks       string `csv:"備考"`
}

// Statement is the parsed header block plus its raw line items.
type Statement struct {
	PaymentDate    time.Time
	TotalAmount    int64
	DomesticAmount int64
	OverseasAmount int64
	Rows           []RawRow
}

// ParseStatement validates the header block and binds the line items.
// Any header problem returns *FormatError before line items are read.
func ParseStatement(text string) (*Statement, error) {
	rows, lines, err := readGrid(text)
	if err != nil {
		return nil, err
	}

	values, err := headerValues(rows)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{}
	if stmt.PaymentDate, err = ParseDate(values[0]); err != nil {
		return nil, headerError("invalid payment date %q", values[0])
	}
	amounts := []*int64{&stmt.TotalAmount, &stmt.DomesticAmount, &stmt.OverseasAmount}
	for i, dst := range amounts {
		if *dst, err = ParseAmount(values[i+1]); err != nil {
			return nil, headerError("invalid amount %q for %s", values[i+1], headerLabels[i+1])
		}
	}

	if stmt.Rows, err = bindRows(rows, lines); err != nil {
		return nil, err
	}
	return stmt, nil
}

func headerValues(rows [][]string) ([headerRows]string, error) {
	var values [headerRows]string
	if len(rows) < headerRows {
		return values, headerError("insufficient header rows, found %d", len(rows))
	}
	for i, want := range headerLabels {
		row := rows[i]
		if len(row) <= headerValueCol {
			return values, headerError("row %d has %d columns, need at least %d", i+1, len(row), headerValueCol+1)
		}
		if got := strings.TrimSpace(row[headerLabelCol]); got != want {
			return values, headerError("row %d label is %q, expected %q", i+1, got, want)
		}
		values[i] = strings.TrimSpace(row[headerValueCol])
		if values[i] == "" {
			return values, headerError("missing value for %s", want)
		}
	}
	return values, nil
}

// bindRows maps data rows onto the column header row with gocsv.
// Rows that are blank after trimming are dropped here and are not counted
// anywhere downstream, not even as missing-field skips.
func bindRows(rows [][]string, lines []int) ([]RawRow, error) {
	if len(rows) <= firstDataIndex {
		return nil, nil
	}

	header := make([]string, len(rows[columnHeaderIndex]))
	for i, name := range rows[columnHeaderIndex] {
		header[i] = strings.TrimSpace(name)
	}

	records := [][]string{header}
	var recordLines []int
	for i := firstDataIndex; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		records = append(records, rows[i])
		recordLines = append(recordLines, lines[i])
	}
	if len(recordLines) == 0 {
		return nil, nil
	}

	var out []RawRow
	if err := gocsv.UnmarshalCSV(&recordReader{records: records}, &out); err != nil {
		return nil, &FormatError{Kind: MalformedCSV, Detail: err.Error()}
	}
	for i := range out {
		out[i].Line = recordLines[i]
	}
	return out, nil
}

// readGrid reads every CSV record and reinstates the blank lines that
// encoding/csv drops, so row indexes match the document's line layout.
// lines[i] is the 1-based line on which rows[i] starts.
func readGrid(text string) ([][]string, []int, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	// store names sometimes carry a bare quote, e.g. ABC "X" STORE
	r.LazyQuotes = true

	var rows [][]string
	var lines []int
	next := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &FormatError{Kind: MalformedCSV, Detail: err.Error()}
		}

		start, _ := r.FieldPos(0)
		for ; next < start; next++ {
			rows = append(rows, nil)
			lines = append(lines, next)
		}
		rows = append(rows, rec)
		lines = append(lines, start)

		last, _ := r.FieldPos(len(rec) - 1)
		next = last + strings.Count(rec[len(rec)-1], "\n") + 1
	}
	return rows, lines, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseDate reads a statement date ("2025/07/10", "2024/1/1", ...) as a
// UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseAmount reads a whole-yen amount, ignoring thousands separators.
func ParseAmount(s string) (int64, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	return strconv.ParseInt(clean, 10, 64)
}

// recordReader feeds pre-read records to gocsv.
type recordReader struct {
	records [][]string
	pos     int
}

func (r *recordReader) Read() ([]string, error) {
	if r.pos >= len(r.records) {
		return nil, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	rest := r.records[r.pos:]
	r.pos = len(r.records)
	return rest, nil
}
