package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-tracker/internal/domain/categorization"
	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

// MonthLayout is the YYYY-MM key of monthly groups.
const MonthLayout = "2006-01"

// Mode selects which categorization scheme a dashboard groups by.
type Mode string

const (
	// ModeFlat groups by the flat category stamped on each transaction at
	// import time.
	ModeFlat Mode = "flat"
	// ModeHierarchical groups by the store's current (major, minor)
	// mapping, resolved when the dashboard is read.
	ModeHierarchical Mode = "hierarchical"
)

// ParseMode accepts "flat", "hierarchical" or empty (flat).
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFlat:
		return ModeFlat, nil
	case ModeHierarchical:
		return ModeHierarchical, nil
	default:
		return "", fmt.Errorf("unknown dashboard mode %q", s)
	}
}

// Entry is one transaction as the aggregator sees it. A nil Category
// means uncategorized.
type Entry struct {
	Date     time.Time
	Amount   int64
	Category *categorization.Resolution
}

// CategoryAmount is one row of a category breakdown.
type CategoryAmount struct {
	CategoryID uuid.UUID       `json:"categoryId"`
	Name       string          `json:"name"`
	Amount     int64           `json:"amount"`
	Count      int             `json:"count"`
	Share      decimal.Decimal `json:"share"`
	Display    string          `json:"display"`
}

// DetailedCategoryAmount is one (major, minor) row. MinorName is nil for
// the bucket of transactions mapped to the major alone.
type DetailedCategoryAmount struct {
	MajorCategoryID uuid.UUID       `json:"majorCategoryId"`
	MajorName       string          `json:"majorName"`
	MinorCategoryID *uuid.UUID      `json:"minorCategoryId"`
	MinorName       *string         `json:"minorName"`
	Amount          int64           `json:"amount"`
	Count           int             `json:"count"`
	Share           decimal.Decimal `json:"share"`
	Display         string          `json:"display"`
}

// MonthData is the breakdown of one calendar month.
type MonthData struct {
	Month              string                   `json:"month"`
	Amount             int64                    `json:"amount"`
	Count              int                      `json:"count"`
	Display            string                   `json:"display"`
	Categories         []CategoryAmount         `json:"categories"`
	DetailedCategories []DetailedCategoryAmount `json:"detailedCategories,omitempty"`
}

// DashboardView is the aggregate over a set of entries.
type DashboardView struct {
	Mode                      Mode                     `json:"mode"`
	TotalAmount               int64                    `json:"totalAmount"`
	TotalDisplay              string                   `json:"totalDisplay"`
	TransactionCount          int                      `json:"transactionCount"`
	CategoryBreakdown         []CategoryAmount         `json:"categoryBreakdown"`
	DetailedCategoryBreakdown []DetailedCategoryAmount `json:"detailedCategoryBreakdown,omitempty"`
	UncategorizedCount        int                      `json:"uncategorizedCount"`
	UncategorizedAmount       int64                    `json:"uncategorizedAmount"`
	MonthlyData               []MonthData              `json:"monthlyData"`
	AvailableMonths           []string                 `json:"availableMonths"`
}

// Aggregate builds a DashboardView. Breakdowns are ordered by amount
// descending, then by name ascending; months ascending.
func Aggregate(entries []Entry, mode Mode) *DashboardView {
	view := &DashboardView{
		Mode:              mode,
		CategoryBreakdown: []CategoryAmount{},
		MonthlyData:       []MonthData{},
		AvailableMonths:   []string{},
	}

	overall := newBuckets()
	months := map[string]*monthBucket{}

	for _, e := range entries {
		view.TotalAmount += e.Amount
		view.TransactionCount++

		key := e.Date.Format(MonthLayout)
		mb, ok := months[key]
		if !ok {
			mb = &monthBucket{buckets: newBuckets()}
			months[key] = mb
		}
		mb.amount += e.Amount
		mb.count++

		if e.Category == nil {
			view.UncategorizedCount++
			view.UncategorizedAmount += e.Amount
			continue
		}
		overall.add(*e.Category, e.Amount)
		mb.add(*e.Category, e.Amount)
	}

	view.TotalDisplay = money.Display(view.TotalAmount)
	view.CategoryBreakdown = overall.categories(view.TotalAmount)
	if mode == ModeHierarchical {
		view.DetailedCategoryBreakdown = overall.detailed(view.TotalAmount)
	}

	view.AvailableMonths = availableMonths(entries)
	for _, key := range view.AvailableMonths {
		mb := months[key]
		md := MonthData{
			Month:      key,
			Amount:     mb.amount,
			Count:      mb.count,
			Display:    money.Display(mb.amount),
			Categories: mb.categories(mb.amount),
		}
		if mode == ModeHierarchical {
			md.DetailedCategories = mb.detailed(mb.amount)
		}
		view.MonthlyData = append(view.MonthlyData, md)
	}

	return view
}

func availableMonths(entries []Entry) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, e := range entries {
		key := e.Date.Format(MonthLayout)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

type monthBucket struct {
	*buckets
	amount int64
	count  int
}

type detailKey struct {
	major string
	minor string
	has   bool
}

type buckets struct {
	byName   map[string]*CategoryAmount
	byDetail map[detailKey]*DetailedCategoryAmount
}

func newBuckets() *buckets {
	return &buckets{
		byName:   map[string]*CategoryAmount{},
		byDetail: map[detailKey]*DetailedCategoryAmount{},
	}
}

func (b *buckets) add(res categorization.Resolution, amount int64) {
	c, ok := b.byName[res.Major.Name]
	if !ok {
		c = &CategoryAmount{CategoryID: res.Major.ID, Name: res.Major.Name}
		b.byName[res.Major.Name] = c
	}
	c.Amount += amount
	c.Count++

	key := detailKey{major: res.Major.Name}
	if res.Minor != nil {
		key.minor, key.has = res.Minor.Name, true
	}
	d, ok := b.byDetail[key]
	if !ok {
		d = &DetailedCategoryAmount{MajorCategoryID: res.Major.ID, MajorName: res.Major.Name}
		if res.Minor != nil {
			id, name := res.Minor.ID, res.Minor.Name
			d.MinorCategoryID, d.MinorName = &id, &name
		}
		b.byDetail[key] = d
	}
	d.Amount += amount
	d.Count++
}

func (b *buckets) categories(total int64) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(b.byName))
	for _, c := range b.byName {
		c.Share = money.Share(c.Amount, total)
		c.Display = money.Display(c.Amount)
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (b *buckets) detailed(total int64) []DetailedCategoryAmount {
	out := make([]DetailedCategoryAmount, 0, len(b.byDetail))
	for _, d := range b.byDetail {
		d.Share = money.Share(d.Amount, total)
		d.Display = money.Display(d.Amount)
		out = append(out, *d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		if out[i].MajorName != out[j].MajorName {
			return out[i].MajorName < out[j].MajorName
		}
		return minorName(out[i]) < minorName(out[j])
	})
	return out
}

// minorName sorts the major-only bucket ahead of named minors.
func minorName(d DetailedCategoryAmount) string {
	if d.MinorName == nil {
		return ""
	}
	return "\x00" + *d.MinorName
}
