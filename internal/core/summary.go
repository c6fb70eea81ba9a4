package core

import "fmt"

// Bucket granularities for time-series aggregation.
type Bucket string

const (
	BucketDaily   Bucket = "daily"
	BucketWeekly  Bucket = "weekly"
	BucketMonthly Bucket = "monthly"
	BucketYearly  Bucket = "yearly"
)

// TimePoint is one bucket of a time series: a label plus the summed
// amount. Zero-valued buckets are included so charts render gaps.
type TimePoint struct {
	Label string // "2024-01-15", "2024-W03", "2024-01" or "2024"
	Start Date
	Total Money
}

// CategoryTotal is one slice of a category breakdown, paired with the
// category's configured display color.
type CategoryTotal struct {
	Name  string
	Color string
	Total Money
}

// DailyLabel renders the bucket label for a calendar day.
func DailyLabel(d Date) string {
	return d.Format("2006-01-02")
}

// WeeklyLabel renders the ISO 8601 week label, e.g. "2024-W03".
func WeeklyLabel(d Date) string {
	year, week := d.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthlyLabel renders the calendar month label, e.g. "2024-01".
func MonthlyLabel(d Date) string {
	return d.Format("2006-01")
}

// YearlyLabel renders the calendar year label.
func YearlyLabel(d Date) string {
	return d.Format("2006")
}
