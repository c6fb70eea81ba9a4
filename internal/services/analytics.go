package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/storage"
)

const (
	analyticsCacheSize = 256
	analyticsCacheTTL  = 30 * time.Second
)

// AnalyticsService serves the bucketed time series and category
// breakdowns behind the charts. It is read-only and fails closed: an
// empty ledger yields zero-filled series, never an error.
//
// Results are cached per user with a short TTL; ledger writes bump the
// user's generation counter, which orphans every cached key at once.
type AnalyticsService struct {
	store      storage.AggregateStore
	categories storage.CategoryStore

	series    *cache.LRUCache[[]core.TimePoint]
	breakdown *cache.LRUCache[[]core.CategoryTotal]

	mu  sync.Mutex
	gen map[core.UserID]uint64

	today func() core.Date
}

func NewAnalyticsService(store storage.AggregateStore, categories storage.CategoryStore) *AnalyticsService {
	return &AnalyticsService{
		store:      store,
		categories: categories,
		series:     cache.NewLRUCache[[]core.TimePoint](analyticsCacheSize, analyticsCacheTTL),
		breakdown:  cache.NewLRUCache[[]core.CategoryTotal](analyticsCacheSize, analyticsCacheTTL),
		gen:        make(map[core.UserID]uint64),
		today:      core.Today,
	}
}

// WithClock overrides the notion of "today". Tests only.
func (s *AnalyticsService) WithClock(today func() core.Date) *AnalyticsService {
	s.today = today
	return s
}

// Invalidate implements Invalidator: after a write, every cached series
// for the user becomes unreachable.
func (s *AnalyticsService) Invalidate(userID core.UserID) {
	s.mu.Lock()
	s.gen[userID]++
	s.mu.Unlock()
}

func (s *AnalyticsService) generation(userID core.UserID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[userID]
}

// Caches registers the analytics caches with a cleanup manager.
func (s *AnalyticsService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.series, s.breakdown}
}

// DailyTotals returns one point per calendar day for the last n days,
// chronological, with zero totals for days without expenses.
func (s *AnalyticsService) DailyTotals(ctx context.Context, userID core.UserID, n int) ([]core.TimePoint, error) {
	if n <= 0 {
		return []core.TimePoint{}, nil
	}

	today := s.today()
	from := today.AddDays(-(n - 1))

	key := s.cacheKey(userID, "daily", n)
	if cached, ok := s.series.Get(key); ok {
		return cached, nil
	}

	byLabel, err := s.sumsByLabel(ctx, userID, from, today, core.DailyLabel)
	if err != nil {
		return nil, err
	}

	points := make([]core.TimePoint, 0, n)
	for d := from; !d.After(today.Time); d = d.AddDays(1) {
		label := core.DailyLabel(d)
		points = append(points, core.TimePoint{Label: label, Start: d, Total: core.FromCents(byLabel[label])})
	}

	s.series.Set(key, points)
	return points, nil
}

// WeeklyTotals returns the last n ISO weeks, oldest first. The current
// partial week counts as the most recent bucket.
func (s *AnalyticsService) WeeklyTotals(ctx context.Context, userID core.UserID, n int) ([]core.TimePoint, error) {
	if n <= 0 {
		return []core.TimePoint{}, nil
	}

	today := s.today()
	thisWeek := startOfISOWeek(today)
	from := thisWeek.AddDays(-7 * (n - 1))

	key := s.cacheKey(userID, "weekly", n)
	if cached, ok := s.series.Get(key); ok {
		return cached, nil
	}

	byLabel, err := s.sumsByLabel(ctx, userID, from, today, core.WeeklyLabel)
	if err != nil {
		return nil, err
	}

	points := make([]core.TimePoint, 0, n)
	for i := 0; i < n; i++ {
		start := from.AddDays(7 * i)
		label := core.WeeklyLabel(start)
		points = append(points, core.TimePoint{Label: label, Start: start, Total: core.FromCents(byLabel[label])})
	}

	s.series.Set(key, points)
	return points, nil
}

// MonthlyTotals returns the last n calendar months, oldest first.
func (s *AnalyticsService) MonthlyTotals(ctx context.Context, userID core.UserID, n int) ([]core.TimePoint, error) {
	return s.calendarTotals(ctx, userID, "monthly", n, core.MonthlyLabel, func(today core.Date, back int) core.Date {
		first := core.NewDate(today.Year(), int(today.Month()), 1)
		return core.Date{Time: first.AddDate(0, -back, 0)}
	})
}

// YearlyTotals returns the last n calendar years, oldest first.
func (s *AnalyticsService) YearlyTotals(ctx context.Context, userID core.UserID, n int) ([]core.TimePoint, error) {
	return s.calendarTotals(ctx, userID, "yearly", n, core.YearlyLabel, func(today core.Date, back int) core.Date {
		return core.NewDate(today.Year()-back, 1, 1)
	})
}

func (s *AnalyticsService) calendarTotals(ctx context.Context, userID core.UserID, bucket string, n int,
	label func(core.Date) string, bucketStart func(today core.Date, back int) core.Date) ([]core.TimePoint, error) {
	if n <= 0 {
		return []core.TimePoint{}, nil
	}

	today := s.today()
	from := bucketStart(today, n-1)

	key := s.cacheKey(userID, bucket, n)
	if cached, ok := s.series.Get(key); ok {
		return cached, nil
	}

	byLabel, err := s.sumsByLabel(ctx, userID, from, today, label)
	if err != nil {
		return nil, err
	}

	points := make([]core.TimePoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := bucketStart(today, i)
		l := label(start)
		points = append(points, core.TimePoint{Label: l, Start: start, Total: core.FromCents(byLabel[l])})
	}

	s.series.Set(key, points)
	return points, nil
}

// CategoryBreakdown sums the range per category, pairing each with its
// configured color, ordered by descending total with name as the stable
// tie-break for deterministic chart rendering.
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, userID core.UserID, from, to core.Date) ([]core.CategoryTotal, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}
	if to.Before(from.Time) {
		return nil, fmt.Errorf("%w: range end precedes start", core.ErrValidation)
	}

	key := fmt.Sprintf("%s:%d:breakdown:%s:%s", userID, s.generation(userID), from, to)
	if cached, ok := s.breakdown.Get(key); ok {
		return cached, nil
	}

	sums, err := s.store.SumByCategory(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}

	colors := map[string]string{}
	cats, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("category colors: %w", err)
	}
	for _, c := range cats {
		colors[c.Name] = c.Color
	}

	totals := make([]core.CategoryTotal, 0, len(sums))
	for _, cs := range sums {
		color, ok := colors[cs.Category]
		if !ok {
			color = core.DefaultCategoryColor
		}
		totals = append(totals, core.CategoryTotal{
			Name:  cs.Category,
			Color: color,
			Total: core.FromCents(cs.Cents),
		})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total.Cents != totals[j].Total.Cents {
			return totals[i].Total.Cents > totals[j].Total.Cents
		}
		return totals[i].Name < totals[j].Name
	})

	s.breakdown.Set(key, totals)
	return totals, nil
}

func (s *AnalyticsService) cacheKey(userID core.UserID, bucket string, n int) string {
	return fmt.Sprintf("%s:%d:%s:%d", userID, s.generation(userID), bucket, n)
}

func (s *AnalyticsService) sumsByLabel(ctx context.Context, userID core.UserID, from, to core.Date,
	label func(core.Date) string) (map[string]int64, error) {
	sums, err := s.store.SumByDay(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum by day: %w", err)
	}

	byLabel := make(map[string]int64, len(sums))
	for _, ds := range sums {
		byLabel[label(ds.Date)] += ds.Cents
	}
	return byLabel, nil
}

// startOfISOWeek returns the Monday of the date's ISO week.
func startOfISOWeek(d core.Date) core.Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}
