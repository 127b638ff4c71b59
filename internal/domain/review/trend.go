package review

import (
	"math"
	"sort"
	"time"
)

// TrendSource is the slice of a processed response the aggregator needs.
type TrendSource struct {
	ReviewDate string
	Channel    string
	Sentiment  *string
	Theme      *string
	StarRating int
	Escalation bool
}

// TrendBucket is one aggregate row keyed by (date, channel, sentiment, theme).
type TrendBucket struct {
	Date            string
	Channel         string
	Sentiment       string
	Theme           string
	ReviewCount     int
	EscalationCount int
	AvgStarRating   float64
	Anomaly         bool
}

type cohortKey struct {
	Channel   string
	Sentiment string
	Theme     string
}

// AggregateTrends groups source rows into per-day buckets. Rows with a
// failed classification keep empty sentiment/theme labels and form their
// own buckets. Output ordering is deterministic.
func AggregateTrends(rows []TrendSource) []TrendBucket {
	type accum struct {
		count      int
		escalation int
		ratingSum  int
	}

	type bucketKey struct {
		Date string
		cohortKey
	}

	totals := make(map[bucketKey]*accum)
	for _, row := range rows {
		key := bucketKey{
			Date: bucketDay(row.ReviewDate),
			cohortKey: cohortKey{
				Channel:   row.Channel,
				Sentiment: deref(row.Sentiment),
				Theme:     deref(row.Theme),
			},
		}
		acc := totals[key]
		if acc == nil {
			acc = &accum{}
			totals[key] = acc
		}
		acc.count++
		acc.ratingSum += row.StarRating
		if row.Escalation {
			acc.escalation++
		}
	}

	buckets := make([]TrendBucket, 0, len(totals))
	for key, acc := range totals {
		buckets = append(buckets, TrendBucket{
			Date:            key.Date,
			Channel:         key.Channel,
			Sentiment:       key.Sentiment,
			Theme:           key.Theme,
			ReviewCount:     acc.count,
			EscalationCount: acc.escalation,
			AvgStarRating:   float64(acc.ratingSum) / float64(acc.count),
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		if a.Sentiment != b.Sentiment {
			return a.Sentiment < b.Sentiment
		}
		return a.Theme < b.Theme
	})
	return buckets
}

// FlagAnomalies marks buckets whose review count sits more than two
// population standard deviations above their cohort mean. Cohorts with a
// single bucket get stddev substituted to 1, so z is 0 and the bucket is
// never flagged: one observation has no variance to compare against.
func FlagAnomalies(buckets []TrendBucket) []TrendBucket {
	cohorts := make(map[cohortKey][]int, len(buckets))
	for i, b := range buckets {
		key := cohortKey{Channel: b.Channel, Sentiment: b.Sentiment, Theme: b.Theme}
		cohorts[key] = append(cohorts[key], i)
	}

	out := make([]TrendBucket, len(buckets))
	copy(out, buckets)

	for _, indexes := range cohorts {
		mean := 0.0
		for _, i := range indexes {
			mean += float64(out[i].ReviewCount)
		}
		mean /= float64(len(indexes))

		variance := 0.0
		for _, i := range indexes {
			diff := float64(out[i].ReviewCount) - mean
			variance += diff * diff
		}
		stddev := math.Sqrt(variance / float64(len(indexes)))
		if stddev == 0 {
			stddev = 1
		}

		for _, i := range indexes {
			z := (float64(out[i].ReviewCount) - mean) / stddev
			out[i].Anomaly = z > 2
		}
	}
	return out
}

func bucketDay(reviewDate string) string {
	if t, err := time.Parse(time.RFC3339, reviewDate); err == nil {
		return t.UTC().Format("2006-01-02")
	}
	if len(reviewDate) >= 10 {
		if t, err := time.Parse("2006-01-02", reviewDate[:10]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return reviewDate
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
