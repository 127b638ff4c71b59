package review

import (
	"reflect"
	"testing"
)

func TestAggregateTrendsGroupsByDayAndCohort(t *testing.T) {
	neg := "Negative"
	pos := "Positive"
	shipping := "shipping"

	rows := []TrendSource{
		{ReviewDate: "2026-08-01T08:00:00Z", Channel: "web", Sentiment: &neg, Theme: &shipping, StarRating: 1, Escalation: true},
		{ReviewDate: "2026-08-01T19:30:00Z", Channel: "web", Sentiment: &neg, Theme: &shipping, StarRating: 3},
		{ReviewDate: "2026-08-02T10:00:00Z", Channel: "web", Sentiment: &neg, Theme: &shipping, StarRating: 2},
		{ReviewDate: "2026-08-01T10:00:00Z", Channel: "mobile", Sentiment: &pos, Theme: &shipping, StarRating: 5},
		{ReviewDate: "2026-08-01T11:00:00Z", Channel: "web", Sentiment: nil, Theme: nil, StarRating: 0},
	}

	buckets := AggregateTrends(rows)
	if len(buckets) != 4 {
		t.Fatalf("len(buckets) = %d, want 4", len(buckets))
	}

	first := buckets[0]
	if first.Date != "2026-08-01" || first.Channel != "mobile" {
		t.Fatalf("unexpected first bucket %+v", first)
	}

	var webNeg *TrendBucket
	for i := range buckets {
		b := buckets[i]
		if b.Date == "2026-08-01" && b.Channel == "web" && b.Sentiment == "Negative" {
			webNeg = &buckets[i]
		}
	}
	if webNeg == nil {
		t.Fatal("missing web/Negative bucket for 2026-08-01")
	}
	if webNeg.ReviewCount != 2 {
		t.Fatalf("ReviewCount = %d", webNeg.ReviewCount)
	}
	if webNeg.EscalationCount != 1 {
		t.Fatalf("EscalationCount = %d", webNeg.EscalationCount)
	}
	if webNeg.AvgStarRating != 2 {
		t.Fatalf("AvgStarRating = %v", webNeg.AvgStarRating)
	}
}

func TestAggregateTrendsDeterministic(t *testing.T) {
	neg := "Negative"
	theme := "pricing"
	rows := []TrendSource{
		{ReviewDate: "2026-08-03T00:00:00Z", Channel: "web", Sentiment: &neg, Theme: &theme, StarRating: 2},
		{ReviewDate: "2026-08-01T00:00:00Z", Channel: "email", Sentiment: &neg, Theme: &theme, StarRating: 1},
		{ReviewDate: "2026-08-02T00:00:00Z", Channel: "web", Sentiment: &neg, Theme: &theme, StarRating: 3},
	}

	a := AggregateTrends(rows)
	b := AggregateTrends(rows)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("aggregation is not deterministic:\n%+v\n%+v", a, b)
	}
}

func cohortBuckets(counts []int) []TrendBucket {
	buckets := make([]TrendBucket, 0, len(counts))
	for i, c := range counts {
		buckets = append(buckets, TrendBucket{
			Date:        "2026-08-0" + string(rune('1'+i)),
			Channel:     "web",
			Sentiment:   "Negative",
			Theme:       "shipping",
			ReviewCount: c,
		})
	}
	return buckets
}

func TestFlagAnomaliesSpike(t *testing.T) {
	// Five flat days and one spike: mean 16.67, population stddev 14.91,
	// z for the spike is sqrt(5) ~= 2.24.
	flagged := FlagAnomalies(cohortBuckets([]int{10, 10, 10, 10, 10, 50}))

	for i, b := range flagged {
		wantAnomaly := b.ReviewCount == 50
		if b.Anomaly != wantAnomaly {
			t.Fatalf("bucket %d (count=%d) anomaly = %v, want %v", i, b.ReviewCount, b.Anomaly, wantAnomaly)
		}
	}
}

func TestFlagAnomaliesExactThresholdNotFlagged(t *testing.T) {
	// Four equal days and one spike give z exactly 2.0, which is not
	// strictly greater than the threshold.
	flagged := FlagAnomalies(cohortBuckets([]int{10, 10, 10, 10, 50}))

	for i, b := range flagged {
		if b.Anomaly {
			t.Fatalf("bucket %d (count=%d) flagged at z == 2.0", i, b.ReviewCount)
		}
	}
}

func TestFlagAnomaliesJustOverThreshold(t *testing.T) {
	// Counts [1,19,1,19,10,50]: mean 16.67, population stddev ~16.62, z
	// for the 50 bucket ~2.006. Just over the strict threshold, so only
	// that bucket is flagged.
	flagged := FlagAnomalies(cohortBuckets([]int{1, 19, 1, 19, 10, 50}))

	for i, b := range flagged {
		if b.ReviewCount == 50 {
			if !b.Anomaly {
				t.Fatalf("bucket %d (count=50) not flagged just above threshold", i)
			}
			continue
		}
		if b.Anomaly {
			t.Fatalf("bucket %d (count=%d) flagged unexpectedly", i, b.ReviewCount)
		}
	}
}

func TestFlagAnomaliesJustUnderThreshold(t *testing.T) {
	// Counts [10,11,9,10,50]: mean 18, population stddev ~16.01, z for
	// the 50 bucket ~1.998. Just under the strict threshold.
	flagged := FlagAnomalies(cohortBuckets([]int{10, 11, 9, 10, 50}))

	for i, b := range flagged {
		if b.Anomaly {
			t.Fatalf("bucket %d (count=%d) flagged below threshold", i, b.ReviewCount)
		}
	}
}

func TestFlagAnomaliesSingleBucketNeverAnomalous(t *testing.T) {
	flagged := FlagAnomalies(cohortBuckets([]int{100000}))
	if flagged[0].Anomaly {
		t.Fatal("single-bucket cohort flagged anomalous")
	}
}

func TestFlagAnomaliesSeparatesCohorts(t *testing.T) {
	buckets := append(cohortBuckets([]int{10, 10, 10, 10, 10, 50}), TrendBucket{
		Date:        "2026-08-01",
		Channel:     "mobile",
		Sentiment:   "Positive",
		Theme:       "pricing",
		ReviewCount: 9999,
	})

	flagged := FlagAnomalies(buckets)
	last := flagged[len(flagged)-1]
	if last.Anomaly {
		t.Fatal("lone bucket of a separate cohort flagged anomalous")
	}
}
