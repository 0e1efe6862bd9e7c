package trade

import "github.com/shopspring/decimal"

// Payout percentages per duration bucket. Longer holds pay more.
var payoutPercent = map[int]int64{
	30:  30,
	60:  40,
	120: 50,
	300: 60,
}

// Descending so ClampDuration can snap to the largest bucket not above the
// requested duration.
var durationBuckets = []int{300, 120, 60, 30}

// ClampDuration snaps an arbitrary requested duration to a supported bucket.
// Durations between buckets round down; anything under 30s becomes 30s.
func ClampDuration(secs int) int {
	for _, b := range durationBuckets {
		if secs >= b {
			return b
		}
	}
	return 30
}

// PayoutRate returns the profit multiplier for a duration, e.g. 0.40 means a
// winning stake of 100 pays 40 profit.
func PayoutRate(secs int) decimal.Decimal {
	pct := payoutPercent[ClampDuration(secs)]
	return decimal.NewFromInt(pct).Div(decimal.NewFromInt(100))
}
