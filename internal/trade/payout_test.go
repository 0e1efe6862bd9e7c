package trade

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClampDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int
		want int
	}{
		{"zero", 0, 30},
		{"negative", -5, 30},
		{"below first bucket", 29, 30},
		{"exact 30", 30, 30},
		{"between 30 and 60", 59, 30},
		{"exact 60", 60, 60},
		{"between 60 and 120", 119, 60},
		{"exact 120", 120, 120},
		{"between 120 and 300", 299, 120},
		{"exact 300", 300, 300},
		{"above last bucket", 100000, 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampDuration(tc.in); got != tc.want {
				t.Fatalf("ClampDuration(%d) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestPayoutRate(t *testing.T) {
	cases := []struct {
		name string
		secs int
		want string
	}{
		{"30s pays 30pct", 30, "0.3"},
		{"60s pays 40pct", 60, "0.4"},
		{"120s pays 50pct", 120, "0.5"},
		{"300s pays 60pct", 300, "0.6"},
		{"odd duration snaps down", 90, "0.4"},
		{"tiny duration uses floor bucket", 1, "0.3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := decimal.RequireFromString(tc.want)
			if got := PayoutRate(tc.secs); !got.Equal(want) {
				t.Fatalf("PayoutRate(%d) = %s, want %s", tc.secs, got, want)
			}
		})
	}
}
