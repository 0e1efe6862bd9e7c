package trade

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOutcomeFor(t *testing.T) {
	entry := decimal.NewFromInt(64000)
	above := decimal.NewFromInt(64100)
	below := decimal.NewFromInt(63900)

	cases := []struct {
		name      string
		mode      string
		direction string
		current   decimal.Decimal
		want      string
	}{
		{"forced win ignores market", ModeWin, DirectionBuy, below, ResultWin},
		{"forced win on sell", ModeWin, DirectionSell, above, ResultWin},
		{"platform all win", ModeAllWin, DirectionSell, above, ResultWin},
		{"forced lose ignores market", ModeLose, DirectionBuy, above, ResultLose},
		{"platform all lose", ModeAllLose, DirectionSell, below, ResultLose},
		{"auto buy above entry wins", ModeAuto, DirectionBuy, above, ResultWin},
		{"auto buy below entry loses", ModeAuto, DirectionBuy, below, ResultLose},
		{"auto buy flat loses", ModeAuto, DirectionBuy, entry, ResultLose},
		{"auto sell below entry wins", ModeAuto, DirectionSell, below, ResultWin},
		{"auto sell above entry loses", ModeAuto, DirectionSell, above, ResultLose},
		{"auto sell flat loses", ModeAuto, DirectionSell, entry, ResultLose},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := outcomeFor(tc.mode, tc.direction, entry, tc.current)
			if got != tc.want {
				t.Fatalf("outcomeFor(%s, %s, %s, %s) = %s, want %s",
					tc.mode, tc.direction, entry, tc.current, got, tc.want)
			}
		})
	}
}

func TestSettlePriceFor(t *testing.T) {
	entry := decimal.NewFromInt(50000)
	minOffset := entry.Mul(decimal.RequireFromString("0.001"))
	maxOffset := entry.Mul(decimal.RequireFromString("0.008"))

	cases := []struct {
		name      string
		direction string
		result    string
		aboveIn   bool
	}{
		{"winning buy closes above entry", DirectionBuy, ResultWin, true},
		{"losing buy closes below entry", DirectionBuy, ResultLose, false},
		{"winning sell closes below entry", DirectionSell, ResultWin, false},
		{"losing sell closes above entry", DirectionSell, ResultLose, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				settle := settlePriceFor(entry, tc.direction, tc.result)
				if tc.aboveIn && !settle.GreaterThan(entry) {
					t.Fatalf("settle %s not above entry %s", settle, entry)
				}
				if !tc.aboveIn && !settle.LessThan(entry) {
					t.Fatalf("settle %s not below entry %s", settle, entry)
				}
				diff := settle.Sub(entry).Abs()
				if diff.LessThan(minOffset) || diff.GreaterThan(maxOffset) {
					t.Fatalf("offset %s outside 10..80 bps of %s", diff, entry)
				}
			}
		})
	}
}
