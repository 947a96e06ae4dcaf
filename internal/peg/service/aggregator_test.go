package service

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestAggregateWeighted verifies the documented scenario:
// points [{10, w1}, {20, w3}] → basePrice 17.5, rawAverage 15
func TestAggregateWeighted(t *testing.T) {
	points := []PointInput{
		{Price: 10, Weight: 1},
		{Price: 20, Weight: 3},
	}

	res := Aggregate(points, nil)

	if !almostEqual(res.BasePrice, 17.5) {
		t.Errorf("expected basePrice 17.5, got %v", res.BasePrice)
	}
	if !almostEqual(res.RawAverage, 15) {
		t.Errorf("expected rawAverage 15, got %v", res.RawAverage)
	}
	if !almostEqual(res.AdjustedPrice, 17.5) {
		t.Errorf("expected adjustedPrice 17.5 with no modifiers, got %v", res.AdjustedPrice)
	}
}

// TestAggregateNonPositiveWeights: weight <= 0 degrades to 1, so with all
// weights non-positive the weighted mean equals the arithmetic mean
func TestAggregateNonPositiveWeights(t *testing.T) {
	points := []PointInput{
		{Price: 10, Weight: 0},
		{Price: 20, Weight: -2},
		{Price: 60, Weight: 0},
	}

	res := Aggregate(points, nil)

	if !almostEqual(res.BasePrice, res.RawAverage) {
		t.Errorf("expected basePrice == rawAverage, got %v vs %v", res.BasePrice, res.RawAverage)
	}
	if !almostEqual(res.BasePrice, 30) {
		t.Errorf("expected basePrice 30, got %v", res.BasePrice)
	}
}

// TestAggregateBasePriceBounds: with at least one positive weight the
// weighted mean stays within [min, max] of the input prices
func TestAggregateBasePriceBounds(t *testing.T) {
	points := []PointInput{
		{Price: 5, Weight: 2},
		{Price: 50, Weight: 0.5},
		{Price: 17, Weight: 0},
	}

	res := Aggregate(points, nil)

	if res.BasePrice < 5 || res.BasePrice > 50 {
		t.Errorf("basePrice %v outside [5, 50]", res.BasePrice)
	}
}

// TestAggregateEmpty: degenerate input yields zeros, never an error
func TestAggregateEmpty(t *testing.T) {
	res := Aggregate(nil, nil)

	if res.BasePrice != 0 || res.RawAverage != 0 || res.AdjustedPrice != 0 {
		t.Errorf("expected all-zero result for empty input, got %+v", res)
	}
}

// TestAggregateModifiers: adjustedPrice = basePrice + Σ modifier amounts
func TestAggregateModifiers(t *testing.T) {
	points := []PointInput{{Price: 100, Weight: 1}}
	modifiers := []ModifierInput{
		{Label: "shipping", Amount: -5},
		{Label: "demand", Amount: 12.5},
	}

	res := Aggregate(points, modifiers)

	if !almostEqual(res.ModifierTotal, 7.5) {
		t.Errorf("expected modifierTotal 7.5, got %v", res.ModifierTotal)
	}
	if !almostEqual(res.AdjustedPrice, 107.5) {
		t.Errorf("expected adjustedPrice 107.5, got %v", res.AdjustedPrice)
	}
}

// TestBuyBand: margin 25, adjusted 100 → low 25.00, high 26.25
func TestBuyBand(t *testing.T) {
	low, high := BuyBand(100, 25)

	if !almostEqual(low, 25) {
		t.Errorf("expected low 25, got %v", low)
	}
	if !almostEqual(high, 26.25) {
		t.Errorf("expected high 26.25, got %v", high)
	}
	if !almostEqual(high, low*1.05) {
		t.Errorf("high must equal low*1.05 exactly, got %v vs %v", high, low*1.05)
	}
}

func TestBuyBandZeroAdjusted(t *testing.T) {
	low, high := BuyBand(0, 80)

	if low != 0 || high != 0 {
		t.Errorf("expected zero band for zero adjusted price, got %v / %v", low, high)
	}
}
