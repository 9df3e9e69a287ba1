package domain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifyTradeSize(t *testing.T) {
	tests := []struct {
		amount string
		want   TradeSizeCategory
	}{
		{"0", TradeSizeMicro},
		{"0.5", TradeSizeMicro},
		{"9.999999", TradeSizeMicro},
		{"10", TradeSizeSmall},
		{"99.99", TradeSizeSmall},
		{"100", TradeSizeMedium},
		{"999.5", TradeSizeMedium},
		{"1000", TradeSizeLarge},
		{"9999", TradeSizeLarge},
		{"10000", TradeSizeWhale},
		{"2500000", TradeSizeWhale},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := ClassifyTradeSize(decimal.RequireFromString(tt.amount))
			if got != tt.want {
				t.Errorf("ClassifyTradeSize(%s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestOrderedTiers(t *testing.T) {
	tests := []struct {
		category  TradeSizeCategory
		wantFirst FeeTier
		wantLast  FeeTier
	}{
		{TradeSizeMicro, FeeTier001, FeeTier100},
		{TradeSizeSmall, FeeTier005, FeeTier100},
		{TradeSizeMedium, FeeTier005, FeeTier100},
		{TradeSizeLarge, FeeTier030, FeeTier001},
		{TradeSizeWhale, FeeTier100, FeeTier001},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			tiers := OrderedTiers(tt.category)
			if len(tiers) != 4 {
				t.Fatalf("OrderedTiers(%s) returned %d tiers, want 4", tt.category, len(tiers))
			}
			if tiers[0] != tt.wantFirst {
				t.Errorf("first tier = %d, want %d", tiers[0], tt.wantFirst)
			}
			if tiers[3] != tt.wantLast {
				t.Errorf("last tier = %d, want %d", tiers[3], tt.wantLast)
			}

			// Every known tier appears exactly once
			seen := map[FeeTier]bool{}
			for _, tier := range tiers {
				if seen[tier] {
					t.Errorf("tier %d appears twice", tier)
				}
				seen[tier] = true
			}
		})
	}
}

func TestOrderedTiers_ReturnsCopy(t *testing.T) {
	first := OrderedTiers(TradeSizeMicro)
	first[0] = FeeTier100

	second := OrderedTiers(TradeSizeMicro)
	if second[0] != FeeTier001 {
		t.Errorf("ordering mutated by caller: got %d, want %d", second[0], FeeTier001)
	}
}

func TestOrderedTiersForAmount(t *testing.T) {
	// 5 * 10^18 raw at 18 decimals is 5 human units: micro
	raw, _ := new(big.Int).SetString("5000000000000000000", 10)
	tiers := OrderedTiersForAmount(raw, 18)
	if tiers[0] != FeeTier001 {
		t.Errorf("micro trade should probe lowest fee first, got %d", tiers[0])
	}

	// Same digits at 6 decimals is five trillion human units: whale
	tiers = OrderedTiersForAmount(raw, 6)
	if tiers[0] != FeeTier100 {
		t.Errorf("whale trade should probe highest fee first, got %d", tiers[0])
	}
}
