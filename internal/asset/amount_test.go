package asset_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

func TestAmount_Basic(t *testing.T) {
	// 1 KAIA = 1e18 kei
	oneKAIA := asset.NewAmount(asset.KAIA, big.NewInt(1e18))

	if oneKAIA.IsZero() {
		t.Error("expected non-zero amount")
	}

	// ToDecimal should return 1.0
	d := oneKAIA.ToDecimal()
	if !d.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", d.String())
	}

	// String should be "1 KAIA"
	if oneKAIA.String() != "1 KAIA" {
		t.Errorf("expected '1 KAIA', got '%s'", oneKAIA.String())
	}
}

func TestAmount_Add(t *testing.T) {
	oneKAIA := asset.NewAmount(asset.KAIA, big.NewInt(1e18))
	twoKAIA := asset.NewAmount(asset.KAIA, big.NewInt(2e18))

	sum, err := oneKAIA.Add(twoKAIA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := decimal.NewFromInt(3)
	if !sum.ToDecimal().Equal(expected) {
		t.Errorf("expected 3, got %s", sum.ToDecimal().String())
	}
}

func TestAmount_CannotAddDifferentAssets(t *testing.T) {
	oneKAIA := asset.NewAmount(asset.KAIA, big.NewInt(1e18))
	oneUSDT := asset.NewAmount(asset.USDT, big.NewInt(1e6))

	_, err := oneKAIA.Add(oneUSDT)
	if err == nil {
		t.Error("expected error when adding different assets")
	}
}

func TestAmount_Sub(t *testing.T) {
	threeKAIA := asset.NewAmount(asset.KAIA, big.NewInt(3e18))
	oneKAIA := asset.NewAmount(asset.KAIA, big.NewInt(1e18))

	diff, err := threeKAIA.Sub(oneKAIA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := decimal.NewFromInt(2)
	if !diff.ToDecimal().Equal(expected) {
		t.Errorf("expected 2, got %s", diff.ToDecimal().String())
	}
}

func TestAmount_SubNegativeError(t *testing.T) {
	oneKAIA := asset.NewAmount(asset.KAIA, big.NewInt(1e18))
	twoKAIA := asset.NewAmount(asset.KAIA, big.NewInt(2e18))

	_, err := oneKAIA.Sub(twoKAIA)
	if err == nil {
		t.Error("expected error for negative result")
	}
}

func TestParseDecimal(t *testing.T) {
	// Parse "1.5" KAIA
	d := decimal.NewFromFloat(1.5)
	amount, err := asset.ParseDecimal(asset.KAIA, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should be 1.5e18 kei
	expected := big.NewInt(0)
	expected.SetString("1500000000000000000", 10)

	if amount.Raw().Cmp(expected) != 0 {
		t.Errorf("expected %s, got %s", expected.String(), amount.Raw().String())
	}
}

func TestParseDecimal_TooManyDecimals(t *testing.T) {
	// USDT has 6 decimals, try to parse 1.1234567 (7 decimals)
	d := decimal.NewFromFloat(1.1234567)
	_, err := asset.ParseDecimal(asset.USDT, d)
	if err == nil {
		t.Error("expected error for too many decimals")
	}
}

func TestParseDecimal_RoundTrip(t *testing.T) {
	// Human -> raw -> human must recover the original value exactly
	// as long as it fits within the asset's decimals.
	cases := []struct {
		asset *asset.Asset
		value string
	}{
		{asset.KAIA, "1.5"},
		{asset.KAIA, "0.000000000000000001"}, // 1 kei
		{asset.USDT, "1234.567891"},
		{asset.USDT, "0.000001"},
		{asset.BORA, "999999999.123456789012345678"},
	}

	for _, tc := range cases {
		d := decimal.RequireFromString(tc.value)
		amount, err := asset.ParseDecimal(tc.asset, d)
		if err != nil {
			t.Fatalf("%s %s: unexpected error: %v", tc.value, tc.asset.Symbol(), err)
		}

		back := amount.ToDecimal()
		if !back.Equal(d) {
			t.Errorf("%s %s: round-trip mismatch, got %s", tc.value, tc.asset.Symbol(), back.String())
		}
	}
}

func TestPrice_Convert(t *testing.T) {
	// KAIA/USDT price = 0.15
	price := asset.NewPriceNow(asset.KAIA, asset.USDT, decimal.NewFromFloat(0.15))

	// 100 KAIA
	hundredKAIA := asset.NewAmount(asset.KAIA, new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18)))

	// Convert to USDT
	usdt, err := price.Convert(hundredKAIA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should be 15 USDT (15 * 1e6)
	expectedUSDT := decimal.NewFromInt(15)
	if !usdt.ToDecimal().Equal(expectedUSDT) {
		t.Errorf("expected %s USDT, got %s", expectedUSDT.String(), usdt.ToDecimal().String())
	}
}

func TestPrice_Invert(t *testing.T) {
	// KAIA/USDT = 0.16
	price := asset.NewPriceNow(asset.KAIA, asset.USDT, decimal.NewFromFloat(0.16))

	// Invert to USDT/KAIA = 6.25
	inverted := price.Invert()

	expected := decimal.NewFromFloat(6.25)
	// Allow small precision error
	diff := inverted.Rate().Sub(expected).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(0.0000001)) {
		t.Errorf("expected ~6.25, got %s", inverted.Rate().String())
	}
}

func TestAssetID_Identity(t *testing.T) {
	usdtKaia := asset.NewTokenAssetID(asset.ChainIDKaia, asset.AddrUSDT)
	usdtKaia2 := asset.NewTokenAssetID(asset.ChainIDKaia, asset.AddrUSDT)

	if !usdtKaia.Equals(usdtKaia2) {
		t.Error("same asset should have equal IDs")
	}

	// Same address on a different chain is a different asset
	usdtKairos := asset.NewTokenAssetID(asset.ChainIDKairos, asset.AddrUSDT)

	if usdtKaia.Equals(usdtKairos) {
		t.Error("different chains should have different IDs")
	}
}

func TestRegistry(t *testing.T) {
	r := asset.DefaultRegistry()

	// Should find KAIA
	kaia, ok := r.GetNative(asset.ChainIDKaia)
	if !ok {
		t.Fatal("KAIA not found in registry")
	}
	if kaia.Symbol() != "KAIA" {
		t.Errorf("expected KAIA, got %s", kaia.Symbol())
	}

	// Should find USDT by symbol and chain
	usdt, ok := r.GetBySymbolAndChain("USDT", asset.ChainIDKaia)
	if !ok {
		t.Fatal("USDT not found in registry")
	}
	if usdt.Decimals() != 6 {
		t.Errorf("expected 6 decimals, got %d", usdt.Decimals())
	}

	// Symbol lookup is case-insensitive
	if _, ok := r.GetBySymbolAndChain("stkaia", asset.ChainIDKaia); !ok {
		t.Error("expected case-insensitive symbol lookup for stKAIA")
	}
}
