package domain

import (
	"math/big"
	"testing"

	"github.com/tamago-labs/kaia-mcp/internal/apperror"
)

func TestApplyMinimumOut(t *testing.T) {
	tests := []struct {
		name        string
		amountOut   string
		slippageBps int64
		want        string
	}{
		{"zero_slippage_identity", "100000000000000000000", 0, "100000000000000000000"},
		{"fifty_bps", "100000000000000000000", 50, "99500000000000000000"},
		{"one_percent", "1000000", 100, "990000"},
		{"max_valid", "10000", 9999, "1"},
		{"floors_remainder", "3", 1, "2"}, // 3 * 9999 / 10000 = 2.9997
		{"zero_amount", "0", 50, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyMinimumOut(mustBig(t, tt.amountOut), tt.slippageBps)
			if err != nil {
				t.Fatalf("ApplyMinimumOut() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("ApplyMinimumOut() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestApplyMinimumOut_InvalidSlippage(t *testing.T) {
	for _, bps := range []int64{-1, -10000, 10000, 10001, 999999} {
		_, err := ApplyMinimumOut(big.NewInt(1000), bps)
		if err == nil {
			t.Errorf("ApplyMinimumOut(bps=%d) expected error, got nil", bps)
			continue
		}
		if got := apperror.GetCode(err); got != apperror.CodeInvalidSlippage {
			t.Errorf("ApplyMinimumOut(bps=%d) code = %s, want %s", bps, got, apperror.CodeInvalidSlippage)
		}
	}
}

func TestApplyMinimumOut_DecreasingInSlippage(t *testing.T) {
	out := mustBig(t, "123456789123456789")

	prev := new(big.Int).Add(out, big.NewInt(1))
	for bps := int64(0); bps < 10000; bps += 250 {
		min, err := ApplyMinimumOut(out, bps)
		if err != nil {
			t.Fatalf("ApplyMinimumOut(bps=%d) error = %v", bps, err)
		}
		if min.Cmp(out) > 0 {
			t.Fatalf("minimum %s exceeds expected output %s", min, out)
		}
		if min.Cmp(prev) >= 0 {
			t.Fatalf("minimum not strictly decreasing at bps=%d: %s then %s", bps, prev, min)
		}
		prev = min
	}
}
