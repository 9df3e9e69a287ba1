package dragonswap

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/business/dex/app"
	"github.com/tamago-labs/kaia-mcp/business/dex/domain"
	"github.com/tamago-labs/kaia-mcp/internal/config"
)

func TestRouter_ExactInputSingleEncoding(t *testing.T) {
	routerContract := common.HexToAddress("0x00000000000000000000000000000000000000DD")
	router, err := NewRouter(config.DragonSwapConfig{
		FactoryAddress: factoryAddr.Hex(),
		RouterAddress:  routerContract.Hex(),
	})
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	if router.Address() != routerContract {
		t.Errorf("Address() = %s, want %s", router.Address().Hex(), routerContract.Hex())
	}

	params := app.ExactInputSingleParams{
		TokenIn:          tokenAAddr,
		TokenOut:         tokenBAddr,
		Fee:              domain.FeeTier030,
		Recipient:        common.HexToAddress("0x00000000000000000000000000000000000000EE"),
		Deadline:         big.NewInt(1_700_000_000),
		AmountIn:         big.NewInt(123_456),
		AmountOutMinimum: big.NewInt(120_000),
	}

	callData, err := router.ExactInputSingle(params)
	if err != nil {
		t.Fatalf("ExactInputSingle() error = %v", err)
	}

	routerABI, err := abi.JSON(strings.NewReader(RouterABI))
	if err != nil {
		t.Fatalf("parse router ABI: %v", err)
	}
	method := routerABI.Methods["exactInputSingle"]

	if !bytes.Equal(callData[:4], method.ID) {
		t.Errorf("selector = %x, want %x", callData[:4], method.ID)
	}

	// The params tuple is eight static fields: 4-byte selector + 8 words.
	wantLen := 4 + 8*32
	if len(callData) != wantLen {
		t.Fatalf("calldata length = %d, want %d", len(callData), wantLen)
	}

	word := func(i int) []byte { return callData[4+i*32 : 4+(i+1)*32] }

	checks := []struct {
		name string
		idx  int
		want *big.Int
	}{
		{"tokenIn", 0, new(big.Int).SetBytes(tokenAAddr.Bytes())},
		{"tokenOut", 1, new(big.Int).SetBytes(tokenBAddr.Bytes())},
		{"fee", 2, big.NewInt(int64(domain.FeeTier030))},
		{"recipient", 3, new(big.Int).SetBytes(params.Recipient.Bytes())},
		{"deadline", 4, params.Deadline},
		{"amountIn", 5, params.AmountIn},
		{"amountOutMinimum", 6, params.AmountOutMinimum},
		{"sqrtPriceLimitX96", 7, big.NewInt(0)},
	}
	for _, c := range checks {
		got := new(big.Int).SetBytes(word(c.idx))
		if got.Cmp(c.want) != 0 {
			t.Errorf("%s word = %s, want %s", c.name, got, c.want)
		}
	}
}
