package assets

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"stablecore/storage"
)

func TestTransferMovesBalance(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	owner := common.HexToAddress("0x10")
	custody := common.HexToAddress("0x11")

	if err := ledger.Mint("WETH", owner, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer("WETH", owner, custody, big.NewInt(200)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	held, err := ledger.BalanceOf("WETH", custody)
	if err != nil || held.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("unexpected custody balance %s (err %v)", held, err)
	}
	remaining, _ := ledger.BalanceOf("WETH", owner)
	if remaining.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("unexpected owner balance %s", remaining)
	}
}

func TestTransferRejectsOverdraft(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	owner := common.HexToAddress("0x12")
	custody := common.HexToAddress("0x13")

	if err := ledger.Transfer("WBTC", owner, custody, big.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if err := ledger.Mint("WBTC", owner, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestBalancesAreAssetScoped(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	owner := common.HexToAddress("0x14")

	if err := ledger.Mint("WETH", owner, big.NewInt(7)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	other, err := ledger.BalanceOf("WBTC", owner)
	if err != nil || other.Sign() != 0 {
		t.Fatalf("expected zero WBTC balance, got %s (err %v)", other, err)
	}
}
