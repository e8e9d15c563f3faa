package collateral

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const moduleName = "collateral"

var (
	// precision is the fixed-point scale of health factors and USD values.
	precision = big.NewInt(1_000_000_000_000_000_000)
	hundred   = big.NewInt(100)

	// maxHealthFactor is the sentinel reported for accounts with zero debt.
	maxHealthFactor = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// Params groups the fixed protocol risk constants.
type Params struct {
	// LiquidationThresholdPct is the share of nominal collateral value that
	// counts toward solvency. 50 means 200% nominal collateralization.
	LiquidationThresholdPct uint64
	// LiquidationBonusPct is the collateral premium awarded to liquidators.
	LiquidationBonusPct uint64
}

// DefaultParams returns the protocol constants.
func DefaultParams() Params {
	return Params{LiquidationThresholdPct: 50, LiquidationBonusPct: 10}
}

func (p Params) validate() error {
	if p.LiquidationThresholdPct == 0 || p.LiquidationThresholdPct > 100 {
		return ErrInvalidParams
	}
	if p.LiquidationBonusPct >= 100 {
		return ErrInvalidParams
	}
	return nil
}

// Position maintains the collateral and debt ledger rows for one account.
// Collateral entries are aligned with the registry's asset order, which is
// fixed at construction.
type Position struct {
	Address    common.Address
	Collateral []*big.Int
	Debt       *big.Int
}
