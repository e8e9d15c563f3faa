package collateral

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ensurePosition loads the account's ledger rows, materializing a zeroed
// position for previously absent keys and normalizing entries so the
// collateral slice always spans the full registry.
func (e *Engine) ensurePosition(addr common.Address) (*Position, error) {
	pos, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &Position{Address: addr}
	}
	if pos.Debt == nil {
		pos.Debt = big.NewInt(0)
	}
	for len(pos.Collateral) < e.registry.Len() {
		pos.Collateral = append(pos.Collateral, big.NewInt(0))
	}
	for i, entry := range pos.Collateral {
		if entry == nil {
			pos.Collateral[i] = big.NewInt(0)
		}
	}
	return pos, nil
}

// collateralValueOf sums balance times price across every registered asset.
// Assets the account does not hold contribute zero, so the iteration always
// covers the full registry.
func (e *Engine) collateralValueOf(pos *Position) (*big.Int, error) {
	total := big.NewInt(0)
	for i := 0; i < e.registry.Len(); i++ {
		balance := pos.Collateral[i]
		if balance.Sign() == 0 {
			continue
		}
		value, err := usdValue(e.registry.feedAt(i), balance)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}

// checkedSub returns a-b, or sentinel when the subtraction would take the
// balance below zero. Underflow aborts the whole operation, never clamps.
func checkedSub(a, b *big.Int, sentinel error) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, sentinel
	}
	return new(big.Int).Sub(a, b), nil
}
