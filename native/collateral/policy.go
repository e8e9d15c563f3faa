package collateral

import "math/big"

// healthFactor computes the fixed-point solvency ratio for the given
// collateral value and debt. Only LiquidationThresholdPct of the nominal
// collateral value counts toward solvency. Zero debt reports the maximum
// sentinel; the division is never evaluated with a zero denominator.
func healthFactor(collateralValue, debt *big.Int, thresholdPct uint64) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(maxHealthFactor)
	}
	adjusted := new(big.Int).Mul(collateralValue, new(big.Int).SetUint64(thresholdPct))
	adjusted.Quo(adjusted, hundred)
	adjusted.Mul(adjusted, precision)
	return adjusted.Quo(adjusted, debt)
}

func (e *Engine) healthFactorOf(pos *Position) (*big.Int, error) {
	collateralValue, err := e.collateralValueOf(pos)
	if err != nil {
		return nil, err
	}
	return healthFactor(collateralValue, pos.Debt, e.params.LiquidationThresholdPct), nil
}

// assertSolvent aborts the calling operation when the position's health
// factor is below 1.0. It must run against post-mutation ledger state as the
// last check of every solvency-reducing operation.
func (e *Engine) assertSolvent(pos *Position) error {
	factor, err := e.healthFactorOf(pos)
	if err != nil {
		return err
	}
	if factor.Cmp(precision) < 0 {
		return &BrokenHealthFactorError{Account: pos.Address, HealthFactor: factor}
	}
	return nil
}
