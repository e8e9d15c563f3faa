package collateral

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stablecore/core/events"
	nativecommon "stablecore/native/common"
)

// StableLedger is the external synthetic-token ledger. The engine is the sole
// component authorized to mint and burn on it.
type StableLedger interface {
	Mint(to common.Address, amount *big.Int) error
	Burn(from common.Address, amount *big.Int) error
	Transfer(from, to common.Address, amount *big.Int) error
}

// AssetBank moves collateral assets between accounts. Any failed move aborts
// the enclosing engine operation before ledger state is persisted.
type AssetBank interface {
	Transfer(symbol string, from, to common.Address, amount *big.Int) error
	BalanceOf(symbol string, addr common.Address) (*big.Int, error)
}

// Engine orchestrates the collateral and debt ledgers, enforcing that every
// account stays solvent under the configured minimum collateralization ratio.
// Mutating operations are atomic: all checks run against staged in-memory
// copies and nothing is persisted until checks and external calls succeed.
//
// The engine itself is not goroutine-safe; the embedding server serializes
// mutating operations into a strict global order. The call guard only
// protects against nested re-entry from external calls made mid-operation.
type Engine struct {
	state    engineState
	registry *AssetRegistry
	stable   StableLedger
	bank     AssetBank
	custody  common.Address
	params   Params
	emitter  events.Emitter
	guard    nativecommon.CallGuard
	pauses   nativecommon.PauseView
}

// NewEngine constructs an engine holding custody of deposited collateral at
// the given address and authorized to mint/burn on the stable ledger.
func NewEngine(custody common.Address, registry *AssetRegistry, stable StableLedger, bank AssetBank, params Params) (*Engine, error) {
	if registry == nil || stable == nil || bank == nil {
		return nil, ErrNilState
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		registry: registry,
		stable:   stable,
		bank:     bank,
		custody:  custody,
		params:   params,
		emitter:  events.NoopEmitter{},
	}, nil
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter wires an event subscriber. A nil emitter restores the no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Custody returns the address holding deposited collateral and transient
// synthetic units pulled for burning.
func (e *Engine) Custody() common.Address { return e.custody }

// Params returns the fixed protocol constants.
func (e *Engine) Params() Params { return e.params }

// Registry returns the approved asset set.
func (e *Engine) Registry() *AssetRegistry { return e.registry }

// begin runs the shared entry checks for every mutating operation and arms
// the reentrancy guard. The returned release must run on every exit path.
func (e *Engine) begin() (func(), error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.guard.Enter(); err != nil {
		return nil, err
	}
	return e.guard.Exit, nil
}

// DepositCollateral pulls amount of asset from the caller into protocol
// custody and credits the caller's collateral row. Deposits only improve
// health, so no solvency check runs.
func (e *Engine) DepositCollateral(caller common.Address, asset string, amount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	idx, ok := e.registry.Index(asset)
	if !ok {
		return ErrAssetNotRegistered
	}

	pos, err := e.ensurePosition(caller)
	if err != nil {
		return err
	}
	pos.Collateral[idx] = new(big.Int).Add(pos.Collateral[idx], amount)

	// The ledger credit must not survive a failed pull, so the transfer runs
	// before anything is persisted.
	if err := e.bank.Transfer(asset, caller, e.custody, amount); err != nil {
		return err
	}
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}

	e.emitter.Emit(CollateralDeposited{Account: caller, Asset: asset, Amount: new(big.Int).Set(amount)})
	return nil
}

// Mint issues amount synthetic units to the caller against their collateral.
// The solvency check sees the post-mutation debt; a failed external mint
// leaves the debt increase unpersisted.
func (e *Engine) Mint(caller common.Address, amount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pos, err := e.ensurePosition(caller)
	if err != nil {
		return err
	}
	pos.Debt = new(big.Int).Add(pos.Debt, amount)
	if err := e.assertSolvent(pos); err != nil {
		return err
	}

	if err := e.stable.Mint(caller, amount); err != nil {
		return err
	}
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}

	e.emitter.Emit(DebtMinted{Account: caller, Amount: new(big.Int).Set(amount)})
	return nil
}

// RedeemCollateral returns amount of asset from custody to the caller. The
// redemption is only finalized if the account remains solvent afterward.
func (e *Engine) RedeemCollateral(caller common.Address, asset string, amount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.redeemTo(caller, caller, asset, amount); err != nil {
		return err
	}
	return nil
}

// Burn destroys amount of the caller's synthetic units and reduces their
// debt. Burning can only improve health; the final solvency check is
// defensive, not load-bearing.
func (e *Engine) Burn(caller common.Address, amount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.burnFrom(caller, amount); err != nil {
		return err
	}
	return nil
}

// RedeemCollateralFor repays debtAmount and redeems collateralAmount of asset
// in one atomic operation, with a final solvency check over the combined
// result.
func (e *Engine) RedeemCollateralFor(caller common.Address, asset string, collateralAmount, debtAmount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if collateralAmount == nil || collateralAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if debtAmount == nil || debtAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	idx, ok := e.registry.Index(asset)
	if !ok {
		return ErrAssetNotRegistered
	}

	pos, err := e.ensurePosition(caller)
	if err != nil {
		return err
	}
	pos.Debt, err = checkedSub(pos.Debt, debtAmount, ErrInsufficientDebt)
	if err != nil {
		return err
	}
	pos.Collateral[idx], err = checkedSub(pos.Collateral[idx], collateralAmount, ErrInsufficientCollateral)
	if err != nil {
		return err
	}
	if err := e.assertSolvent(pos); err != nil {
		return err
	}

	if err := e.stable.Transfer(caller, e.custody, debtAmount); err != nil {
		return err
	}
	if err := e.stable.Burn(e.custody, debtAmount); err != nil {
		return err
	}
	if err := e.bank.Transfer(asset, e.custody, caller, collateralAmount); err != nil {
		return err
	}
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}

	e.emitter.Emit(DebtBurned{Account: caller, Amount: new(big.Int).Set(debtAmount)})
	e.emitter.Emit(CollateralRedeemed{From: caller, To: caller, Asset: asset, Amount: new(big.Int).Set(collateralAmount)})
	return nil
}

// Liquidate lets the caller repay debtToCover of the target's debt in
// exchange for the equivalent collateral plus the liquidation bonus. The
// target must start below the minimum health factor and must end strictly
// healthier, and the liquidator must remain solvent.
func (e *Engine) Liquidate(liquidator, target common.Address, asset string, debtToCover *big.Int) (*big.Int, error) {
	release, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	if debtToCover == nil || debtToCover.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	idx, ok := e.registry.Index(asset)
	if !ok {
		return nil, ErrAssetNotRegistered
	}

	pos, err := e.ensurePosition(target)
	if err != nil {
		return nil, err
	}
	startHealth, err := e.healthFactorOf(pos)
	if err != nil {
		return nil, err
	}
	if startHealth.Cmp(precision) >= 0 {
		return nil, ErrHealthFactorOk
	}

	feed, _ := e.registry.Feed(asset)
	seizedBase, err := amountFromUsd(feed, debtToCover)
	if err != nil {
		return nil, err
	}
	bonus := new(big.Int).Mul(seizedBase, new(big.Int).SetUint64(e.params.LiquidationBonusPct))
	bonus.Quo(bonus, hundred)
	seized := new(big.Int).Add(seizedBase, bonus)

	// A target that does not hold enough of the named asset to pay the bonus
	// is unliquidatable in that asset. Accepted protocol limitation.
	pos.Collateral[idx], err = checkedSub(pos.Collateral[idx], seized, ErrInsufficientCollateral)
	if err != nil {
		return nil, err
	}
	pos.Debt, err = checkedSub(pos.Debt, debtToCover, ErrInsufficientDebt)
	if err != nil {
		return nil, err
	}

	endHealth, err := e.healthFactorOf(pos)
	if err != nil {
		return nil, err
	}
	if endHealth.Cmp(startHealth) <= 0 {
		return nil, ErrHealthFactorNotImproved
	}

	// When the liquidator is the target, the staged position is their
	// position; a fresh read would check solvency against pre-mutation state.
	liquidatorPos := pos
	if liquidator != target {
		liquidatorPos, err = e.ensurePosition(liquidator)
		if err != nil {
			return nil, err
		}
	}
	if err := e.assertSolvent(liquidatorPos); err != nil {
		return nil, err
	}

	if err := e.stable.Transfer(liquidator, e.custody, debtToCover); err != nil {
		return nil, err
	}
	if err := e.stable.Burn(e.custody, debtToCover); err != nil {
		return nil, err
	}
	if err := e.bank.Transfer(asset, e.custody, liquidator, seized); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(pos); err != nil {
		return nil, err
	}

	e.emitter.Emit(Liquidated{
		Liquidator:       liquidator,
		Account:          target,
		Asset:            asset,
		DebtCovered:      new(big.Int).Set(debtToCover),
		CollateralSeized: new(big.Int).Set(seized),
	})
	e.emitter.Emit(CollateralRedeemed{From: target, To: liquidator, Asset: asset, Amount: new(big.Int).Set(seized)})
	return seized, nil
}

// redeemTo stages the collateral decrease for from, checks solvency on the
// staged state and pushes the asset out of custody to the recipient.
func (e *Engine) redeemTo(from, to common.Address, asset string, amount *big.Int) error {
	idx, ok := e.registry.Index(asset)
	if !ok {
		return ErrAssetNotRegistered
	}
	pos, err := e.ensurePosition(from)
	if err != nil {
		return err
	}
	pos.Collateral[idx], err = checkedSub(pos.Collateral[idx], amount, ErrInsufficientCollateral)
	if err != nil {
		return err
	}
	if err := e.assertSolvent(pos); err != nil {
		return err
	}
	if err := e.bank.Transfer(asset, e.custody, to, amount); err != nil {
		return err
	}
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}
	e.emitter.Emit(CollateralRedeemed{From: from, To: to, Asset: asset, Amount: new(big.Int).Set(amount)})
	return nil
}

// burnFrom pulls amount synthetic units from the account into custody,
// destroys them and reduces the account's debt row.
func (e *Engine) burnFrom(account common.Address, amount *big.Int) error {
	pos, err := e.ensurePosition(account)
	if err != nil {
		return err
	}
	pos.Debt, err = checkedSub(pos.Debt, amount, ErrInsufficientDebt)
	if err != nil {
		return err
	}
	// Burning only improves health; the check is defensive and runs against
	// the staged post-mutation state before any unit is destroyed.
	if err := e.assertSolvent(pos); err != nil {
		return err
	}
	if err := e.stable.Transfer(account, e.custody, amount); err != nil {
		return err
	}
	if err := e.stable.Burn(e.custody, amount); err != nil {
		return err
	}
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}
	e.emitter.Emit(DebtBurned{Account: account, Amount: new(big.Int).Set(amount)})
	return nil
}

// --- Views ---

// DebtOf returns the account's outstanding synthetic debt.
func (e *Engine) DebtOf(addr common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pos, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	return pos.Debt, nil
}

// CollateralOf returns the account's deposited amount of asset.
func (e *Engine) CollateralOf(addr common.Address, asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	idx, ok := e.registry.Index(asset)
	if !ok {
		return nil, ErrAssetNotRegistered
	}
	pos, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	return pos.Collateral[idx], nil
}

// TotalCollateralValue returns the USD value of the account's collateral
// across every registered asset.
func (e *Engine) TotalCollateralValue(addr common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pos, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	return e.collateralValueOf(pos)
}

// HealthFactor recomputes the account's solvency ratio from current ledger
// state and prices. It is derived on demand and never stored.
func (e *Engine) HealthFactor(addr common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pos, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	return e.healthFactorOf(pos)
}
