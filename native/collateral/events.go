package collateral

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CollateralDeposited is emitted after a successful deposit.
type CollateralDeposited struct {
	Account common.Address
	Asset   string
	Amount  *big.Int
}

func (CollateralDeposited) EventType() string { return "collateral.deposited" }

// CollateralRedeemed is emitted whenever collateral leaves an account's
// position. To differs from From exactly when the redemption was
// liquidation-driven.
type CollateralRedeemed struct {
	From   common.Address
	To     common.Address
	Asset  string
	Amount *big.Int
}

func (CollateralRedeemed) EventType() string { return "collateral.redeemed" }

// DebtMinted is emitted after synthetic units are minted against collateral.
type DebtMinted struct {
	Account common.Address
	Amount  *big.Int
}

func (DebtMinted) EventType() string { return "collateral.debt_minted" }

// DebtBurned is emitted after outstanding debt is repaid and destroyed.
type DebtBurned struct {
	Account common.Address
	Amount  *big.Int
}

func (DebtBurned) EventType() string { return "collateral.debt_burned" }

// Liquidated is emitted after a successful partial or full liquidation.
type Liquidated struct {
	Liquidator       common.Address
	Account          common.Address
	Asset            string
	DebtCovered      *big.Int
	CollateralSeized *big.Int
}

func (Liquidated) EventType() string { return "collateral.liquidated" }
