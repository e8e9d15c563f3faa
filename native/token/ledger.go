// Package token implements the balance ledger for the synthetic dollar unit.
// The collateral engine is the only component handed mint/burn access; every
// other consumer sees read and transfer operations only.
package token

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"stablecore/storage"
)

var (
	ErrInvalidAmount       = errors.New("token ledger: amount must be positive")
	ErrInsufficientBalance = errors.New("token ledger: insufficient balance")
)

var (
	supplyKey = []byte("token/supply")
)

// Ledger tracks per-account balances and the outstanding total supply of the
// synthetic unit.
type Ledger struct {
	db storage.Database
}

func NewLedger(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

func balanceKey(addr common.Address) []byte {
	return []byte("token/balance/" + addr.Hex())
}

// BalanceOf returns the synthetic units held by addr. Absent keys read as zero.
func (l *Ledger) BalanceOf(addr common.Address) (*big.Int, error) {
	return l.loadAmount(balanceKey(addr))
}

// TotalSupply returns the synthetic units currently outstanding.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	return l.loadAmount(supplyKey)
}

// Mint credits newly issued units to the recipient and grows the supply.
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.loadAmount(balanceKey(to))
	if err != nil {
		return err
	}
	supply, err := l.loadAmount(supplyKey)
	if err != nil {
		return err
	}
	if err := l.storeAmount(balanceKey(to), new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	return l.storeAmount(supplyKey, new(big.Int).Add(supply, amount))
}

// Burn destroys units held by from and shrinks the supply.
func (l *Ledger) Burn(from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.loadAmount(balanceKey(from))
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	supply, err := l.loadAmount(supplyKey)
	if err != nil {
		return err
	}
	if supply.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := l.storeAmount(balanceKey(from), new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	return l.storeAmount(supplyKey, new(big.Int).Sub(supply, amount))
}

// Transfer moves units between accounts without touching the supply.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := l.loadAmount(balanceKey(from))
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := l.loadAmount(balanceKey(to))
	if err != nil {
		return err
	}
	if err := l.storeAmount(balanceKey(from), new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.storeAmount(balanceKey(to), new(big.Int).Add(toBalance, amount))
}

func (l *Ledger) loadAmount(key []byte) (*big.Int, error) {
	raw, err := l.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(raw, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (l *Ledger) storeAmount(key []byte, amount *big.Int) error {
	raw, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return l.db.Put(key, raw)
}
