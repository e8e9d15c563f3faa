// Package assets tracks balances of the approved collateral assets. The
// collateral engine pulls deposits into its custody account and pushes
// redemptions back out through this ledger; any failed move aborts the
// enclosing engine operation.
package assets

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"stablecore/storage"
)

var (
	ErrInvalidAmount       = errors.New("asset ledger: amount must be positive")
	ErrInsufficientBalance = errors.New("asset ledger: insufficient balance")
)

// Ledger is a per-asset fungible balance table backed by the key-value store.
type Ledger struct {
	db storage.Database
}

func NewLedger(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

func balanceKey(symbol string, addr common.Address) []byte {
	return []byte("assets/" + symbol + "/balance/" + addr.Hex())
}

// BalanceOf returns the held amount of symbol for addr. Absent keys read as zero.
func (l *Ledger) BalanceOf(symbol string, addr common.Address) (*big.Int, error) {
	return l.loadBalance(balanceKey(symbol, addr))
}

// Mint credits freshly issued units of symbol to the recipient. It exists for
// bootstrap funding and tests; the engine itself never mints collateral.
func (l *Ledger) Mint(symbol string, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.loadBalance(balanceKey(symbol, to))
	if err != nil {
		return err
	}
	balance = new(big.Int).Add(balance, amount)
	return l.storeBalance(balanceKey(symbol, to), balance)
}

// Transfer moves amount of symbol between accounts. The debit and credit are
// persisted together only after the debit is known to cover the amount.
func (l *Ledger) Transfer(symbol string, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := l.loadBalance(balanceKey(symbol, from))
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := l.loadBalance(balanceKey(symbol, to))
	if err != nil {
		return err
	}
	fromBalance = new(big.Int).Sub(fromBalance, amount)
	toBalance = new(big.Int).Add(toBalance, amount)
	if err := l.storeBalance(balanceKey(symbol, from), fromBalance); err != nil {
		return err
	}
	return l.storeBalance(balanceKey(symbol, to), toBalance)
}

func (l *Ledger) loadBalance(key []byte) (*big.Int, error) {
	raw, err := l.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	balance := new(big.Int)
	if err := rlp.DecodeBytes(raw, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

func (l *Ledger) storeBalance(key []byte, balance *big.Int) error {
	raw, err := rlp.EncodeToBytes(balance)
	if err != nil {
		return err
	}
	return l.db.Put(key, raw)
}
