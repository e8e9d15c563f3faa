package collateral

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNilState                = errors.New("collateral engine: state not configured")
	ErrInvalidAmount           = errors.New("collateral engine: amount must be positive")
	ErrAssetNotRegistered      = errors.New("collateral engine: asset not registered")
	ErrInsufficientCollateral  = errors.New("collateral engine: collateral balance would underflow")
	ErrInsufficientDebt        = errors.New("collateral engine: debt balance would underflow")
	ErrHealthFactorOk          = errors.New("collateral engine: account not eligible for liquidation")
	ErrHealthFactorNotImproved = errors.New("collateral engine: liquidation did not improve health factor")
	ErrInvalidPrice            = errors.New("collateral engine: price feed returned a non-positive price")
	ErrFeedDecimals            = errors.New("collateral engine: price feed decimals exceed engine precision")
	ErrFeedMismatch            = errors.New("collateral engine: asset and feed lists differ in length")
	ErrInvalidParams           = errors.New("collateral engine: invalid risk parameters")
)

// BrokenHealthFactorError aborts an operation that would leave an account
// below the minimum health factor. It carries the computed value so callers
// can decide their next action.
type BrokenHealthFactorError struct {
	Account      common.Address
	HealthFactor *big.Int
}

func (e *BrokenHealthFactorError) Error() string {
	return fmt.Sprintf("collateral engine: health factor %s below minimum for %s", e.HealthFactor, e.Account.Hex())
}
