package collateral

import (
	"math/big"
	"sync"
)

// StaticFeed is a manually updated price feed. Deployments without a live
// oracle attester publish prices into it through the RPC surface; tests set
// prices directly.
type StaticFeed struct {
	mu       sync.RWMutex
	price    *big.Int
	decimals uint8
}

// NewStaticFeed constructs a feed reporting price with the given fractional
// digit count.
func NewStaticFeed(price *big.Int, decimals uint8) *StaticFeed {
	feed := &StaticFeed{decimals: decimals}
	if price != nil {
		feed.price = new(big.Int).Set(price)
	}
	return feed
}

// LatestPrice implements the PriceFeed interface.
func (f *StaticFeed) LatestPrice() (*big.Int, uint8, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price == nil || f.price.Sign() <= 0 {
		return nil, f.decimals, ErrInvalidPrice
	}
	return new(big.Int).Set(f.price), f.decimals, nil
}

// SetPrice replaces the reported price. The engine re-reads the feed on every
// valuation, so the update is visible to the next operation.
func (f *StaticFeed) SetPrice(price *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if price == nil {
		f.price = nil
		return
	}
	f.price = new(big.Int).Set(price)
}
