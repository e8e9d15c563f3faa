package collateral

import (
	"math/big"
	"strings"
)

// PriceFeed reports the latest unit price of one asset together with the
// fixed number of fractional digits the integer price carries.
type PriceFeed interface {
	LatestPrice() (*big.Int, uint8, error)
}

// AssetRegistry is the ordered, immutable set of approved collateral assets,
// each paired with its price feed. Membership is fixed at construction.
type AssetRegistry struct {
	symbols []string
	index   map[string]int
	feeds   []PriceFeed
}

// NewAssetRegistry pairs asset symbols with price feeds positionally. The two
// lists must have equal length; duplicates and blanks are rejected before any
// state is established.
func NewAssetRegistry(symbols []string, feeds []PriceFeed) (*AssetRegistry, error) {
	if len(symbols) != len(feeds) {
		return nil, ErrFeedMismatch
	}
	registry := &AssetRegistry{
		symbols: make([]string, 0, len(symbols)),
		index:   make(map[string]int, len(symbols)),
		feeds:   make([]PriceFeed, 0, len(feeds)),
	}
	for i, symbol := range symbols {
		symbol = strings.TrimSpace(symbol)
		if symbol == "" || feeds[i] == nil {
			return nil, ErrFeedMismatch
		}
		if _, exists := registry.index[symbol]; exists {
			return nil, ErrFeedMismatch
		}
		registry.index[symbol] = len(registry.symbols)
		registry.symbols = append(registry.symbols, symbol)
		registry.feeds = append(registry.feeds, feeds[i])
	}
	return registry, nil
}

// Index returns the registry position of symbol.
func (r *AssetRegistry) Index(symbol string) (int, bool) {
	i, ok := r.index[symbol]
	return i, ok
}

// Feed returns the price feed registered for symbol.
func (r *AssetRegistry) Feed(symbol string) (PriceFeed, bool) {
	i, ok := r.index[symbol]
	if !ok {
		return nil, false
	}
	return r.feeds[i], true
}

// Symbols returns the registered assets in registry order.
func (r *AssetRegistry) Symbols() []string {
	return append([]string(nil), r.symbols...)
}

// Len returns the number of registered assets.
func (r *AssetRegistry) Len() int {
	return len(r.symbols)
}

func (r *AssetRegistry) feedAt(i int) PriceFeed {
	return r.feeds[i]
}
