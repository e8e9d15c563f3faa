package collateral

import "math/big"

// Prices are rescaled to 18 fractional digits before any valuation so that
// USD values, debt amounts and health factors share one fixed-point domain.
const feedTargetDecimals = 18

// rescaledPrice reads the latest price from the feed and lifts it to the
// 18-digit domain. Non-positive prices mean the asset is misconfigured and
// abort the caller.
func rescaledPrice(feed PriceFeed) (*big.Int, error) {
	price, decimals, err := feed.LatestPrice()
	if err != nil {
		return nil, err
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if decimals > feedTargetDecimals {
		return nil, ErrFeedDecimals
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(feedTargetDecimals-decimals)), nil)
	return new(big.Int).Mul(price, scale), nil
}

// usdValue converts an asset amount into its USD value. Division truncates,
// rounding the valuation down in the protocol's favor.
func usdValue(feed PriceFeed, amount *big.Int) (*big.Int, error) {
	price, err := rescaledPrice(feed)
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Mul(price, amount)
	return value.Quo(value, precision), nil
}

// amountFromUsd converts a USD value into the equivalent asset amount.
// Division truncates, so a liquidator is never handed more collateral than
// the covered debt is worth.
func amountFromUsd(feed PriceFeed, usd *big.Int) (*big.Int, error) {
	price, err := rescaledPrice(feed)
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Mul(usd, precision)
	return amount.Quo(amount, price), nil
}
