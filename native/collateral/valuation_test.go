package collateral

import (
	"errors"
	"math/big"
	"testing"
)

func TestUsdValueRescalesFeedPrice(t *testing.T) {
	feed := NewStaticFeed(big.NewInt(2000_00000000), 8)
	value, err := usdValue(feed, e18(15))
	if err != nil {
		t.Fatalf("usd value: %v", err)
	}
	if value.Cmp(e18(30000)) != 0 {
		t.Fatalf("unexpected value %s, want %s", value, e18(30000))
	}

	// A feed already reporting 18 decimals needs no rescaling.
	feed18 := NewStaticFeed(e18(2000), 18)
	value, err = usdValue(feed18, e18(15))
	if err != nil || value.Cmp(e18(30000)) != 0 {
		t.Fatalf("unexpected value %s (err %v)", value, err)
	}
}

func TestAmountFromUsdInvertsValuation(t *testing.T) {
	feed := NewStaticFeed(big.NewInt(1000_00000000), 8)
	amount, err := amountFromUsd(feed, e18(4000))
	if err != nil {
		t.Fatalf("amount from usd: %v", err)
	}
	if amount.Cmp(e18(4)) != 0 {
		t.Fatalf("unexpected amount %s, want %s", amount, e18(4))
	}
}

func TestValuationRoundTripBound(t *testing.T) {
	prices := []*big.Int{
		big.NewInt(1_00000000),
		big.NewInt(1999_99999999),
		big.NewInt(2000_00000000),
		big.NewInt(123456789),
	}
	amounts := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(999_999_999_999),
		e18(1),
		e18(12345),
	}
	one := big.NewInt(1)
	for _, price := range prices {
		feed := NewStaticFeed(price, 8)
		for _, amount := range amounts {
			value, err := usdValue(feed, amount)
			if err != nil {
				t.Fatalf("usd value: %v", err)
			}
			back, err := amountFromUsd(feed, value)
			if err != nil {
				t.Fatalf("amount from usd: %v", err)
			}
			diff := new(big.Int).Sub(amount, back)
			if diff.Sign() < 0 {
				t.Fatalf("round trip exceeded input: %s -> %s (price %s)", amount, back, price)
			}
			// Truncation loses less than one unit per division.
			rescaled := new(big.Int).Mul(price, big.NewInt(10_000_000_000))
			limit := new(big.Int).Quo(precision, rescaled)
			limit.Add(limit, one)
			if diff.Cmp(limit) > 0 {
				t.Fatalf("round trip error %s beyond bound %s (amount %s price %s)", diff, limit, amount, price)
			}
		}
	}
}

func TestValuationRejectsBadFeeds(t *testing.T) {
	zero := NewStaticFeed(big.NewInt(0), 8)
	if _, err := usdValue(zero, e18(1)); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := amountFromUsd(zero, e18(1)); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	wide := NewStaticFeed(big.NewInt(1), 19)
	if _, err := usdValue(wide, e18(1)); !errors.Is(err, ErrFeedDecimals) {
		t.Fatalf("expected ErrFeedDecimals, got %v", err)
	}
}
