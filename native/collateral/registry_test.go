package collateral

import (
	"errors"
	"math/big"
	"testing"
)

func TestNewAssetRegistryRejectsMismatch(t *testing.T) {
	feed := NewStaticFeed(big.NewInt(1), 8)
	if _, err := NewAssetRegistry([]string{"WETH", "WBTC"}, []PriceFeed{feed}); !errors.Is(err, ErrFeedMismatch) {
		t.Fatalf("expected ErrFeedMismatch, got %v", err)
	}
	if _, err := NewAssetRegistry([]string{"WETH", "WETH"}, []PriceFeed{feed, feed}); !errors.Is(err, ErrFeedMismatch) {
		t.Fatalf("duplicate symbol should fail, got %v", err)
	}
	if _, err := NewAssetRegistry([]string{" "}, []PriceFeed{feed}); !errors.Is(err, ErrFeedMismatch) {
		t.Fatalf("blank symbol should fail, got %v", err)
	}
	if _, err := NewAssetRegistry([]string{"WETH"}, []PriceFeed{nil}); !errors.Is(err, ErrFeedMismatch) {
		t.Fatalf("nil feed should fail, got %v", err)
	}
}

func TestRegistryLookups(t *testing.T) {
	weth := NewStaticFeed(big.NewInt(1), 8)
	wbtc := NewStaticFeed(big.NewInt(2), 8)
	registry, err := NewAssetRegistry([]string{"WETH", "WBTC"}, []PriceFeed{weth, wbtc})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if registry.Len() != 2 {
		t.Fatalf("unexpected length %d", registry.Len())
	}
	idx, ok := registry.Index("WBTC")
	if !ok || idx != 1 {
		t.Fatalf("unexpected index %d ok=%v", idx, ok)
	}
	if _, ok := registry.Feed("DOGE"); ok {
		t.Fatal("unknown asset should not resolve")
	}
	symbols := registry.Symbols()
	if len(symbols) != 2 || symbols[0] != "WETH" || symbols[1] != "WBTC" {
		t.Fatalf("unexpected symbol order: %v", symbols)
	}
}
