package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if len(cfg.Collateral) == 0 {
		t.Fatal("default config has no collateral assets")
	}
	if cfg.Collateral[0].Price() == nil {
		t.Fatal("default price does not parse")
	}

	// Reloading the generated file round-trips.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.RPCAddress != cfg.RPCAddress {
		t.Fatalf("round trip mismatch: %q vs %q", again.RPCAddress, cfg.RPCAddress)
	}
}

func TestValidateRejectsBadCollateral(t *testing.T) {
	base := func() *Config {
		return &Config{
			RPCAddress: "127.0.0.1:8645",
			DataDir:    "/tmp/data",
			Collateral: []Collateral{{Symbol: "WETH", FeedDecimals: 8, InitialPrice: "200000000000"}},
		}
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg = base()
	cfg.Collateral = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty collateral list accepted")
	}

	cfg = base()
	cfg.Collateral = append(cfg.Collateral, Collateral{Symbol: "WETH", FeedDecimals: 8, InitialPrice: "1"})
	if err := cfg.Validate(); err == nil {
		t.Fatal("duplicate symbol accepted")
	}

	cfg = base()
	cfg.Collateral[0].InitialPrice = "-5"
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative price accepted")
	}

	cfg = base()
	cfg.Collateral[0].FeedDecimals = 19
	if err := cfg.Validate(); err == nil {
		t.Fatal("excessive feed decimals accepted")
	}
}
