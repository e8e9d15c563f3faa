package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Collateral configures one approved collateral asset and its price feed.
type Collateral struct {
	// Symbol is the asset identifier used across the ledger and RPC surface.
	Symbol string `toml:"Symbol"`
	// FeedDecimals is the fixed number of fractional digits in feed prices.
	FeedDecimals uint8 `toml:"FeedDecimals"`
	// InitialPrice seeds the static feed until an attester pushes an update.
	// Decimal string in feed units.
	InitialPrice string `toml:"InitialPrice"`
}

type Config struct {
	RPCAddress     string       `toml:"RPCAddress"`
	DataDir        string       `toml:"DataDir"`
	ServiceName    string       `toml:"ServiceName"`
	Environment    string       `toml:"Environment"`
	LogFile        string       `toml:"LogFile"`
	EngineAddress  string       `toml:"EngineAddress"`
	RPCAuthToken   string       `toml:"RPCAuthToken,omitempty"`
	Collateral     []Collateral `toml:"Collateral"`
}

// Load reads the configuration from path, writing a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would misconfigure the engine before
// any state is established.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if len(c.Collateral) == 0 {
		return fmt.Errorf("config: at least one collateral asset is required")
	}
	seen := make(map[string]struct{}, len(c.Collateral))
	for i, asset := range c.Collateral {
		symbol := strings.TrimSpace(asset.Symbol)
		if symbol == "" {
			return fmt.Errorf("config: collateral entry %d has no symbol", i)
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("config: duplicate collateral symbol %q", symbol)
		}
		seen[symbol] = struct{}{}
		if asset.FeedDecimals > 18 {
			return fmt.Errorf("config: collateral %q feed decimals exceed 18", symbol)
		}
		price, ok := new(big.Int).SetString(strings.TrimSpace(asset.InitialPrice), 10)
		if !ok || price.Sign() <= 0 {
			return fmt.Errorf("config: collateral %q initial price must be a positive integer", symbol)
		}
	}
	return nil
}

// Price parses the asset's InitialPrice. Validate must have run first.
func (c Collateral) Price() *big.Int {
	price, _ := new(big.Int).SetString(strings.TrimSpace(c.InitialPrice), 10)
	return price
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:  "127.0.0.1:8645",
		DataDir:     "./stablecore-data",
		ServiceName: "stablecored",
		Environment: "dev",
		Collateral: []Collateral{
			{Symbol: "WETH", FeedDecimals: 8, InitialPrice: "200000000000"},
			{Symbol: "WBTC", FeedDecimals: 8, InitialPrice: "3000000000000"},
		},
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
