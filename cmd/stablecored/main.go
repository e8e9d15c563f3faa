package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"stablecore/config"
	"stablecore/native/assets"
	"stablecore/native/collateral"
	"stablecore/native/token"
	"stablecore/observability/logging"
	"stablecore/rpc"
	"stablecore/storage"
)

const authTokenEnv = "STABLECORE_RPC_TOKEN"

// defaultCustody holds deposited collateral when the config names no engine
// address of its own.
const defaultCustody = "0x000000000000000000000000000000000000c011"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup(cfg.ServiceName, cfg.Environment, cfg.LogFile)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	symbols := make([]string, 0, len(cfg.Collateral))
	feeds := make([]collateral.PriceFeed, 0, len(cfg.Collateral))
	writable := make(map[string]*collateral.StaticFeed, len(cfg.Collateral))
	for _, asset := range cfg.Collateral {
		feed := collateral.NewStaticFeed(asset.Price(), asset.FeedDecimals)
		symbols = append(symbols, asset.Symbol)
		feeds = append(feeds, feed)
		writable[asset.Symbol] = feed
	}
	registry, err := collateral.NewAssetRegistry(symbols, feeds)
	if err != nil {
		logger.Error("Failed to build asset registry", slog.Any("error", err))
		os.Exit(1)
	}

	custody := common.HexToAddress(defaultCustody)
	if addr := strings.TrimSpace(cfg.EngineAddress); addr != "" {
		if !common.IsHexAddress(addr) {
			logger.Error("Invalid engine address in config", slog.String("address", addr))
			os.Exit(1)
		}
		custody = common.HexToAddress(addr)
	}

	bank := assets.NewLedger(db)
	stable := token.NewLedger(db)
	engine, err := collateral.NewEngine(custody, registry, stable, bank, collateral.DefaultParams())
	if err != nil {
		logger.Error("Failed to construct engine", slog.Any("error", err))
		os.Exit(1)
	}
	engine.SetState(collateral.NewPositionStore(db))

	authToken := strings.TrimSpace(cfg.RPCAuthToken)
	if env := strings.TrimSpace(os.Getenv(authTokenEnv)); env != "" {
		authToken = env
	}
	if authToken == "" {
		logger.Warn("RPC auth token not configured; mutating methods are open", slog.String("env", authTokenEnv))
	}

	server := rpc.NewServer(engine, stable, bank, writable, authToken, logger)
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("RPC server listening",
			slog.String("address", cfg.RPCAddress),
			slog.Int("assets", registry.Len()),
			slog.String("custody", custody.Hex()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("RPC server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", slog.Any("error", err))
	}
}
