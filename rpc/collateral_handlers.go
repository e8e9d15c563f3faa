package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type depositParams struct {
	From   string `json:"from"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type mintParams struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

type redeemParams struct {
	From   string `json:"from"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type redeemForParams struct {
	From             string `json:"from"`
	Asset            string `json:"asset"`
	CollateralAmount string `json:"collateralAmount"`
	DebtAmount       string `json:"debtAmount"`
}

type liquidateParams struct {
	Liquidator  string `json:"liquidator"`
	Account     string `json:"account"`
	Asset       string `json:"asset"`
	DebtToCover string `json:"debtToCover"`
}

type accountParams struct {
	Address string `json:"address"`
}

type setPriceParams struct {
	Asset string `json:"asset"`
	Price string `json:"price"`
}

type fundParams struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
}

type positionResult struct {
	Address         string            `json:"address"`
	Debt            string            `json:"debt"`
	Collateral      map[string]string `json:"collateral"`
	CollateralValue string            `json:"collateralValue"`
	HealthFactor    string            `json:"healthFactor"`
}

type paramsResult struct {
	LiquidationThresholdPct uint64   `json:"liquidationThresholdPct"`
	LiquidationBonusPct     uint64   `json:"liquidationBonusPct"`
	Assets                  []string `json:"assets"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func (s *Server) handleDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params depositParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	from, err := parseAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	start := time.Now()
	err = s.engine.DepositCollateral(from, params.Asset, amount)
	s.metrics.ObserveOperation("deposit", err, time.Since(start))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.logger.Info("collateral deposited", "account", from.Hex(), "asset", params.Asset, "amount", amount.String())
	writeResult(w, req.ID, true)
}

func (s *Server) handleMint(w http.ResponseWriter, req *RPCRequest) {
	var params mintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	from, err := parseAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	start := time.Now()
	err = s.engine.Mint(from, amount)
	s.metrics.ObserveOperation("mint", err, time.Since(start))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.logger.Info("debt minted", "account", from.Hex(), "amount", amount.String())
	writeResult(w, req.ID, true)
}

func (s *Server) handleRedeem(w http.ResponseWriter, req *RPCRequest) {
	var params redeemParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	from, err := parseAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	start := time.Now()
	err = s.engine.RedeemCollateral(from, params.Asset, amount)
	s.metrics.ObserveOperation("redeem", err, time.Since(start))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleBurn(w http.ResponseWriter, req *RPCRequest) {
	var params mintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	from, err := parseAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	start := time.Now()
	err = s.engine.Burn(from, amount)
	s.metrics.ObserveOperation("burn", err, time.Since(start))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleRedeemFor(w http.ResponseWriter, req *RPCRequest) {
	var params redeemForParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	from, err := parseAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collateralAmount, err := parseAmount(params.CollateralAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	debtAmount, err := parseAmount(params.DebtAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	start := time.Now()
	err = s.engine.RedeemCollateralFor(from, params.Asset, collateralAmount, debtAmount)
	s.metrics.ObserveOperation("redeemFor", err, time.Since(start))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleLiquidate(w http.ResponseWriter, req *RPCRequest) {
	var params liquidateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	liquidator, err := parseAddress(params.Liquidator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	debtToCover, err := parseAmount(params.DebtToCover)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	start := time.Now()
	seized, err := s.engine.Liquidate(liquidator, account, params.Asset, debtToCover)
	s.metrics.ObserveOperation("liquidate", err, time.Since(start))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.RecordLiquidation(params.Asset, seized)
	s.logger.Info("position liquidated",
		"liquidator", liquidator.Hex(),
		"account", account.Hex(),
		"asset", params.Asset,
		"debtCovered", debtToCover.String(),
		"collateralSeized", seized.String(),
	)
	writeResult(w, req.ID, map[string]string{"collateralSeized": seized.String()})
}

func (s *Server) handleGetPosition(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	result := positionResult{Address: addr.Hex(), Collateral: make(map[string]string)}
	debt, err := s.engine.DebtOf(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result.Debt = debt.String()
	for _, symbol := range s.engine.Registry().Symbols() {
		held, err := s.engine.CollateralOf(addr, symbol)
		if err != nil {
			writeEngineError(w, req.ID, err)
			return
		}
		result.Collateral[symbol] = held.String()
	}
	value, err := s.engine.TotalCollateralValue(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result.CollateralValue = value.String()
	factor, err := s.engine.HealthFactor(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result.HealthFactor = factor.String()
	writeResult(w, req.ID, result)
}

func (s *Server) handleHealthFactor(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	factor, err := s.engine.HealthFactor(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"healthFactor": factor.String()})
}

func (s *Server) handleParams(w http.ResponseWriter, req *RPCRequest) {
	params := s.engine.Params()
	writeResult(w, req.ID, paramsResult{
		LiquidationThresholdPct: params.LiquidationThresholdPct,
		LiquidationBonusPct:     params.LiquidationBonusPct,
		Assets:                  s.engine.Registry().Symbols(),
	})
}

func (s *Server) handleSetPrice(w http.ResponseWriter, req *RPCRequest) {
	var params setPriceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	feed, ok := s.feeds[strings.TrimSpace(params.Asset)]
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no writable feed for asset", params.Asset)
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil || price.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "price must be a positive integer", nil)
		return
	}
	feed.SetPrice(price)
	s.logger.Info("oracle price updated", "asset", params.Asset, "price", price.String())
	writeResult(w, req.ID, true)
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.stable.BalanceOf(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

func (s *Server) handleTokenSupply(w http.ResponseWriter, req *RPCRequest) {
	supply, err := s.stable.TotalSupply()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalSupply": supply.String()})
}

// handleFund credits collateral assets to an account. Development surface;
// deployments keep it behind the auth token.
func (s *Server) handleFund(w http.ResponseWriter, req *RPCRequest) {
	var params fundParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if _, ok := s.engine.Registry().Index(params.Asset); !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "asset not registered", params.Asset)
		return
	}
	if err := s.bank.Mint(params.Asset, addr, amount); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, true)
}
