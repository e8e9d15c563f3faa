package rpc

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"stablecore/native/assets"
	"stablecore/native/collateral"
	"stablecore/native/token"
	"stablecore/storage"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	db := storage.NewMemDB()
	bank := assets.NewLedger(db)
	stable := token.NewLedger(db)
	feed := collateral.NewStaticFeed(big.NewInt(2000_00000000), 8)
	registry, err := collateral.NewAssetRegistry([]string{"WETH"}, []collateral.PriceFeed{feed})
	require.NoError(t, err)
	engine, err := collateral.NewEngine(
		ethcommon.HexToAddress("0xc0ffee0000000000000000000000000000000000"),
		registry, stable, bank, collateral.DefaultParams(),
	)
	require.NoError(t, err)
	engine.SetState(collateral.NewPositionStore(db))

	srv := NewServer(engine, stable, bank, map[string]*collateral.StaticFeed{"WETH": feed}, "", slog.Default())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func call(t *testing.T, ts *httptest.Server, method string, params interface{}) RPCResponse {
	t.Helper()
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func TestDepositMintFlow(t *testing.T) {
	_, ts := newTestServer(t)
	account := "0x00000000000000000000000000000000000000a1"

	resp := call(t, ts, "assets_fund", fundParams{Address: account, Asset: "WETH", Amount: "15000000000000000000"})
	require.Nil(t, resp.Error)

	resp = call(t, ts, "collateral_deposit", depositParams{From: account, Asset: "WETH", Amount: "15000000000000000000"})
	require.Nil(t, resp.Error)

	resp = call(t, ts, "collateral_mint", mintParams{From: account, Amount: "10000000000000000000000"})
	require.Nil(t, resp.Error)

	resp = call(t, ts, "collateral_getPosition", accountParams{Address: account})
	require.Nil(t, resp.Error)
	var position positionResult
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &position))
	require.Equal(t, "10000000000000000000000", position.Debt)
	require.Equal(t, "15000000000000000000", position.Collateral["WETH"])
	require.Equal(t, "30000000000000000000000", position.CollateralValue)
	require.Equal(t, "1500000000000000000", position.HealthFactor)
}

func TestMintOverLimitReturnsHealthFactor(t *testing.T) {
	_, ts := newTestServer(t)
	account := "0x00000000000000000000000000000000000000a2"

	resp := call(t, ts, "assets_fund", fundParams{Address: account, Asset: "WETH", Amount: "15000000000000000000"})
	require.Nil(t, resp.Error)
	resp = call(t, ts, "collateral_deposit", depositParams{From: account, Asset: "WETH", Amount: "15000000000000000000"})
	require.Nil(t, resp.Error)

	resp = call(t, ts, "collateral_mint", mintParams{From: account, Amount: "20000000000000000000000"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeServerError, resp.Error.Code)
	data, ok := resp.Error.Data.(map[string]interface{})
	require.True(t, ok, "error data should carry the health factor")
	require.Equal(t, "750000000000000000", data["healthFactor"])
}

func TestUnknownMethodAndBadParams(t *testing.T) {
	_, ts := newTestServer(t)

	resp := call(t, ts, "collateral_unknown", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	resp = call(t, ts, "collateral_deposit", depositParams{From: "not-an-address", Asset: "WETH", Amount: "1"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	resp = call(t, ts, "collateral_deposit", depositParams{From: "0x00000000000000000000000000000000000000a3", Asset: "DOGE", Amount: "1"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestParseErrorAnswersWithNullID(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/rpc", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	id, ok := raw["id"]
	require.True(t, ok, "error response must carry an id field")
	require.Equal(t, "null", string(id))

	var rpcErr RPCError
	require.NoError(t, json.Unmarshal(raw["error"], &rpcErr))
	require.Equal(t, codeParseError, rpcErr.Code)
}

func TestOracleSetPriceMovesValuation(t *testing.T) {
	_, ts := newTestServer(t)
	account := "0x00000000000000000000000000000000000000a4"

	resp := call(t, ts, "assets_fund", fundParams{Address: account, Asset: "WETH", Amount: "1000000000000000000"})
	require.Nil(t, resp.Error)
	resp = call(t, ts, "collateral_deposit", depositParams{From: account, Asset: "WETH", Amount: "1000000000000000000"})
	require.Nil(t, resp.Error)

	resp = call(t, ts, "oracle_setPrice", setPriceParams{Asset: "WETH", Price: "100000000000"})
	require.Nil(t, resp.Error)

	resp = call(t, ts, "collateral_getPosition", accountParams{Address: account})
	require.Nil(t, resp.Error)
	var position positionResult
	raw, _ := json.Marshal(resp.Result)
	require.NoError(t, json.Unmarshal(raw, &position))
	require.Equal(t, "1000000000000000000000", position.CollateralValue)
}
