package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	ada "github.com/adafoundation/adawallet/pkg"
	"github.com/julienschmidt/httprouter"
	"github.com/tjstebbing/conductor"
)

// WebAPI implements conductor.Service
type WebAPI struct {
	api    ada.API
	config ada.Config
}

// interface guard ensures WebAPI implements conductor.Service
var _ conductor.Service = WebAPI{}

func NewWebAPI(config ada.Config, api ada.API) (WebAPI, error) {
	return WebAPI{api: api, config: config}, nil
}

func (t WebAPI) Run(started, stopped chan bool, stop chan context.Context) error {
	go func() {
		adminMux, pubMux := t.createRouters()

		// Start the admin server
		adminServer := &http.Server{Addr: t.config.WebAPI.AdminBind + ":" + t.config.WebAPI.AdminPort, Handler: adminMux}
		fmt.Printf("\nAdmin API listening on %s:%s", t.config.WebAPI.AdminBind, t.config.WebAPI.AdminPort)
		go func() {
			if err := adminServer.ListenAndServe(); err != http.ErrServerClosed {
				log.Fatalf("HTTP server admin ListenAndServe: %v", err)
			}
		}()

		// Start the public server
		pubServer := &http.Server{Addr: t.config.WebAPI.PubBind + ":" + t.config.WebAPI.PubPort, Handler: pubMux}
		fmt.Printf("\nPublic API listening on %s:%s", t.config.WebAPI.PubBind, t.config.WebAPI.PubPort)
		go func() {
			if err := pubServer.ListenAndServe(); err != http.ErrServerClosed {
				log.Fatalf("HTTP server public ListenAndServe: %v", err)
			}
		}()

		started <- true
		ctx := <-stop
		adminServer.Shutdown(ctx)
		pubServer.Shutdown(ctx)
		stopped <- true
	}()
	return nil
}

func (t WebAPI) createRouters() (adminMux *httprouter.Router, pubMux *httprouter.Router) {
	adminMux = httprouter.New() // Admin APIs
	pubMux = httprouter.New()   // Public APIs

	// Admin APIs

	// POST { password } /wallet/:name -> { wallet } create a wallet
	adminMux.POST("/wallet/:name", t.createWallet)

	// GET /wallet/:name -> { wallet } return wallet addresses
	adminMux.GET("/wallet/:name", t.getWallet)

	// GET /wallet/:name/balance -> { tokens, utxo_count }
	adminMux.GET("/wallet/:name/balance", t.getBalance)

	// GET /wallet/:name/utxos -> [ {...}, ...] the current UTXO snapshot
	adminMux.GET("/wallet/:name/utxos", t.listUTXOs)

	// GET /wallet/:name/transactions ? cursor & limit -> [ {...}, ...] submitted txns
	adminMux.GET("/wallet/:name/transactions", t.listTxns)

	// POST /wallet/:name/pay { "amount": "1.5", "to": "addr1...", "password": "..." } -> { txn }
	adminMux.POST("/wallet/:name/pay", t.payToAddress)

	// POST /wallet/:name/pay-tokens { "asset": "policy.name", "quantity": 5, ... } -> { txn }
	adminMux.POST("/wallet/:name/pay-tokens", t.payTokens)

	// POST /wallet/:name/consolidate { "password": "..." } -> { txn }
	adminMux.POST("/wallet/:name/consolidate", t.consolidate)

	// POST /wallet/:name/partition { "values": ["2.0", "2.0"], "password": "..." } -> { txn }
	adminMux.POST("/wallet/:name/partition", t.partition)

	// POST /wallet/:name/mint { "asset_name": "...", ... } -> { txn, policy_id }
	adminMux.POST("/wallet/:name/mint", t.mintNFT)

	// GET /tip -> { block, epoch, hash, slot }
	adminMux.GET("/tip", t.getTip)

	// GET /protocol-parameters -> { minUTxOValue, txFeeFixed, txFeePerByte }
	adminMux.GET("/protocol-parameters", t.getProtocolParameters)

	// External APIs

	// GET /wallet/:name/qr.png -> payment-address QR code for receiving funds
	pubMux.GET("/wallet/:name/qr.png", t.getWalletQR)

	// GET /tip -> liveness probe doubling as a chain-state readout
	pubMux.GET("/tip", t.getTip)

	return
}

func (t WebAPI) createWallet(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	var o struct {
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&o)
	if err != nil {
		sendBadRequest(w, fmt.Sprintf("bad request body (expecting JSON): %v", err))
		return
	}
	wallet, err := t.api.CreateWallet(name, o.Password)
	if err != nil {
		sendError(w, "CreateWallet", err)
		return
	}
	sendResponse(w, wallet)
}

func (t WebAPI) getWallet(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	wallet, err := t.api.GetWallet(name)
	if err != nil {
		sendError(w, "GetWallet", err)
		return
	}
	sendResponse(w, wallet)
}

func (t WebAPI) getBalance(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	balance, err := t.api.GetBalance(name)
	if err != nil {
		sendError(w, "GetBalance", err)
		return
	}
	sendResponse(w, balance)
}

func (t WebAPI) listUTXOs(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	utxos, err := t.api.ListUTXOs(name)
	if err != nil {
		sendError(w, "ListUTXOs", err)
		return
	}
	sendResponse(w, utxos)
}

type ListTxnsResponse struct {
	Items  []ada.TxnRecord `json:"items"`
	Cursor int             `json:"cursor"`
}

func (t WebAPI) listTxns(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	// optional pagination: cursor comes from the previous response (or zero)
	icursor := 0
	ilimit := 10
	qs := r.URL.Query()
	cursor := qs.Get("cursor")
	var err error
	if cursor != "" {
		icursor, err = strconv.Atoi(cursor)
		if err != nil || icursor < 0 {
			sendBadRequest(w, "invalid cursor in URL")
			return
		}
	}
	limit := qs.Get("limit")
	if limit != "" {
		ilimit, err = strconv.Atoi(limit)
		if err != nil || ilimit < 1 {
			sendBadRequest(w, "invalid limit in URL")
			return
		}
		if ilimit > 100 {
			sendBadRequest(w, "invalid limit in URL (cannot be greater than 100)")
			return
		}
	}
	items, next, err := t.api.ListTxns(name, icursor, ilimit)
	if err != nil {
		sendError(w, "ListTxns", err)
		return
	}
	sendResponse(w, ListTxnsResponse{Items: items, Cursor: next})
}

type PayToAddressRequest struct {
	Amount   string      `json:"amount"` // decimal ADA, e.g. "1.5"
	PayTo    ada.Address `json:"to"`
	Password string      `json:"password"`
}

// Pays ADA from a wallet to any Cardano address.
// POST /wallet/:name/pay { "amount": "1.5", "to": "addr1...", "password": "..." } -> { txn }
func (t WebAPI) payToAddress(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	var o PayToAddressRequest
	err := json.NewDecoder(r.Body).Decode(&o)
	if err != nil {
		sendBadRequest(w, fmt.Sprintf("bad request body (expecting JSON): %v", err))
		return
	}
	amount, err := adaToLovelace(o.Amount)
	if err != nil {
		sendError(w, "SendLovelace", err)
		return
	}
	txn, err := t.api.SendLovelace(name, o.PayTo, amount, o.Password)
	if err != nil {
		sendError(w, "SendLovelace", err)
		return
	}
	sendResponse(w, txn)
}

type PayTokensRequest struct {
	Asset    ada.AssetID  `json:"asset"` // "policyID.assetName"
	Quantity ada.Lovelace `json:"quantity"`
	PayTo    ada.Address  `json:"to"`
	Password string       `json:"password"`
}

func (t WebAPI) payTokens(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	var o PayTokensRequest
	err := json.NewDecoder(r.Body).Decode(&o)
	if err != nil {
		sendBadRequest(w, fmt.Sprintf("bad request body (expecting JSON): %v", err))
		return
	}
	txn, err := t.api.SendTokens(name, o.Asset, o.Quantity, o.PayTo, o.Password)
	if err != nil {
		sendError(w, "SendTokens", err)
		return
	}
	sendResponse(w, txn)
}

func (t WebAPI) consolidate(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	var o struct {
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&o)
	if err != nil {
		sendBadRequest(w, fmt.Sprintf("bad request body (expecting JSON): %v", err))
		return
	}
	txn, err := t.api.Consolidate(name, o.Password)
	if err != nil {
		sendError(w, "Consolidate", err)
		return
	}
	sendResponse(w, txn)
}

type PartitionRequest struct {
	Values   []string `json:"values"` // decimal ADA per partition
	Password string   `json:"password"`
}

func (t WebAPI) partition(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	var o PartitionRequest
	err := json.NewDecoder(r.Body).Decode(&o)
	if err != nil {
		sendBadRequest(w, fmt.Sprintf("bad request body (expecting JSON): %v", err))
		return
	}
	values := make([]ada.Lovelace, 0, len(o.Values))
	for _, v := range o.Values {
		amount, err := adaToLovelace(v)
		if err != nil {
			sendError(w, "PartitionLovelace", err)
			return
		}
		values = append(values, amount)
	}
	txn, err := t.api.PartitionLovelace(name, values, o.Password)
	if err != nil {
		sendError(w, "PartitionLovelace", err)
		return
	}
	sendResponse(w, txn)
}

type MintResponse struct {
	Txn      ada.SubmittedTxn `json:"txn"`
	PolicyID string           `json:"policy_id"`
}

func (t WebAPI) mintNFT(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	var o ada.MintRequest
	err := json.NewDecoder(r.Body).Decode(&o)
	if err != nil {
		sendBadRequest(w, fmt.Sprintf("bad request body (expecting JSON): %v", err))
		return
	}
	txn, policy, err := t.api.MintNFT(name, o)
	if err != nil {
		sendError(w, "MintNFT", err)
		return
	}
	sendResponse(w, MintResponse{Txn: txn, PolicyID: policy.PolicyID})
}

func (t WebAPI) getWalletQR(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("name")
	if name == "" {
		sendBadRequest(w, "missing wallet name in URL")
		return
	}
	wallet, err := t.api.GetWallet(name)
	if err != nil {
		sendError(w, "GetWallet", err)
		return
	}
	qr, err := GenerateQRCodePNG("web+cardano:"+string(wallet.PaymentAddress), 512)
	if err != nil {
		sendError(w, "GenerateQRCodePNG", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	// The payment address never changes for a wallet; let clients cache.
	w.Header().Set("Cache-Control", "max-age=900, immutable")
	w.Write(qr)
}

func (t WebAPI) getTip(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	tip, err := t.api.Tip()
	if err != nil {
		sendError(w, "Tip", err)
		return
	}
	sendResponse(w, tip)
}

func (t WebAPI) getProtocolParameters(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	params, err := t.api.ProtocolParameters()
	if err != nil {
		sendError(w, "ProtocolParameters", err)
		return
	}
	sendResponse(w, params)
}
