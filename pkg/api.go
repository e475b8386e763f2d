package ada

import (
	"encoding/json"
	"sort"
)

type API struct {
	Store  Store
	L1     L1
	Params *ParamCache
	Sub    Submitter
	bus    MessageBus
	config Config
}

func NewAPI(store Store, l1 L1, bus MessageBus, config Config) API {
	params := NewParamCache(config, l1)
	return API{
		Store:  store,
		L1:     l1,
		Params: params,
		Sub:    NewSubmitter(config, l1, params),
		bus:    bus,
		config: config,
	}
}

func (a API) CreateWallet(name string, password string) (WalletPublic, error) {
	if name == "" || password == "" {
		return WalletPublic{}, NewErr(BadRequest, "wallet name and password are required")
	}
	if _, err := a.Store.GetWallet(name); err == nil {
		return WalletPublic{}, NewErr(AlreadyExists, "wallet %q already exists", name)
	}
	wallet, err := GenerateWallet(a.L1, name, password)
	if err != nil {
		return WalletPublic{}, err
	}
	if err := a.Store.StoreWallet(wallet); err != nil {
		return WalletPublic{}, err
	}
	info := wallet.GetPublicInfo()
	a.bus.Send(WAL_CREATED, info)
	return info, nil
}

func (a API) GetWallet(name string) (WalletPublic, error) {
	wallet, err := a.Store.GetWallet(name)
	if err != nil {
		return WalletPublic{}, err
	}
	return wallet.GetPublicInfo(), nil
}

type BalanceResponse struct {
	Tokens    map[AssetID]Lovelace `json:"tokens"`
	UTXOCount int                  `json:"utxo_count"`
}

func (a API) GetBalance(name string) (BalanceResponse, error) {
	wallet, err := a.Store.GetWallet(name)
	if err != nil {
		return BalanceResponse{}, err
	}
	tokens, utxos, err := wallet.Balance(a.L1)
	if err != nil {
		return BalanceResponse{}, err
	}
	return BalanceResponse{Tokens: tokens, UTXOCount: len(utxos)}, nil
}

func (a API) ListUTXOs(name string) ([]UTXO, error) {
	wallet, err := a.Store.GetWallet(name)
	if err != nil {
		return nil, err
	}
	return wallet.UTXOs(a.L1)
}

func (a API) Tip() (Tip, error) {
	return a.L1.QueryTip()
}

func (a API) ProtocolParameters() (ProtocolParams, error) {
	return a.Params.Refresh(false)
}

func (a API) ListTxns(name string, cursor int, limit int) ([]TxnRecord, int, error) {
	if _, err := a.Store.GetWallet(name); err != nil {
		return nil, 0, err
	}
	return a.Store.ListTxns(name, cursor, limit)
}

// SendLovelace pays the given amount to one address. Inputs are chosen
// smallest-first from the wallet's pure-ADA UTXOs - exhaust the change
// and small bills before breaking out the big notes, so the UTXO set
// stays tidy. The final output is the change returned to the sender.
func (a API) SendLovelace(name string, to Address, amount Lovelace, password string) (SubmittedTxn, error) {
	if to == "" {
		return SubmittedTxn{}, NewErr(BadRequest, "missing 'to' address")
	}
	wallet, err := a.Store.GetWallet(name)
	if err != nil {
		return SubmittedTxn{}, err
	}
	params, err := a.Params.Refresh(false)
	if err != nil {
		return SubmittedTxn{}, err
	}
	if amount < params.MinUTxOValue {
		return SubmittedTxn{}, NewErr(BadRequest,
			"amount %d is below the minimum UTxO value %d", amount, params.MinUTxOValue)
	}
	utxos, err := wallet.UTXOs(a.L1)
	if err != nil {
		return SubmittedTxn{}, err
	}

	// The declared txFeeFixed gives a fair estimate of the fee, so the
	// selection leaves headroom for it; the exact fee comes later from
	// the draft.
	target := amount + params.TxFeeFixed
	inputs := SelectUTXOs(utxos, LovelaceUnit, target, Ascending)
	total := SumUTXOs(inputs, LovelaceUnit)
	if total < target {
		return SubmittedTxn{}, NewErr(InsufficientFunds,
			"requested %d lovelace (plus estimated fee %d), available %d", amount, params.TxFeeFixed, total)
	}

	intent := TxIntent{
		Type:   TxnLovelacePayment,
		Inputs: inputs,
		Outputs: []TxOut{
			{Address: to, Coins: amount},
			{Address: wallet.PaymentAddress, Coins: total - amount},
		},
	}
	return a.submit(intent, wallet, password, "", 0, TX_SUBMITTED)
}

// SendTokens pays a quantity of one native asset to an address. The
// wallet's largest pure-ADA UTXO pays for the transaction (assumed
// sufficient to cover dust plus fees); token UTXOs are accumulated
// smallest-first until the quantity is covered. Token outputs carry
// the minimum dust for their bundle.
func (a API) SendTokens(name string, asset AssetID, quantity Lovelace, to Address, password string) (SubmittedTxn, error) {
	if to == "" {
		return SubmittedTxn{}, NewErr(BadRequest, "missing 'to' address")
	}
	if asset == LovelaceUnit {
		return SubmittedTxn{}, NewErr(BadRequest, "use SendLovelace for the native currency unit")
	}
	if quantity <= 0 {
		return SubmittedTxn{}, NewErr(BadRequest, "token quantity must be positive")
	}
	wallet, err := a.Store.GetWallet(name)
	if err != nil {
		return SubmittedTxn{}, err
	}
	params, err := a.Params.Refresh(false)
	if err != nil {
		return SubmittedTxn{}, err
	}
	utxos, err := wallet.UTXOs(a.L1)
	if err != nil {
		return SubmittedTxn{}, err
	}

	// There must be at least one UTxO containing purely ADA; it pays
	// for the transaction.
	lovelaceUTXOs := SortUTXOs(FilterUTXOs(utxos, LovelaceUnit), LovelaceUnit, Descending)
	if len(lovelaceUTXOs) == 0 {
		return SubmittedTxn{}, NewErr(InsufficientFunds, "no pure-ADA UTxO available to pay for the transaction")
	}
	feeUTXO := lovelaceUTXOs[0]

	tokenInputs := SelectUTXOs(utxos, asset, quantity, Ascending)
	totalTokens := SumUTXOs(tokenInputs, asset)
	if totalTokens < quantity {
		return SubmittedTxn{}, NewErr(InsufficientFunds,
			"insufficient tokens: requested %d, available %d", quantity, totalTokens)
	}

	totalLovelace := feeUTXO.Quantity(LovelaceUnit) + SumUTXOs(tokenInputs, LovelaceUnit)
	dust := a.config.DustParams()
	dust.MinUTxOValue = params.MinUTxOValue

	// First output: the tokens being sent to the recipient.
	sendBundle := MakeBundle(quantity, asset)
	sendDust, err := MinTokenDust(sendBundle, dust)
	if err != nil {
		return SubmittedTxn{}, err
	}
	outputs := []TxOut{{Address: to, Coins: sendDust, Bundle: sendBundle}}
	remaining := totalLovelace - sendDust

	// If there are more tokens in the inputs than are being sent,
	// return the rest to the sender.
	if back := totalTokens - quantity; back > 0 {
		backBundle := MakeBundle(back, asset)
		backDust, err := MinTokenDust(backBundle, dust)
		if err != nil {
			return SubmittedTxn{}, err
		}
		outputs = append(outputs, TxOut{Address: wallet.PaymentAddress, Coins: backDust, Bundle: backBundle})
		remaining -= backDust
	}

	// The last output is the lovelace returned to the wallet.
	outputs = append(outputs, TxOut{Address: wallet.PaymentAddress, Coins: remaining})

	intent := TxIntent{
		Type:    TxnTokenPayment,
		Inputs:  append([]UTXO{feeUTXO}, tokenInputs...),
		Outputs: outputs,
	}
	return a.submit(intent, wallet, password, "", 0, TX_SUBMITTED)
}

// Consolidate collapses every UTXO in the wallet into one output per
// held asset plus a lovelace remainder.
func (a API) Consolidate(name string, password string) (SubmittedTxn, error) {
	wallet, err := a.Store.GetWallet(name)
	if err != nil {
		return SubmittedTxn{}, err
	}
	params, err := a.Params.Refresh(false)
	if err != nil {
		return SubmittedTxn{}, err
	}
	tokens, utxos, err := wallet.Balance(a.L1)
	if err != nil {
		return SubmittedTxn{}, err
	}
	if len(utxos) == 0 {
		return SubmittedTxn{}, NewErr(InsufficientFunds, "wallet has no UTXOs to consolidate")
	}

	remaining := tokens[LovelaceUnit]
	delete(tokens, LovelaceUnit)

	dust := a.config.DustParams()
	dust.MinUTxOValue = params.MinUTxOValue

	// deterministic output order
	assets := make([]AssetID, 0, len(tokens))
	for asset := range tokens {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })

	var outputs []TxOut
	for _, asset := range assets {
		bundle := MakeBundle(tokens[asset], asset)
		bundleDust, err := MinTokenDust(bundle, dust)
		if err != nil {
			return SubmittedTxn{}, err
		}
		outputs = append(outputs, TxOut{Address: wallet.PaymentAddress, Coins: bundleDust, Bundle: bundle})
		remaining -= bundleDust
	}

	// The remainder output must be present in the draft so the fee is
	// computed over the real output count; finalize nets the fee out
	// of it.
	outputs = append(outputs, TxOut{Address: wallet.PaymentAddress, Coins: remaining})

	intent := TxIntent{Type: TxnConsolidation, Inputs: utxos, Outputs: outputs}
	return a.submit(intent, wallet, password, "", 0, TX_SUBMITTED)
}

// PartitionLovelace converts the wallet's pure-ADA UTXOs into outputs
// of the given values (useful before batch-minting NFTs, which each
// want their own payment UTXO). The surplus, minus the fee, comes back
// as the final output.
func (a API) PartitionLovelace(name string, values []Lovelace, password string) (SubmittedTxn, error) {
	if len(values) == 0 {
		return SubmittedTxn{}, NewErr(BadRequest, "no partition values given")
	}
	wallet, err := a.Store.GetWallet(name)
	if err != nil {
		return SubmittedTxn{}, err
	}
	params, err := a.Params.Refresh(false)
	if err != nil {
		return SubmittedTxn{}, err
	}
	for _, v := range values {
		if v < params.MinUTxOValue {
			return SubmittedTxn{}, NewErr(BadRequest,
				"partition value %d is below the minimum UTxO value %d", v, params.MinUTxOValue)
		}
	}
	utxos, err := wallet.UTXOs(a.L1)
	if err != nil {
		return SubmittedTxn{}, err
	}
	inputs := FilterUTXOs(utxos, LovelaceUnit)
	surplus := SumUTXOs(inputs, LovelaceUnit)

	var outputs []TxOut
	for _, v := range values {
		outputs = append(outputs, TxOut{Address: wallet.PaymentAddress, Coins: v})
		surplus -= v
	}
	if surplus < params.MinUTxOValue {
		return SubmittedTxn{}, NewErr(InsufficientFunds,
			"partition values exceed the available lovelace")
	}
	outputs = append(outputs, TxOut{Address: wallet.PaymentAddress, Coins: surplus})

	intent := TxIntent{Type: TxnPartition, Inputs: inputs, Outputs: outputs}
	return a.submit(intent, wallet, password, "", 0, TX_SUBMITTED)
}

type MintRequest struct {
	AssetName        string          `json:"asset_name"`
	To               Address         `json:"to"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	SpendingPassword string          `json:"spending_password"`
	MintingPassword  string          `json:"minting_password"`
}

// MintNFT mints exactly one unit of a uniquely-named asset under a
// fresh single-use policy. The policy is time-boxed to the same expiry
// slot as the transaction, so once the slot passes nothing more can
// ever be minted under that policy ID.
func (a API) MintNFT(name string, req MintRequest) (SubmittedTxn, MintingPolicy, error) {
	assetName := CleanAssetName(req.AssetName)
	if assetName == "" {
		return SubmittedTxn{}, MintingPolicy{}, NewErr(BadRequest, "asset name must contain alphanumeric characters")
	}
	wallet, err := a.Store.GetWallet(name)
	if err != nil {
		return SubmittedTxn{}, MintingPolicy{}, err
	}
	params, err := a.Params.Refresh(false)
	if err != nil {
		return SubmittedTxn{}, MintingPolicy{}, err
	}
	utxos, err := wallet.UTXOs(a.L1)
	if err != nil {
		return SubmittedTxn{}, MintingPolicy{}, err
	}

	// The largest pure-ADA UTxO pays for the mint, assumed to cover
	// dust plus fees.
	lovelaceUTXOs := SortUTXOs(FilterUTXOs(utxos, LovelaceUnit), LovelaceUnit, Descending)
	if len(lovelaceUTXOs) == 0 {
		return SubmittedTxn{}, MintingPolicy{}, NewErr(InsufficientFunds, "no pure-ADA UTxO available to pay for the mint")
	}
	paymentUTXO := lovelaceUTXOs[0]

	tip, err := a.L1.QueryTip()
	if err != nil {
		return SubmittedTxn{}, MintingPolicy{}, err
	}
	expirySlot := tip.Slot + a.config.Adawallet.DefaultTxTTL

	policy, err := CreateMintingPolicy(a.L1, req.MintingPassword, PolicyWindow{ValidBeforeSlot: expirySlot})
	if err != nil {
		return SubmittedTxn{}, MintingPolicy{}, err
	}
	if err := a.Store.StoreMintingPolicy(policy); err != nil {
		return SubmittedTxn{}, MintingPolicy{}, err
	}
	a.bus.Send(TX_POLICY_CREATED, struct {
		PolicyID string `json:"policy_id"`
	}{policy.PolicyID})

	to := req.To
	if to == "" {
		to = wallet.PaymentAddress
	}
	mintBundle := MakeBundle(1, AssetID(policy.PolicyID+"."+assetName))

	dust := a.config.DustParams()
	dust.MinUTxOValue = params.MinUTxOValue
	tokenDust, err := MinTokenDust(mintBundle, dust)
	if err != nil {
		return SubmittedTxn{}, MintingPolicy{}, err
	}

	total := paymentUTXO.Quantity(LovelaceUnit)
	intent := TxIntent{
		Type:   TxnMint,
		Inputs: []UTXO{paymentUTXO},
		Outputs: []TxOut{
			{Address: to, Coins: tokenDust, Bundle: mintBundle},
			{Address: wallet.PaymentAddress, Coins: total - tokenDust},
		},
		Metadata: req.Metadata,
		Mint:     mintBundle,
		Policy:   &policy,
	}
	txn, err := a.submit(intent, wallet, req.SpendingPassword, req.MintingPassword, expirySlot, TX_MINTED)
	if err != nil {
		return SubmittedTxn{}, MintingPolicy{}, err
	}
	return txn, policy, nil
}

func (a API) submit(intent TxIntent, wallet Wallet, spendPassword, mintPassword string, ttlSlot int64, event EVENT_TX) (SubmittedTxn, error) {
	txn, err := a.Sub.Submit(intent, wallet, spendPassword, mintPassword, ttlSlot)
	if err != nil {
		a.bus.Send(TX_FAILED, struct {
			Wallet string  `json:"wallet"`
			Type   TxnType `json:"type"`
			Error  string  `json:"error"`
		}{wallet.Name, intent.Type, err.Error()})
		return SubmittedTxn{}, err
	}
	record := TxnRecord{
		TxID:     txn.TxID,
		Wallet:   wallet.Name,
		Type:     txn.Type,
		Inputs:   txn.Inputs,
		Outputs:  txn.Outputs,
		Metadata: txn.Metadata,
		Fee:      txn.Fee,
	}
	if err := a.Store.StoreTxn(record); err != nil {
		// The transaction is on the wire; surface the store failure
		// but do not pretend the submission failed.
		a.bus.Send(SYS_ERR, struct {
			Error string `json:"error"`
		}{err.Error()})
	}
	a.bus.Send(event, record, txn.TxID)
	return txn, nil
}
