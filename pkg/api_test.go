package ada

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// memStore is a throwaway in-memory Store for API tests; the real
// SQLite store has its own tests in pkg/store.
type memStore struct {
	wallets  map[string]Wallet
	policies map[string]MintingPolicy
	txns     []TxnRecord
}

func newMemStore() *memStore {
	return &memStore{wallets: map[string]Wallet{}, policies: map[string]MintingPolicy{}}
}

func (m *memStore) StoreWallet(wallet Wallet) error {
	if _, ok := m.wallets[wallet.Name]; ok {
		return NewErr(AlreadyExists, "wallet already exists: %s", wallet.Name)
	}
	m.wallets[wallet.Name] = wallet
	return nil
}

func (m *memStore) GetWallet(name string) (Wallet, error) {
	w, ok := m.wallets[name]
	if !ok {
		return Wallet{}, NewErr(NotFound, "wallet not found: %s", name)
	}
	return w, nil
}

func (m *memStore) StoreMintingPolicy(policy MintingPolicy) error {
	m.policies[policy.PolicyID] = policy
	return nil
}

func (m *memStore) GetMintingPolicy(policyID string) (MintingPolicy, error) {
	p, ok := m.policies[policyID]
	if !ok {
		return MintingPolicy{}, NewErr(NotFound, "policy not found: %s", policyID)
	}
	return p, nil
}

func (m *memStore) StoreTxn(txn TxnRecord) error {
	m.txns = append(m.txns, txn)
	return nil
}

func (m *memStore) ListTxns(wallet string, cursor int, limit int) ([]TxnRecord, int, error) {
	items := []TxnRecord{}
	for _, t := range m.txns {
		if t.Wallet == wallet {
			items = append(items, t)
		}
	}
	return items, 0, nil
}

func (m *memStore) Close() {}

func newTestAPI(t *testing.T) (API, *stubL1, *memStore) {
	t.Helper()
	conf := TestConfig()
	conf.Adawallet.DataDir = t.TempDir()
	l1 := newStubL1()
	db := newMemStore()

	bus := NewMessageBus()
	started, stopped := make(chan bool, 1), make(chan bool, 1)
	stop := make(chan context.Context, 1)
	bus.Run(started, stopped, stop)
	<-started
	t.Cleanup(func() {
		stop <- context.Background()
		<-stopped
	})

	return NewAPI(db, l1, bus, conf), l1, db
}

func fundWallet(t *testing.T, api API, l1 *stubL1, utxos ...UTXO) WalletPublic {
	t.Helper()
	wallet, err := api.CreateWallet("treasury", "pw")
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	l1.utxos[wallet.PaymentAddress] = utxos
	return wallet
}

func TestCreateWallet(t *testing.T) {
	api, _, db := newTestAPI(t)
	wallet, err := api.CreateWallet("treasury", "pw")
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	if wallet.PaymentAddress == "" || wallet.StakeAddress == "" {
		t.Fatalf("incomplete wallet: %+v", wallet)
	}
	stored := db.wallets["treasury"]
	if len(stored.PaymentSigningKey) == 0 || strings.Contains(string(stored.PaymentSigningKey), "stubSKey") {
		t.Fatalf("signing key missing or stored in plaintext")
	}
	if _, err := api.CreateWallet("treasury", "pw"); !IsAlreadyExistsError(err) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
	if _, err := api.CreateWallet("", "pw"); !IsError(err, BadRequest) {
		t.Fatalf("expected BadRequest for empty name, got %v", err)
	}
}

func TestSendLovelace(t *testing.T) {
	api, l1, db := newTestAPI(t)
	wallet := fundWallet(t, api, l1, lovelaceUTXO("aa", 0, 10000000))

	txn, err := api.SendLovelace("treasury", "addr_test1recipient", 4000000, "pw")
	if err != nil {
		t.Fatalf("SendLovelace: %v", err)
	}
	if txn.Fee != 170000 {
		t.Fatalf("wrong fee: %d", txn.Fee)
	}
	if len(txn.Outputs) != 2 {
		t.Fatalf("expected 2 outputs: %v", txn.Outputs)
	}
	if txn.Outputs[0] != "addr_test1recipient+4000000" {
		t.Fatalf("wrong recipient output: %s", txn.Outputs[0])
	}
	if txn.Outputs[1] != string(wallet.PaymentAddress)+"+5830000" {
		t.Fatalf("wrong change output: %s", txn.Outputs[1])
	}
	if l1.submitCount != 1 {
		t.Fatalf("expected 1 submission, got %d", l1.submitCount)
	}
	if len(db.txns) != 1 || db.txns[0].TxID != txn.TxID || db.txns[0].Type != TxnLovelacePayment {
		t.Fatalf("txn not recorded: %+v", db.txns)
	}
}

func TestSendLovelacePrefersSmallUTXOs(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	fundWallet(t, api, l1,
		lovelaceUTXO("big", 0, 50000000),
		lovelaceUTXO("small", 0, 3000000),
		lovelaceUTXO("mid", 0, 4000000),
	)

	txn, err := api.SendLovelace("treasury", "addr_test1recipient", 4000000, "pw")
	if err != nil {
		t.Fatalf("SendLovelace: %v", err)
	}
	// 4M + estimated fee needs both small UTXOs; the big one stays put
	if len(txn.Inputs) != 2 || txn.Inputs[0] != "small#0" || txn.Inputs[1] != "mid#0" {
		t.Fatalf("wrong input selection: %v", txn.Inputs)
	}
}

func TestSendLovelaceInsufficient(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	fundWallet(t, api, l1, lovelaceUTXO("aa", 0, 2000000))

	if _, err := api.SendLovelace("treasury", "addr_test1x", 100000000, "pw"); !IsInsufficientFundsError(err) {
		t.Fatalf("expected InsufficientFunds, got %v", err)
	}
	if l1.buildCount != 0 || l1.submitCount != 0 {
		t.Fatalf("insufficient funds must be caught before any node build/submit")
	}

	// a wallet holding only tokens has no spendable ADA
	l1.utxos["addr_test1stubpayment"] = []UTXO{tokenUTXO("bb", 0, 2000000, berry, 10)}
	if _, err := api.SendLovelace("treasury", "addr_test1x", 1500000, "pw"); !IsInsufficientFundsError(err) {
		t.Fatalf("expected InsufficientFunds for token-only wallet, got %v", err)
	}
	if l1.submitCount != 0 {
		t.Fatalf("nothing may be submitted")
	}
}

func TestSendLovelaceBelowMinimum(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	fundWallet(t, api, l1, lovelaceUTXO("aa", 0, 10000000))
	if _, err := api.SendLovelace("treasury", "addr_test1x", 500000, "pw"); !IsError(err, BadRequest) {
		t.Fatalf("expected BadRequest below minUTxOValue, got %v", err)
	}
}

func TestSendTokens(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	wallet := fundWallet(t, api, l1,
		lovelaceUTXO("aa", 0, 10000000),
		tokenUTXO("bb", 0, 2000000, berry, 10),
	)

	txn, err := api.SendTokens("treasury", berry, 4, "addr_test1recipient", "pw")
	if err != nil {
		t.Fatalf("SendTokens: %v", err)
	}
	if len(txn.Inputs) != 2 {
		t.Fatalf("expected the fee UTXO plus the token UTXO: %v", txn.Inputs)
	}
	if txn.Inputs[0] != "aa#0" {
		t.Fatalf("largest pure-ADA UTXO must come first: %v", txn.Inputs)
	}
	if len(txn.Outputs) != 3 {
		t.Fatalf("expected recipient + token remainder + change: %v", txn.Outputs)
	}
	// recipient gets the tokens riding on minimum dust
	if txn.Outputs[0] != "addr_test1recipient+1444443+4 "+string(berry) {
		t.Fatalf("wrong recipient output: %s", txn.Outputs[0])
	}
	// leftover tokens come home on their own dust
	if txn.Outputs[1] != string(wallet.PaymentAddress)+"+1444443+6 "+string(berry) {
		t.Fatalf("wrong token remainder output: %s", txn.Outputs[1])
	}
	// 12000000 - 2*1444443 - 170000 fee
	if txn.Outputs[2] != string(wallet.PaymentAddress)+"+8941114" {
		t.Fatalf("wrong change output: %s", txn.Outputs[2])
	}
}

func TestSendTokensErrors(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	fundWallet(t, api, l1, tokenUTXO("bb", 0, 2000000, berry, 10))

	// no pure-ADA UTXO to pay the fee
	if _, err := api.SendTokens("treasury", berry, 4, "addr_test1x", "pw"); !IsInsufficientFundsError(err) {
		t.Fatalf("expected InsufficientFunds without a fee UTXO, got %v", err)
	}

	l1.utxos["addr_test1stubpayment"] = []UTXO{
		lovelaceUTXO("aa", 0, 10000000),
		tokenUTXO("bb", 0, 2000000, berry, 10),
	}
	// more tokens than the wallet holds
	if _, err := api.SendTokens("treasury", berry, 50, "addr_test1x", "pw"); !IsInsufficientFundsError(err) {
		t.Fatalf("expected InsufficientFunds for short tokens, got %v", err)
	}
	if l1.submitCount != 0 {
		t.Fatalf("nothing may be submitted")
	}

	// the native unit has its own path
	if _, err := api.SendTokens("treasury", LovelaceUnit, 4, "addr_test1x", "pw"); !IsError(err, BadRequest) {
		t.Fatalf("expected BadRequest for lovelace asset, got %v", err)
	}
}

func TestConsolidate(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	wallet := fundWallet(t, api, l1,
		lovelaceUTXO("aa", 0, 5000000),
		tokenUTXO("bb", 0, 2000000, berry, 10),
		tokenUTXO("bb", 1, 1500000, berry, 5),
	)

	txn, err := api.Consolidate("treasury", "pw")
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if txn.Type != TxnConsolidation {
		t.Fatalf("wrong type: %s", txn.Type)
	}
	if len(txn.Inputs) != 3 {
		t.Fatalf("consolidation must spend every UTXO: %v", txn.Inputs)
	}
	if len(txn.Outputs) != 2 {
		t.Fatalf("expected one token output plus the remainder: %v", txn.Outputs)
	}
	if txn.Outputs[0] != string(wallet.PaymentAddress)+"+1444443+15 "+string(berry) {
		t.Fatalf("wrong token output: %s", txn.Outputs[0])
	}
	// 8500000 - 1444443 - 170000 fee
	if txn.Outputs[1] != string(wallet.PaymentAddress)+"+6885557" {
		t.Fatalf("wrong remainder output: %s", txn.Outputs[1])
	}
}

func TestPartitionLovelace(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	wallet := fundWallet(t, api, l1, lovelaceUTXO("aa", 0, 10000000))

	txn, err := api.PartitionLovelace("treasury", []Lovelace{2000000, 2000000}, "pw")
	if err != nil {
		t.Fatalf("PartitionLovelace: %v", err)
	}
	if txn.Type != TxnPartition {
		t.Fatalf("wrong type: %s", txn.Type)
	}
	want := []string{
		string(wallet.PaymentAddress) + "+2000000",
		string(wallet.PaymentAddress) + "+2000000",
		string(wallet.PaymentAddress) + "+5830000", // surplus minus fee
	}
	if len(txn.Outputs) != 3 {
		t.Fatalf("expected 3 outputs: %v", txn.Outputs)
	}
	for i, w := range want {
		if txn.Outputs[i] != w {
			t.Fatalf("output %d: got %s, want %s", i, txn.Outputs[i], w)
		}
	}
}

func TestPartitionLovelaceErrors(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	fundWallet(t, api, l1, lovelaceUTXO("aa", 0, 10000000))

	if _, err := api.PartitionLovelace("treasury", []Lovelace{500000}, "pw"); !IsError(err, BadRequest) {
		t.Fatalf("expected BadRequest below minUTxOValue, got %v", err)
	}
	if _, err := api.PartitionLovelace("treasury", nil, "pw"); !IsError(err, BadRequest) {
		t.Fatalf("expected BadRequest for empty values, got %v", err)
	}
	if _, err := api.PartitionLovelace("treasury", []Lovelace{5000000, 5000000}, "pw"); !IsInsufficientFundsError(err) {
		t.Fatalf("expected InsufficientFunds, got %v", err)
	}
}

func TestMintNFT(t *testing.T) {
	api, l1, db := newTestAPI(t)
	wallet := fundWallet(t, api, l1, lovelaceUTXO("aa", 0, 10000000))

	req := MintRequest{
		AssetName:        "Berry #1!",
		Metadata:         json.RawMessage(`{"721":{"name":"Berry #1"}}`),
		SpendingPassword: "pw",
		MintingPassword:  "mintpw",
	}
	txn, policy, err := api.MintNFT("treasury", req)
	if err != nil {
		t.Fatalf("MintNFT: %v", err)
	}
	if policy.PolicyID != testPolicyID {
		t.Fatalf("wrong policy ID: %s", policy.PolicyID)
	}
	// policy persisted so the asset stays provable after the mint
	if _, err := db.GetMintingPolicy(policy.PolicyID); err != nil {
		t.Fatalf("policy not stored: %v", err)
	}

	// the policy is time-boxed to the transaction expiry
	if txn.TTL != l1.tip.Slot+1000 {
		t.Fatalf("wrong expiry slot: %d", txn.TTL)
	}
	var script scriptClause
	if err := json.Unmarshal(policy.Script, &script); err != nil {
		t.Fatalf("bad policy script: %v", err)
	}
	if script.Type != "all" || len(script.Scripts) != 2 || script.Scripts[1].Slot != txn.TTL {
		t.Fatalf("policy script not time-boxed to the txn expiry: %s", policy.Script)
	}

	// asset name cleaned, exactly one unit minted, to the wallet itself
	if txn.Outputs[0] != string(wallet.PaymentAddress)+"+1444443+1 "+testPolicyID+".Berry1" {
		t.Fatalf("wrong mint output: %s", txn.Outputs[0])
	}
	if l1.lastBuild.Mint != "1 "+testPolicyID+".Berry1" {
		t.Fatalf("wrong mint field: %s", l1.lastBuild.Mint)
	}
	if l1.lastBuild.MetadataFile == "" || l1.lastBuild.MintScriptFile == "" {
		t.Fatalf("metadata/script files missing from the build: %+v", l1.lastBuild)
	}
	// both the spending key and the policy key witness the txn
	if len(l1.lastSign.SigningKeyFiles) != 2 || l1.lastSign.ScriptFile == "" {
		t.Fatalf("wrong signing request: %+v", l1.lastSign)
	}
	if txn.Type != TxnMint {
		t.Fatalf("wrong type: %s", txn.Type)
	}
}

func TestMintNFTBadName(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	fundWallet(t, api, l1, lovelaceUTXO("aa", 0, 10000000))
	req := MintRequest{AssetName: "!!!", SpendingPassword: "pw", MintingPassword: "pw"}
	if _, _, err := api.MintNFT("treasury", req); !IsError(err, BadRequest) {
		t.Fatalf("expected BadRequest for unusable asset name, got %v", err)
	}
}

func TestSubmitterWrongPassword(t *testing.T) {
	api, l1, _ := newTestAPI(t)
	fundWallet(t, api, l1, lovelaceUTXO("aa", 0, 10000000))

	_, err := api.SendLovelace("treasury", "addr_test1x", 4000000, "wrong")
	if !IsKeyDecryptionError(err) {
		t.Fatalf("expected KeyDecryption, got %v", err)
	}
	if l1.signCount != 0 || l1.submitCount != 0 {
		t.Fatalf("bad password must not sign or submit")
	}
}
