package ada

// L1 represents access to the Cardano ledger.
//
// All transaction encoding, signing and broadcast is delegated to the
// external node tool (cardano-cli talking to a cardano-node socket);
// this interface is its seam. File paths in requests refer to artifacts
// the node tool reads or writes - this engine never parses them.
type L1 interface {
	QueryTip() (Tip, error)
	// QueryProtocolParameters writes the raw parameter JSON to outFile
	// (the node tool consumes it by file during fee calculation) and
	// returns the parsed values.
	QueryProtocolParameters(outFile string) (ProtocolParams, error)
	QueryUTXOs(address Address) ([]UTXO, error)

	// BuildTransaction encodes a transaction body into req.OutFile.
	// With Fee=0 and TTL=0 this produces the fee-estimation draft.
	BuildTransaction(req BuildTxRequest) error
	// CalculateMinFee runs the ledger fee formula over a transaction
	// body file and returns the minimum fee in lovelace.
	CalculateMinFee(req MinFeeRequest) (Lovelace, error)
	SignTransaction(req SignTxRequest) error
	// TransactionID derives the ledger transaction ID from a body file.
	TransactionID(txFile string) (string, error)
	SubmitTransaction(txFile string) error

	GenerateKeyPair(signingKeyFile, verificationKeyFile string) error
	GenerateStakeKeyPair(signingKeyFile, verificationKeyFile string) error
	BuildAddress(paymentVKeyFile, stakeVKeyFile string) (Address, error)
	BuildStakeAddress(stakeVKeyFile string) (Address, error)
	KeyHash(verificationKeyFile string) (string, error)
	// PolicyID computes the hash of a serialized policy script.
	PolicyID(scriptFile string) (string, error)
}

type Address string

// Lovelace is the smallest unit of ADA. All ledger arithmetic in this
// package is integer lovelace; fractional ADA only exists at the web
// API edge (see webapi).
type Lovelace = int64

// AssetID identifies an asset held in a UTXO: either LovelaceUnit, or
// "policyID.assetName" (a policy-only ID with no asset name is legal).
type AssetID string

const LovelaceUnit AssetID = "lovelace"

type Tip struct {
	Block int64  `json:"block"`
	Epoch int64  `json:"epoch"`
	Hash  string `json:"hash"`
	Slot  int64  `json:"slot"`
}

// ProtocolParams are the fee/dust parameters this engine needs from the
// full protocol-parameter set. They drift over epochs; always obtain
// them through a ParamCache, never hold them across operations.
type ProtocolParams struct {
	MinUTxOValue Lovelace `json:"minUTxOValue"`
	TxFeeFixed   Lovelace `json:"txFeeFixed"`
	TxFeePerByte Lovelace `json:"txFeePerByte"`
}

type BuildTxRequest struct {
	Inputs  []string // "txhash#index" spent by this transaction
	Outputs []string // "addr+lovelace" or "addr+lovelace+\"qty assetid\""
	Fee     Lovelace
	TTL     int64 // invalid-hereafter slot; 0 = unset (drafts)
	// optional auxiliary payloads
	MetadataFile   string
	Mint           string // token bundle being minted
	MintScriptFile string // policy script authorizing the mint
	OutFile        string
}

type MinFeeRequest struct {
	TxBodyFile    string
	InputCount    int
	OutputCount   int
	WitnessCount  int
	ProtocolsFile string // parameter JSON written by QueryProtocolParameters
}

type SignTxRequest struct {
	TxBodyFile      string
	SigningKeyFiles []string // spending key, plus policy key when minting
	ScriptFile      string   // policy script when minting
	OutFile         string
}
