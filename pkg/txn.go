package ada

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Transaction pipeline: an immutable value per phase.
//
//	TxIntent -> DraftTxn -> PricedTxn -> FinalizedTxn -> SignedTxn -> SubmittedTxn
//
// Each phase method returns a new value instead of mutating shared
// state, so every step of the draft/fee/finalize protocol can be
// audited and tested in isolation. Any step may fail, which aborts the
// whole pipeline; the WorkDir holding intermediate artifacts is closed
// by the orchestrator (Submitter) on every exit path.

type TxnType string

const (
	TxnLovelacePayment TxnType = "payment"
	TxnTokenPayment    TxnType = "token-payment"
	TxnMint            TxnType = "mint"
	TxnConsolidation   TxnType = "consolidation"
	TxnPartition       TxnType = "partition"
)

// TxOut is one transaction output: an address, a lovelace amount and
// an optional token bundle riding along.
type TxOut struct {
	Address Address
	Coins   Lovelace
	Bundle  TokenBundle
}

// Render produces the output in the form the node tool expects:
// addr+lovelace or addr+lovelace+qty assetid[+...].
func (o TxOut) Render() string {
	var b strings.Builder
	b.WriteString(string(o.Address))
	b.WriteByte('+')
	b.WriteString(strconv.FormatInt(o.Coins, 10))
	if o.Bundle != "" {
		b.WriteByte('+')
		b.WriteString(o.Bundle.Render())
	}
	return b.String()
}

// Render joins bundle entries with '+' and drops the quoting, which
// only exists to delimit entries in the bundle-string form.
func (b TokenBundle) Render() string {
	entries := bundleEntryRE.FindAllString(string(b), -1)
	for i := range entries {
		entries[i] = strings.Trim(entries[i], `"`)
	}
	return strings.Join(entries, "+")
}

// TxIntent is a not-yet-submitted transaction: ordered inputs and
// outputs plus optional metadata and mint. Output ordering is
// significant - the *last* output is the "change" output by convention
// and is the only one rewritten after fee computation. An intent is
// owned exclusively by the use-case that created it.
type TxIntent struct {
	Type     TxnType
	Inputs   []UTXO
	Outputs  []TxOut
	Metadata json.RawMessage
	Mint     TokenBundle
	Policy   *MintingPolicy
}

// WitnessCount is 1 for the spending key, 2 when a minting policy's
// signing key also participates. Witness count affects the fee.
func (t TxIntent) WitnessCount() int {
	if t.Policy != nil {
		return 2
	}
	return 1
}

func (t TxIntent) inputRefs() []string {
	refs := make([]string, len(t.Inputs))
	for i, in := range t.Inputs {
		refs[i] = in.TxIn()
	}
	return refs
}

func (t TxIntent) outputValues() []string {
	outs := make([]string, len(t.Outputs))
	for i, out := range t.Outputs {
		outs[i] = out.Render()
	}
	return outs
}

func (t TxIntent) validate() error {
	if len(t.Inputs) == 0 || len(t.Outputs) == 0 {
		return NewErr(BadRequest, "cannot build a txn with zero inputs or zero outputs")
	}
	seen := NewUTXOSet()
	for _, in := range t.Inputs {
		if seen.Includes(in.TxHash, in.TxIndex) {
			return NewErr(BadRequest, "duplicate transaction input: %s", in.TxIn())
		}
		seen.Add(in.TxHash, in.TxIndex)
	}
	for _, out := range t.Outputs {
		if out.Address == "" {
			return NewErr(BadRequest, "transaction output is missing an address")
		}
		if out.Coins < 0 {
			return NewErr(BadRequest, "transaction output has a negative amount")
		}
	}
	return nil
}

// buildFiles writes the auxiliary files (metadata, policy script) the
// node tool needs alongside the body, and returns a populated request.
func (t TxIntent) buildFiles(work *WorkDir, fee Lovelace, ttl int64, outName string) (BuildTxRequest, error) {
	req := BuildTxRequest{
		Inputs:  t.inputRefs(),
		Outputs: t.outputValues(),
		Fee:     fee,
		TTL:     ttl,
		Mint:    t.Mint.Render(),
		OutFile: work.File(outName),
	}
	if t.Metadata != nil {
		path, err := work.WriteFile("metadata.json", t.Metadata)
		if err != nil {
			return BuildTxRequest{}, err
		}
		req.MetadataFile = path
	}
	if t.Mint != "" {
		if t.Policy == nil {
			return BuildTxRequest{}, NewErr(BadRequest, "mint requires a minting policy")
		}
		path, err := work.WriteFile("policy.script.json", t.Policy.Script)
		if err != nil {
			return BuildTxRequest{}, err
		}
		req.MintScriptFile = path
	}
	return req, nil
}

// Draft encodes the intent at fee=0 with no expiry, producing the body
// file used for fee estimation.
func (t TxIntent) Draft(l1 L1, work *WorkDir) (DraftTxn, error) {
	if err := t.validate(); err != nil {
		return DraftTxn{}, err
	}
	req, err := t.buildFiles(work, 0, 0, "transaction.draft")
	if err != nil {
		return DraftTxn{}, err
	}
	if err := l1.BuildTransaction(req); err != nil {
		return DraftTxn{}, err
	}
	return DraftTxn{TxIntent: t, DraftFile: req.OutFile, work: work}, nil
}

// DraftTxn is an intent with an encoded fee-estimation draft. The
// draft file is opaque ledger output, consumed only by the node tool.
type DraftTxn struct {
	TxIntent
	DraftFile string
	work      *WorkDir
}

// EstimateFee asks the node tool for the minimum fee of this draft.
// The protocol-parameter cache is refreshed first when stale, since
// fee parameters drift over epochs.
func (d DraftTxn) EstimateFee(l1 L1, cache *ParamCache) (PricedTxn, error) {
	params, err := cache.Refresh(false)
	if err != nil {
		return PricedTxn{}, err
	}
	fee, err := l1.CalculateMinFee(MinFeeRequest{
		TxBodyFile:    d.DraftFile,
		InputCount:    len(d.Inputs),
		OutputCount:   len(d.Outputs),
		WitnessCount:  d.WitnessCount(),
		ProtocolsFile: cache.FilePath(),
	})
	if err != nil {
		return PricedTxn{}, err
	}
	return PricedTxn{DraftTxn: d, Fee: fee, params: params}, nil
}

// PricedTxn is a draft with a known minimum fee.
type PricedTxn struct {
	DraftTxn
	Fee    Lovelace
	params ProtocolParams
}

// Finalize rewrites the trailing change output to net out the fee and
// re-encodes the body with the real fee and expiry slot baked in (the
// node tool requires a fresh encoding per parameter change).
//
// ttlSlot 0 means "not supplied": the expiry is computed from the
// current chain tip plus defaultTTL slots. A transaction not included
// in a block before its expiry slot is permanently rejected by the
// ledger, not retried.
func (p PricedTxn) Finalize(l1 L1, ttlSlot int64, defaultTTL int64) (FinalizedTxn, error) {
	change := p.Outputs[len(p.Outputs)-1]
	remaining := change.Coins - p.Fee
	if remaining < p.params.MinUTxOValue {
		return FinalizedTxn{}, NewErr(InsufficientFunds,
			"change output %d would fall below the minimum UTxO value %d after paying the fee %d",
			change.Coins, p.params.MinUTxOValue, p.Fee)
	}

	// new outputs slice: all but the change output are untouched
	outputs := make([]TxOut, len(p.Outputs))
	copy(outputs, p.Outputs)
	outputs[len(outputs)-1] = TxOut{Address: change.Address, Coins: remaining, Bundle: change.Bundle}

	final := p.TxIntent
	final.Outputs = outputs
	if err := final.checkBalanced(p.Fee); err != nil {
		return FinalizedTxn{}, err
	}

	if ttlSlot == 0 {
		tip, err := l1.QueryTip()
		if err != nil {
			return FinalizedTxn{}, err
		}
		ttlSlot = tip.Slot + defaultTTL
	}

	req, err := final.buildFiles(p.work, p.Fee, ttlSlot, "transaction.raw")
	if err != nil {
		return FinalizedTxn{}, err
	}
	if err := l1.BuildTransaction(req); err != nil {
		return FinalizedTxn{}, err
	}
	return FinalizedTxn{TxIntent: final, Fee: p.Fee, TTL: ttlSlot, RawFile: req.OutFile, work: p.work}, nil
}

// checkBalanced enforces the ledger invariants, exactly:
// sum(inputs) == sum(outputs) + fee in lovelace, and per-asset token
// conservation (inputs plus mint == outputs).
func (t TxIntent) checkBalanced(fee Lovelace) error {
	sumIn := SumUTXOs(t.Inputs, LovelaceUnit)
	var sumOut Lovelace
	outTokens := map[AssetID]Lovelace{}
	for _, out := range t.Outputs {
		sumOut += out.Coins
		if out.Bundle != "" {
			info, err := ParseBundle(out.Bundle)
			if err != nil {
				return err
			}
			for asset, qty := range info.Tokens {
				outTokens[asset] += qty
			}
		}
	}
	if sumIn != sumOut+fee {
		return NewErr(UnknownError,
			"unbalanced transaction: inputs %d != outputs %d + fee %d", sumIn, sumOut, fee)
	}

	inTokens := map[AssetID]Lovelace{}
	for _, in := range t.Inputs {
		for asset, qty := range in.Tokens {
			if asset != LovelaceUnit {
				inTokens[asset] += qty
			}
		}
	}
	if t.Mint != "" {
		info, err := ParseBundle(t.Mint)
		if err != nil {
			return err
		}
		for asset, qty := range info.Tokens {
			inTokens[asset] += qty
		}
	}
	for asset, qty := range inTokens {
		if outTokens[asset] != qty {
			return NewErr(UnknownError,
				"unbalanced transaction: asset %s inputs %d != outputs %d", asset, qty, outTokens[asset])
		}
	}
	for asset, qty := range outTokens {
		if inTokens[asset] != qty {
			return NewErr(UnknownError,
				"unbalanced transaction: asset %s inputs %d != outputs %d", asset, inTokens[asset], qty)
		}
	}
	return nil
}

// FinalizedTxn has the real fee and expiry baked into its body file
// and is ready for signing.
type FinalizedTxn struct {
	TxIntent
	Fee     Lovelace
	TTL     int64
	RawFile string
	work    *WorkDir
}

// Sign invokes the external signer with decrypted key files (which
// live inside the WorkDir and are destroyed with it).
func (f FinalizedTxn) Sign(l1 L1, signingKeyFiles []string) (SignedTxn, error) {
	req := SignTxRequest{
		TxBodyFile:      f.RawFile,
		SigningKeyFiles: signingKeyFiles,
		OutFile:         f.work.File("transaction.signed"),
	}
	if f.Policy != nil {
		path, err := f.work.WriteFile("policy.script.json", f.Policy.Script)
		if err != nil {
			return SignedTxn{}, err
		}
		req.ScriptFile = path
	}
	if err := l1.SignTransaction(req); err != nil {
		return SignedTxn{}, err
	}
	txID, err := l1.TransactionID(req.OutFile)
	if err != nil {
		return SignedTxn{}, err
	}
	return SignedTxn{FinalizedTxn: f, TxID: txID, SignedFile: req.OutFile}, nil
}

type SignedTxn struct {
	FinalizedTxn
	TxID       string
	SignedFile string
}

// Submit broadcasts the signed transaction. Never retried: a blind
// resubmission risks double-submission, so any failure is terminal for
// this operation and is reported to the caller.
func (s SignedTxn) Submit(l1 L1) (SubmittedTxn, error) {
	if err := l1.SubmitTransaction(s.SignedFile); err != nil {
		return SubmittedTxn{}, err
	}
	return SubmittedTxn{Type: s.Type, TxID: s.TxID, Fee: s.Fee, TTL: s.TTL,
		Inputs: s.inputRefs(), Outputs: s.outputValues(), Metadata: s.Metadata}, nil
}

// SubmittedTxn is the terminal success value: everything worth
// persisting about a transaction accepted by the node.
type SubmittedTxn struct {
	Type     TxnType         `json:"type"`
	TxID     string          `json:"tx_id"`
	Fee      Lovelace        `json:"fee"`
	TTL      int64           `json:"ttl"`
	Inputs   []string        `json:"inputs"`
	Outputs  []string        `json:"outputs"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}
