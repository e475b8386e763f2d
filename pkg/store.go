package ada

import (
	"encoding/json"
	"time"
)

// TxnRecord is what we persist about a submitted transaction. The
// ledger owns the truth; this is bookkeeping for callers.
type TxnRecord struct {
	TxID     string          `json:"tx_id"`
	Wallet   string          `json:"wallet"`
	Type     TxnType         `json:"type"`
	Inputs   []string        `json:"inputs"`
	Outputs  []string        `json:"outputs"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Fee      Lovelace        `json:"fee"`
	Created  time.Time       `json:"created"`
}

type Store interface {
	// StoreWallet stores a wallet record (addresses + encrypted keys).
	// Fails with AlreadyExists if the name is taken.
	StoreWallet(wallet Wallet) error
	// GetWallet returns the wallet with the given name.
	GetWallet(name string) (Wallet, error)

	// StoreMintingPolicy stores a minting policy record.
	StoreMintingPolicy(policy MintingPolicy) error
	// GetMintingPolicy returns the policy with the given policy ID.
	GetMintingPolicy(policyID string) (MintingPolicy, error)

	// StoreTxn records a submitted transaction.
	StoreTxn(txn TxnRecord) error
	// ListTxns returns submitted transactions for a wallet.
	// pagination: next_cursor should be passed as 'cursor' on the next call (initial cursor = 0)
	// pagination: when next_cursor == 0, that is the final page of results.
	ListTxns(wallet string, cursor int, limit int) (items []TxnRecord, next_cursor int, err error)

	// Close is deferred until shutdown.
	Close()
}
