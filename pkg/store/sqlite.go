package store

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	ada "github.com/adafoundation/adawallet/pkg"

	_ "github.com/mattn/go-sqlite3"
)

var SETUP_SQL string = `
CREATE TABLE IF NOT EXISTS wallet (
	name TEXT NOT NULL UNIQUE,
	payment_address TEXT NOT NULL,
	stake_address TEXT NOT NULL,
	payment_skey BLOB NOT NULL,
	payment_vkey BLOB NOT NULL,
	stake_skey BLOB NOT NULL,
	stake_vkey BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS minting_policy (
	policy_id TEXT NOT NULL UNIQUE,
	script BLOB NOT NULL,
	signing_key BLOB NOT NULL,
	verification_key BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS txn (
	tx_id TEXT NOT NULL UNIQUE,
	wallet TEXT NOT NULL,
	txn_type TEXT NOT NULL,
	inputs TEXT NOT NULL,
	outputs TEXT NOT NULL,
	metadata TEXT,
	fee INTEGER NOT NULL,
	created INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS txn_wallet_i ON txn (wallet);
`

// interface guard ensures SQLiteStore implements ada.Store
var _ ada.Store = SQLiteStore{}

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns an ada.Store implementor that uses sqlite
func NewSQLiteStore(fileName string) (SQLiteStore, error) {
	db, err := sql.Open("sqlite3", fileName)
	if err != nil {
		return SQLiteStore{}, dbErr(err, "opening database")
	}
	// init tables / indexes
	_, err = db.Exec(SETUP_SQL)
	if err != nil {
		return SQLiteStore{}, dbErr(err, "creating tables")
	}
	return SQLiteStore{db}, nil
}

// Defer this until shutdown
func (s SQLiteStore) Close() {
	s.db.Close()
}

func (s SQLiteStore) StoreWallet(wallet ada.Wallet) error {
	_, err := s.db.Exec(
		"INSERT INTO wallet (name, payment_address, stake_address, payment_skey, payment_vkey, stake_skey, stake_vkey) VALUES (?,?,?,?,?,?,?)",
		wallet.Name, wallet.PaymentAddress, wallet.StakeAddress,
		wallet.PaymentSigningKey, wallet.PaymentVerificationKey,
		wallet.StakeSigningKey, wallet.StakeVerificationKey)
	if err != nil {
		if isUniqueConstraint(err) {
			return ada.NewErr(ada.AlreadyExists, "wallet already exists: %s", wallet.Name)
		}
		return dbErr(err, "storing wallet")
	}
	return nil
}

func (s SQLiteStore) GetWallet(name string) (ada.Wallet, error) {
	row := s.db.QueryRow(
		"SELECT name, payment_address, stake_address, payment_skey, payment_vkey, stake_skey, stake_vkey FROM wallet WHERE name = ?",
		name)
	w := ada.Wallet{}
	err := row.Scan(&w.Name, &w.PaymentAddress, &w.StakeAddress,
		&w.PaymentSigningKey, &w.PaymentVerificationKey,
		&w.StakeSigningKey, &w.StakeVerificationKey)
	if err == sql.ErrNoRows {
		return ada.Wallet{}, ada.NewErr(ada.NotFound, "wallet not found: %s", name)
	}
	if err != nil {
		return ada.Wallet{}, dbErr(err, "fetching wallet")
	}
	return w, nil
}

func (s SQLiteStore) StoreMintingPolicy(policy ada.MintingPolicy) error {
	_, err := s.db.Exec(
		"INSERT INTO minting_policy (policy_id, script, signing_key, verification_key) VALUES (?,?,?,?)",
		policy.PolicyID, policy.Script, policy.SigningKey, policy.VerificationKey)
	if err != nil {
		if isUniqueConstraint(err) {
			return ada.NewErr(ada.AlreadyExists, "policy already exists: %s", policy.PolicyID)
		}
		return dbErr(err, "storing minting policy")
	}
	return nil
}

func (s SQLiteStore) GetMintingPolicy(policyID string) (ada.MintingPolicy, error) {
	row := s.db.QueryRow(
		"SELECT policy_id, script, signing_key, verification_key FROM minting_policy WHERE policy_id = ?",
		policyID)
	p := ada.MintingPolicy{}
	err := row.Scan(&p.PolicyID, &p.Script, &p.SigningKey, &p.VerificationKey)
	if err == sql.ErrNoRows {
		return ada.MintingPolicy{}, ada.NewErr(ada.NotFound, "policy not found: %s", policyID)
	}
	if err != nil {
		return ada.MintingPolicy{}, dbErr(err, "fetching minting policy")
	}
	return p, nil
}

func (s SQLiteStore) StoreTxn(txn ada.TxnRecord) error {
	inputs, err := json.Marshal(txn.Inputs)
	if err != nil {
		return dbErr(err, "encoding inputs")
	}
	outputs, err := json.Marshal(txn.Outputs)
	if err != nil {
		return dbErr(err, "encoding outputs")
	}
	created := txn.Created
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.db.Exec(
		"INSERT INTO txn (tx_id, wallet, txn_type, inputs, outputs, metadata, fee, created) VALUES (?,?,?,?,?,?,?,?)",
		txn.TxID, txn.Wallet, txn.Type, string(inputs), string(outputs),
		string(txn.Metadata), txn.Fee, created.Unix())
	if err != nil {
		if isUniqueConstraint(err) {
			return ada.NewErr(ada.AlreadyExists, "transaction already recorded: %s", txn.TxID)
		}
		return dbErr(err, "storing transaction")
	}
	return nil
}

func (s SQLiteStore) ListTxns(wallet string, cursor int, limit int) (items []ada.TxnRecord, next_cursor int, err error) {
	// MUST order by rowid to support the cursor API.
	rows, err := s.db.Query(
		"SELECT rowid, tx_id, wallet, txn_type, inputs, outputs, metadata, fee, created FROM txn WHERE wallet = ? AND rowid >= ? ORDER BY rowid LIMIT ?",
		wallet, cursor, limit+1)
	if err != nil {
		return nil, 0, dbErr(err, "listing transactions")
	}
	defer rows.Close()
	items = []ada.TxnRecord{}
	for rows.Next() {
		var rowID int
		var inputs, outputs string
		var metadata sql.NullString
		var created int64
		t := ada.TxnRecord{}
		err = rows.Scan(&rowID, &t.TxID, &t.Wallet, &t.Type, &inputs, &outputs, &metadata, &t.Fee, &created)
		if err != nil {
			return nil, 0, dbErr(err, "scanning transaction row")
		}
		if len(items) == limit {
			// limit+1 rows fetched: another page exists.
			return items, rowID, nil
		}
		if err = json.Unmarshal([]byte(inputs), &t.Inputs); err != nil {
			return nil, 0, dbErr(err, "decoding inputs")
		}
		if err = json.Unmarshal([]byte(outputs), &t.Outputs); err != nil {
			return nil, 0, dbErr(err, "decoding outputs")
		}
		if metadata.Valid && metadata.String != "" {
			t.Metadata = json.RawMessage(metadata.String)
		}
		t.Created = time.Unix(created, 0)
		items = append(items, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, dbErr(err, "listing transactions")
	}
	return items, 0, nil
}

func isUniqueConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint")
}

func dbErr(err error, where string) error {
	return ada.NewErr(ada.UnknownError, "SQLiteStore: %s: %v", where, err)
}
