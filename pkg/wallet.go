package ada

// Wallet is a single payment/stake address pair with its key material
// encrypted at rest. The store persists these as plain value objects;
// this engine never holds a decrypted key outside a transaction
// WorkDir.
type Wallet struct {
	Name           string
	PaymentAddress Address
	StakeAddress   Address

	PaymentSigningKey      []byte // encrypted
	PaymentVerificationKey []byte // encrypted
	StakeSigningKey        []byte // encrypted
	StakeVerificationKey   []byte // encrypted
}

// GenerateWallet creates payment and stake key pairs via the node tool,
// derives the addresses, and encrypts the generated key files under the
// given password. The plaintext keys only ever exist inside the scoped
// work dir.
func GenerateWallet(l1 L1, name string, password string) (Wallet, error) {
	work, err := NewWorkDir()
	if err != nil {
		return Wallet{}, err
	}
	defer work.Close()

	paymentSKey := work.File("signing.key")
	paymentVKey := work.File("verification.key")
	if err := l1.GenerateKeyPair(paymentSKey, paymentVKey); err != nil {
		return Wallet{}, err
	}
	stakeSKey := work.File("stake-signing.key")
	stakeVKey := work.File("stake-verification.key")
	if err := l1.GenerateStakeKeyPair(stakeSKey, stakeVKey); err != nil {
		return Wallet{}, err
	}

	paymentAddress, err := l1.BuildAddress(paymentVKey, stakeVKey)
	if err != nil {
		return Wallet{}, err
	}
	stakeAddress, err := l1.BuildStakeAddress(stakeVKey)
	if err != nil {
		return Wallet{}, err
	}

	w := Wallet{
		Name:           name,
		PaymentAddress: paymentAddress,
		StakeAddress:   stakeAddress,
	}
	for dst, path := range map[*[]byte]string{
		&w.PaymentSigningKey:      paymentSKey,
		&w.PaymentVerificationKey: paymentVKey,
		&w.StakeSigningKey:        stakeSKey,
		&w.StakeVerificationKey:   stakeVKey,
	} {
		blob, err := encryptKeyFile(path, password)
		if err != nil {
			return Wallet{}, err
		}
		*dst = blob
	}
	return w, nil
}

// UTXOs reads a fresh snapshot of the wallet's unspent outputs from
// the ledger. Snapshots are never cached: concurrent operations against
// the same wallet may still race to select the same UTXO, and the node
// is the final arbiter.
func (w Wallet) UTXOs(l1 L1) ([]UTXO, error) {
	return l1.QueryUTXOs(w.PaymentAddress)
}

// Balance aggregates the quantity of every asset across the wallet's
// current UTXO snapshot, returning the snapshot alongside.
func (w Wallet) Balance(l1 L1) (map[AssetID]Lovelace, []UTXO, error) {
	utxos, err := w.UTXOs(l1)
	if err != nil {
		return nil, nil, err
	}
	return SumTokens(utxos), utxos, nil
}

// GetPublicInfo gets those parts of the Wallet that are safe to expose
// to the outside world (i.e. NOT key material).
func (w Wallet) GetPublicInfo() WalletPublic {
	return WalletPublic{Name: w.Name, PaymentAddress: w.PaymentAddress, StakeAddress: w.StakeAddress}
}

type WalletPublic struct {
	Name           string  `json:"name"`
	PaymentAddress Address `json:"payment_address"`
	StakeAddress   Address `json:"stake_address"`
}
