package ada

// Composite key for the 'used' set.
type utxoKey struct {
	TxHash  string // transaction hash
	TxIndex int    // output index
}

// UTXOSet tracks (txHash, txIndex) pairs already taken by a selection
// or transaction, so no input is ever duplicated.
type UTXOSet struct {
	used map[utxoKey]bool
}

func NewUTXOSet() UTXOSet {
	return UTXOSet{
		used: map[utxoKey]bool{},
	}
}

func (u *UTXOSet) Add(txHash string, txIndex int) {
	u.used[utxoKey{TxHash: txHash, TxIndex: txIndex}] = true
}

func (u *UTXOSet) Includes(txHash string, txIndex int) bool {
	return u.used[utxoKey{TxHash: txHash, TxIndex: txIndex}]
}
