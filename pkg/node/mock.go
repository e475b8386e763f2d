package node

import (
	"encoding/json"
	"fmt"
	"os"

	ada "github.com/adafoundation/adawallet/pkg"
)

// interface guard ensures L1Mock implements ada.L1
var _ ada.L1 = &L1Mock{}

// NewL1Mock returns a mocked ada.L1 implementor with a plausible chain
// state. Tests mutate the public fields to shape scenarios, then assert
// on the recorded calls. Artifact files are written as placeholders so
// the transaction pipeline's file handling runs for real.
func NewL1Mock(config ada.Config) (*L1Mock, error) {
	return &L1Mock{
		Tip:    ada.Tip{Block: 100, Epoch: 2, Hash: "feed0000", Slot: 4200},
		Params: ada.ProtocolParams{MinUTxOValue: 1000000, TxFeeFixed: 155381, TxFeePerByte: 44},
		MinFee: 170000,
		UTXOs:  map[ada.Address][]ada.UTXO{},
	}, nil
}

type L1Mock struct {
	Tip    ada.Tip
	Params ada.ProtocolParams
	MinFee ada.Lovelace
	UTXOs  map[ada.Address][]ada.UTXO

	// set to force failures at a given pipeline stage
	BuildErr  error
	SubmitErr error

	// call recording
	BuildCount  int
	SignCount   int
	SubmitCount int
	LastBuild   ada.BuildTxRequest
	LastSign    ada.SignTxRequest
	keySeq      int
}

func (l *L1Mock) QueryTip() (ada.Tip, error) {
	return l.Tip, nil
}

func (l *L1Mock) QueryProtocolParameters(outFile string) (ada.ProtocolParams, error) {
	raw, err := json.Marshal(l.Params)
	if err != nil {
		return ada.ProtocolParams{}, err
	}
	if err := os.WriteFile(outFile, raw, 0644); err != nil {
		return ada.ProtocolParams{}, err
	}
	return l.Params, nil
}

func (l *L1Mock) QueryUTXOs(address ada.Address) ([]ada.UTXO, error) {
	return l.UTXOs[address], nil
}

func (l *L1Mock) BuildTransaction(req ada.BuildTxRequest) error {
	if l.BuildErr != nil {
		return l.BuildErr
	}
	l.BuildCount++
	l.LastBuild = req
	return os.WriteFile(req.OutFile, []byte("mockTxBody"), 0644)
}

func (l *L1Mock) CalculateMinFee(req ada.MinFeeRequest) (ada.Lovelace, error) {
	return l.MinFee, nil
}

func (l *L1Mock) SignTransaction(req ada.SignTxRequest) error {
	l.SignCount++
	l.LastSign = req
	return os.WriteFile(req.OutFile, []byte("mockSignedTx"), 0644)
}

func (l *L1Mock) TransactionID(txFile string) (string, error) {
	return "feedbeef000000000000000000000000000000000000000000000000000000ff", nil
}

func (l *L1Mock) SubmitTransaction(txFile string) error {
	if l.SubmitErr != nil {
		return l.SubmitErr
	}
	l.SubmitCount++
	return nil
}

func (l *L1Mock) GenerateKeyPair(signingKeyFile, verificationKeyFile string) error {
	l.keySeq++
	if err := os.WriteFile(signingKeyFile, []byte(fmt.Sprintf("mockSKey%d", l.keySeq)), 0600); err != nil {
		return err
	}
	return os.WriteFile(verificationKeyFile, []byte(fmt.Sprintf("mockVKey%d", l.keySeq)), 0644)
}

func (l *L1Mock) GenerateStakeKeyPair(signingKeyFile, verificationKeyFile string) error {
	return l.GenerateKeyPair(signingKeyFile, verificationKeyFile)
}

func (l *L1Mock) BuildAddress(paymentVKeyFile, stakeVKeyFile string) (ada.Address, error) {
	return "addr_test1mockpayment", nil
}

func (l *L1Mock) BuildStakeAddress(stakeVKeyFile string) (ada.Address, error) {
	return "stake_test1mock", nil
}

func (l *L1Mock) KeyHash(verificationKeyFile string) (string, error) {
	return "mockkeyhash00000000000000000000000000000000000000000000", nil
}

func (l *L1Mock) PolicyID(scriptFile string) (string, error) {
	return "beef7797a02f2c68e87a01e30fe09fbba7f0650b0a5dbbfcc2ba9f59", nil
}
