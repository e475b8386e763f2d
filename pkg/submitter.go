package ada

// Submitter drives a transaction intent through the full pipeline:
// draft -> fee -> finalize -> sign -> submit. It is a strict sequential
// state machine; every node call is a blocking suspension point and any
// failure is terminal for the operation (no automatic retries). The
// WorkDir, holding the body files and the decrypted signing keys, is
// closed on every exit path.
type Submitter struct {
	L1     L1
	Params *ParamCache
	// slots added to the chain tip when the intent has no explicit expiry
	DefaultTxTTL int64
}

func NewSubmitter(conf Config, l1 L1, params *ParamCache) Submitter {
	return Submitter{L1: l1, Params: params, DefaultTxTTL: conf.Adawallet.DefaultTxTTL}
}

// Submit runs the pipeline for the given intent, spending from the
// wallet. ttlSlot 0 lets the finalizer compute the expiry from the
// chain tip; a minting policy with its own time bound should pass that
// bound so the transaction cannot outlive the policy.
//
// spendPassword decrypts the wallet's payment signing key;
// mintPassword decrypts the policy signing key when the intent mints.
// Decrypted material lives only inside the WorkDir.
func (s Submitter) Submit(intent TxIntent, wallet Wallet, spendPassword, mintPassword string, ttlSlot int64) (SubmittedTxn, error) {
	work, err := NewWorkDir()
	if err != nil {
		return SubmittedTxn{}, err
	}
	defer work.Close()

	draft, err := intent.Draft(s.L1, work)
	if err != nil {
		return SubmittedTxn{}, err
	}
	priced, err := draft.EstimateFee(s.L1, s.Params)
	if err != nil {
		return SubmittedTxn{}, err
	}
	final, err := priced.Finalize(s.L1, ttlSlot, s.DefaultTxTTL)
	if err != nil {
		return SubmittedTxn{}, err
	}

	keyFiles, err := s.decryptSigningKeys(work, intent, wallet, spendPassword, mintPassword)
	if err != nil {
		return SubmittedTxn{}, err
	}
	signed, err := final.Sign(s.L1, keyFiles)
	if err != nil {
		return SubmittedTxn{}, err
	}
	return signed.Submit(s.L1)
}

func (s Submitter) decryptSigningKeys(work *WorkDir, intent TxIntent, wallet Wallet, spendPassword, mintPassword string) ([]string, error) {
	spendKey, err := DecryptKey(wallet.PaymentSigningKey, spendPassword)
	if err != nil {
		return nil, err
	}
	spendKeyFile, err := work.WriteFile("signing.key", spendKey)
	if err != nil {
		return nil, err
	}
	keyFiles := []string{spendKeyFile}

	if intent.Policy != nil {
		policyKey, err := DecryptKey(intent.Policy.SigningKey, mintPassword)
		if err != nil {
			return nil, err
		}
		policyKeyFile, err := work.WriteFile("policy-signing.key", policyKey)
		if err != nil {
			return nil, err
		}
		keyFiles = append(keyFiles, policyKeyFile)
	}
	return keyFiles, nil
}
