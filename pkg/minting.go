package ada

import (
	"encoding/json"
	"os"
)

// MintingPolicy authorizes minting of a new asset class. The policy ID
// (hash of the serialized script) plus an asset name forms a globally
// unique asset identifier. Immutable after creation; the signing key is
// stored encrypted and only decrypted inside a transaction WorkDir.
type MintingPolicy struct {
	PolicyID        string
	Script          []byte // serialized policy script (JSON)
	SigningKey      []byte // encrypted
	VerificationKey []byte // encrypted
}

// PolicyWindow optionally time-boxes a policy. Zero slots mean
// unbounded. The common NFT pattern mints exactly one unit of a
// uniquely-named asset and lets the policy expire at ValidBeforeSlot,
// so no more can ever be minted under that policy ID.
type PolicyWindow struct {
	ValidAfterSlot  int64
	ValidBeforeSlot int64
}

type scriptClause struct {
	Type    string         `json:"type"`
	KeyHash string         `json:"keyHash,omitempty"`
	Slot    int64          `json:"slot,omitempty"`
	Scripts []scriptClause `json:"scripts,omitempty"`
}

func policyScript(keyHash string, window PolicyWindow) ([]byte, error) {
	sig := scriptClause{Type: "sig", KeyHash: keyHash}
	if window.ValidAfterSlot == 0 && window.ValidBeforeSlot == 0 {
		return json.Marshal(sig)
	}
	all := scriptClause{Type: "all", Scripts: []scriptClause{sig}}
	if window.ValidBeforeSlot != 0 {
		all.Scripts = append(all.Scripts, scriptClause{Type: "before", Slot: window.ValidBeforeSlot})
	}
	if window.ValidAfterSlot != 0 {
		all.Scripts = append(all.Scripts, scriptClause{Type: "after", Slot: window.ValidAfterSlot})
	}
	return json.Marshal(all)
}

// CreateMintingPolicy builds a fresh single-use (or time-boxed) policy:
// a new key pair, a "signature required" script with optional slot
// bounds, and the policy ID computed by the node tool. Nothing is
// persisted here - if any step fails, no partial policy escapes.
func CreateMintingPolicy(l1 L1, password string, window PolicyWindow) (MintingPolicy, error) {
	work, err := NewWorkDir()
	if err != nil {
		return MintingPolicy{}, err
	}
	defer work.Close()

	skeyFile := work.File("policy.skey")
	vkeyFile := work.File("policy.vkey")
	if err := l1.GenerateKeyPair(skeyFile, vkeyFile); err != nil {
		return MintingPolicy{}, err
	}
	keyHash, err := l1.KeyHash(vkeyFile)
	if err != nil {
		return MintingPolicy{}, err
	}

	script, err := policyScript(keyHash, window)
	if err != nil {
		return MintingPolicy{}, NewErr(UnknownError, "cannot serialize policy script: %v", err)
	}
	scriptFile, err := work.WriteFile("policy.script.json", script)
	if err != nil {
		return MintingPolicy{}, err
	}
	policyID, err := l1.PolicyID(scriptFile)
	if err != nil {
		return MintingPolicy{}, err
	}

	signingKey, err := encryptKeyFile(skeyFile, password)
	if err != nil {
		return MintingPolicy{}, err
	}
	verificationKey, err := encryptKeyFile(vkeyFile, password)
	if err != nil {
		return MintingPolicy{}, err
	}

	return MintingPolicy{
		PolicyID:        policyID,
		Script:          script,
		SigningKey:      signingKey,
		VerificationKey: verificationKey,
	}, nil
}

func encryptKeyFile(path string, password string) ([]byte, error) {
	plain, err := os.ReadFile(path)
	if err != nil {
		return nil, NewErr(UnknownError, "cannot read generated key %s: %v", path, err)
	}
	return EncryptKey(plain, password)
}
