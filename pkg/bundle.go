package ada

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TokenBundle is the full-string representation of a set of
// (assetID, quantity) pairs, as attached to a transaction output or a
// mint, e.g. `"5 fe12..34.Token1" "1 fe12..34.Token2"`.
type TokenBundle string

// Entries are space-separated; entries whose asset name contains the
// quantity separator are double-quoted.
var bundleEntryRE = regexp.MustCompile(`(?:".*?"|\S)+`)

// Asset names are cleaned to alphanumerics before use; the ledger
// rejects most punctuation and whitespace in asset names anyway.
var assetNameCleanRE = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func CleanAssetName(name string) string {
	return assetNameCleanRE.ReplaceAllString(name, "")
}

// MakeBundle renders one (quantity, assetID) pair in bundle form.
func MakeBundle(quantity Lovelace, asset AssetID) TokenBundle {
	return TokenBundle(fmt.Sprintf("\"%d %s\"", quantity, asset))
}

// Join combines bundles into one, e.g. for multi-asset outputs.
func (b TokenBundle) Join(other TokenBundle) TokenBundle {
	if b == "" {
		return other
	}
	if other == "" {
		return b
	}
	return b + " " + other
}

// BundleInfo is the decomposition of a token bundle used by the
// min-UTxO sizing formula.
type BundleInfo struct {
	AssetIDs           []AssetID            // every entry, in order (not distinct)
	DistinctPolicyIDs  map[string]bool      // policy hash component of each asset
	DistinctAssetNames map[string]bool      // name component of each asset
	Tokens             map[AssetID]Lovelace // summed quantity per asset
}

// ParseBundle splits a token bundle into its (assetID, quantity) pairs.
// A policy-only ID with no asset name is legal.
func ParseBundle(bundle TokenBundle) (BundleInfo, error) {
	info := BundleInfo{
		DistinctPolicyIDs:  map[string]bool{},
		DistinctAssetNames: map[string]bool{},
		Tokens:             map[AssetID]Lovelace{},
	}
	for _, entry := range bundleEntryRE.FindAllString(string(bundle), -1) {
		entry = strings.Trim(entry, `"`)
		quantity, assetID, found := cutBundleEntry(entry)
		if !found {
			return BundleInfo{}, NewErr(BadRequest, "malformed token bundle entry: %q", entry)
		}
		count, err := strconv.ParseInt(quantity, 10, 64)
		if err != nil {
			return BundleInfo{}, NewErr(BadRequest, "malformed token quantity: %q", entry)
		}
		asset := AssetID(assetID)
		info.AssetIDs = append(info.AssetIDs, asset)
		info.Tokens[asset] += count

		policyID, assetName, hasName := strings.Cut(assetID, ".")
		info.DistinctPolicyIDs[policyID] = true
		if hasName {
			info.DistinctAssetNames[assetName] = true
		}
	}
	return info, nil
}

func cutBundleEntry(entry string) (quantity, assetID string, found bool) {
	return strings.Cut(entry, " ")
}

// DustParams are the ledger-version-specific constants behind the
// min-UTxO formula. They are pinned configuration, not derived values;
// the historical Mary-era defaults are 27 and 0.
type DustParams struct {
	MinUTxOValue            Lovelace
	UTXOEntrySizeWithoutVal int64
	CoinSize                int64
}

func (c Config) DustParams() DustParams {
	return DustParams{
		MinUTxOValue:            c.Protocol.MinUTxOValue,
		UTXOEntrySizeWithoutVal: c.Protocol.UTXOEntrySizeWithoutVal,
		CoinSize:                c.Protocol.CoinSize,
	}
}

// BundleSize computes the size of a token bundle in 8-byte words:
//
//	6 + roundupBytesToWords(numAssets*12 + sumAssetNameLengths + numPids*pidSize)
//
// where numAssets counts every entry, the name lengths are summed over
// *distinct* names, and each policy ID contributes its byte length
// (hex string, two digits per byte). Pure integer arithmetic; the
// result must match the ledger's own computation bit-for-bit.
// See: https://cardano-ledger.readthedocs.io/en/latest/explanations/min-utxo.html
func BundleSize(bundle TokenBundle) (int64, error) {
	info, err := ParseBundle(bundle)
	if err != nil {
		return 0, err
	}
	byteCount := int64(len(info.AssetIDs)) * 12
	for name := range info.DistinctAssetNames {
		byteCount += int64(len(name))
	}
	for policyID := range info.DistinctPolicyIDs {
		// one byte holds two hex digits; round odd-length IDs up
		byteCount += int64(len(policyID)+1) / 2
	}
	return 6 + roundupBytesToWords(byteCount), nil
}

// MinTokenDust returns the minimum lovelace that must accompany a UTXO
// carrying the given token bundle.
func MinTokenDust(bundle TokenBundle, params DustParams) (Lovelace, error) {
	size, err := BundleSize(bundle)
	if err != nil {
		return 0, err
	}
	adaOnlyUTXOSize := params.UTXOEntrySizeWithoutVal + params.CoinSize
	scaled := quot(params.MinUTxOValue, adaOnlyUTXOSize) * (params.UTXOEntrySizeWithoutVal + size)
	if scaled > params.MinUTxOValue {
		return scaled, nil
	}
	return params.MinUTxOValue, nil
}

func quot(a, b int64) int64 {
	return a / b
}

func roundupBytesToWords(b int64) int64 {
	return quot(b+7, 8)
}
