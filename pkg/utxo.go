package ada

import (
	"fmt"
	"sort"
)

// UTXO is an Unspent Transaction Output at one of our wallet addresses.
// Immutable once observed: the ledger is the source of truth and this
// engine only ever reads snapshots (no reservation, no double-spend
// prevention - the node rejects a resubmitted input).
type UTXO struct {
	TxHash  string               // transaction that produced this output
	TxIndex int                  // output index within that transaction
	Tokens  map[AssetID]Lovelace // asset quantities; always holds LovelaceUnit
}

// TxIn renders the input reference the node tool expects.
func (u UTXO) TxIn() string {
	return fmt.Sprintf("%s#%d", u.TxHash, u.TxIndex)
}

func (u UTXO) Quantity(asset AssetID) Lovelace {
	return u.Tokens[asset]
}

// HoldsOnly reports whether the UTXO carries the given asset and
// nothing else.
func (u UTXO) HoldsOnly(asset AssetID) bool {
	_, ok := u.Tokens[asset]
	return ok && len(u.Tokens) == 1
}

type SortOrder int

const (
	// Ascending retires small UTXOs first, keeping the UTXO set tidy.
	Ascending SortOrder = iota
	// Descending is used when one large input is assumed sufficient,
	// e.g. the biggest pile of ADA pays for a token transaction.
	Descending
)

// FilterUTXOs returns the UTXOs holding the requested asset.
// For the lovelace unit the UTXO must hold *only* lovelace: a UTXO
// carrying any native token is already forced into the token-selection
// path and its ADA travels with it.
func FilterUTXOs(utxos []UTXO, asset AssetID) []UTXO {
	var filtered []UTXO
	for _, u := range utxos {
		if asset == LovelaceUnit {
			if u.HoldsOnly(LovelaceUnit) {
				filtered = append(filtered, u)
			}
		} else if _, ok := u.Tokens[asset]; ok {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

// SortUTXOs orders a snapshot by the held quantity of the given asset.
// The input slice is not modified.
func SortUTXOs(utxos []UTXO, asset AssetID, order SortOrder) []UTXO {
	sorted := make([]UTXO, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool {
		if order == Descending {
			return sorted[i].Quantity(asset) > sorted[j].Quantity(asset)
		}
		return sorted[i].Quantity(asset) < sorted[j].Quantity(asset)
	})
	return sorted
}

// SelectUTXOs greedily accumulates UTXOs holding the requested asset,
// in sorted order, stopping as soon as the running total reaches the
// target. First-fit-by-order is the accepted policy; no subset-sum
// optimisation is attempted. The accumulated UTXOs are returned even
// when they fall short of the target - sufficiency is the caller's
// check (SumUTXOs), so the caller owns the insufficient-funds error.
func SelectUTXOs(utxos []UTXO, asset AssetID, target Lovelace, order SortOrder) []UTXO {
	var selected []UTXO
	seen := NewUTXOSet()
	var total Lovelace
	for _, u := range SortUTXOs(FilterUTXOs(utxos, asset), asset, order) {
		if seen.Includes(u.TxHash, u.TxIndex) {
			continue
		}
		seen.Add(u.TxHash, u.TxIndex)
		selected = append(selected, u)
		total += u.Quantity(asset)
		if total >= target {
			break
		}
	}
	return selected
}

// SumUTXOs totals the quantity of one asset across a set of UTXOs.
func SumUTXOs(utxos []UTXO, asset AssetID) Lovelace {
	var total Lovelace
	for _, u := range utxos {
		total += u.Quantity(asset)
	}
	return total
}

// SumTokens aggregates every asset across a set of UTXOs, i.e. the
// spendable balance of a wallet snapshot.
func SumTokens(utxos []UTXO) map[AssetID]Lovelace {
	all := map[AssetID]Lovelace{}
	for _, u := range utxos {
		for asset, qty := range u.Tokens {
			all[asset] += qty
		}
	}
	return all
}
