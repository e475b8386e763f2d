package ada

import "testing"

func lovelaceUTXO(hash string, index int, amount Lovelace) UTXO {
	return UTXO{TxHash: hash, TxIndex: index, Tokens: map[AssetID]Lovelace{LovelaceUnit: amount}}
}

func tokenUTXO(hash string, index int, amount Lovelace, asset AssetID, qty Lovelace) UTXO {
	return UTXO{TxHash: hash, TxIndex: index, Tokens: map[AssetID]Lovelace{
		LovelaceUnit: amount,
		asset:        qty,
	}}
}

const berry AssetID = testPolicyID + ".Berry"

func TestFilterUTXOs(t *testing.T) {
	utxos := []UTXO{
		lovelaceUTXO("aa", 0, 5000000),
		tokenUTXO("bb", 1, 2000000, berry, 10),
		lovelaceUTXO("cc", 0, 1000000),
	}

	// lovelace filter excludes UTXOs carrying tokens: their ADA travels
	// with the tokens, it is not freely spendable
	pure := FilterUTXOs(utxos, LovelaceUnit)
	if len(pure) != 2 {
		t.Fatalf("expected 2 pure-ADA UTXOs, got %d", len(pure))
	}
	for _, u := range pure {
		if !u.HoldsOnly(LovelaceUnit) {
			t.Fatalf("impure UTXO in lovelace filter: %s", u.TxIn())
		}
	}

	tokens := FilterUTXOs(utxos, berry)
	if len(tokens) != 1 || tokens[0].TxHash != "bb" {
		t.Fatalf("wrong token filter result: %v", tokens)
	}
}

func TestSortUTXOs(t *testing.T) {
	utxos := []UTXO{
		lovelaceUTXO("aa", 0, 5000000),
		lovelaceUTXO("bb", 0, 1000000),
		lovelaceUTXO("cc", 0, 3000000),
	}
	asc := SortUTXOs(utxos, LovelaceUnit, Ascending)
	if asc[0].TxHash != "bb" || asc[2].TxHash != "aa" {
		t.Fatalf("wrong ascending order: %v", asc)
	}
	desc := SortUTXOs(utxos, LovelaceUnit, Descending)
	if desc[0].TxHash != "aa" || desc[2].TxHash != "bb" {
		t.Fatalf("wrong descending order: %v", desc)
	}
	// input must not be reordered
	if utxos[0].TxHash != "aa" {
		t.Fatalf("SortUTXOs modified its input")
	}
}

func TestSelectUTXOs(t *testing.T) {
	utxos := []UTXO{
		lovelaceUTXO("big", 0, 50000000),
		lovelaceUTXO("small", 0, 1000000),
		lovelaceUTXO("mid", 0, 3000000),
	}

	// ascending selection exhausts small UTXOs before touching big ones
	selected := SelectUTXOs(utxos, LovelaceUnit, 3500000, Ascending)
	if len(selected) != 2 || selected[0].TxHash != "small" || selected[1].TxHash != "mid" {
		t.Fatalf("wrong ascending selection: %v", selected)
	}
	if SumUTXOs(selected, LovelaceUnit) != 4000000 {
		t.Fatalf("wrong selected total: %d", SumUTXOs(selected, LovelaceUnit))
	}

	// selection stops at the first UTXO that covers the target
	selected = SelectUTXOs(utxos, LovelaceUnit, 10000000, Descending)
	if len(selected) != 1 || selected[0].TxHash != "big" {
		t.Fatalf("wrong descending selection: %v", selected)
	}

	// a short selection is returned as-is: sufficiency is the caller's check
	selected = SelectUTXOs(utxos, LovelaceUnit, 100000000, Ascending)
	if len(selected) != 3 {
		t.Fatalf("short selection should return everything eligible: %v", selected)
	}
	if SumUTXOs(selected, LovelaceUnit) >= 100000000 {
		t.Fatalf("selection cannot exceed the available funds")
	}
}

func TestSumTokens(t *testing.T) {
	utxos := []UTXO{
		lovelaceUTXO("aa", 0, 5000000),
		tokenUTXO("bb", 0, 2000000, berry, 10),
		tokenUTXO("bb", 1, 1500000, berry, 5),
	}
	all := SumTokens(utxos)
	if all[LovelaceUnit] != 8500000 {
		t.Fatalf("wrong lovelace total: %d", all[LovelaceUnit])
	}
	if all[berry] != 15 {
		t.Fatalf("wrong token total: %d", all[berry])
	}
}

func TestUTXOSet(t *testing.T) {
	set := NewUTXOSet()
	if set.Includes("aa", 0) {
		t.Fatalf("empty set includes aa#0")
	}
	set.Add("aa", 0)
	if !set.Includes("aa", 0) {
		t.Fatalf("set should include aa#0")
	}
	if set.Includes("aa", 1) {
		t.Fatalf("index must be part of the key")
	}
}
