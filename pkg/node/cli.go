package node

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	ada "github.com/adafoundation/adawallet/pkg"
)

// interface guard ensures CardanoCLI implements ada.L1
var _ ada.L1 = CardanoCLI{}

// CardanoCLI talks to a cardano-node through the cardano-cli binary.
// Every call shells out; the node socket is passed via the environment
// the way the tool expects. Artifacts (body files, key files, parameter
// JSON) are exchanged on disk, never parsed here beyond the few
// text/JSON responses the engine needs.
type CardanoCLI struct {
	binPath    string
	socketPath string
	// e.g. ["--mainnet"] or ["--testnet-magic", "1097911063"]
	networkArgs []string
}

func NewCardanoCLI(config ada.Config) (CardanoCLI, error) {
	networkArgs := []string{"--mainnet"}
	if config.Adawallet.Network != "mainnet" {
		networkArgs = []string{"--testnet-magic", strconv.Itoa(config.Adawallet.TestnetMagic)}
	}
	return CardanoCLI{
		binPath:     config.Node.CLIPath,
		socketPath:  config.Node.SocketPath,
		networkArgs: networkArgs,
	}, nil
}

// run invokes cardano-cli and returns its stdout. A non-zero exit is a
// NodeError carrying whatever the tool printed to stderr.
func (c CardanoCLI) run(args ...string) (string, error) {
	cmd := exec.Command(c.binPath, args...)
	cmd.Env = append(os.Environ(), "CARDANO_NODE_SOCKET_PATH="+c.socketPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", ada.NewErr(ada.NodeError, "cardano-cli %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

func (c CardanoCLI) runNet(args ...string) (string, error) {
	return c.run(append(args, c.networkArgs...)...)
}

func (c CardanoCLI) QueryTip() (ada.Tip, error) {
	out, err := c.runNet("query", "tip")
	if err != nil {
		return ada.Tip{}, err
	}
	tip := ada.Tip{}
	if err := json.Unmarshal([]byte(out), &tip); err != nil {
		return ada.Tip{}, ada.NewErr(ada.MalformedResponse, "query tip: %v", err)
	}
	return tip, nil
}

func (c CardanoCLI) QueryProtocolParameters(outFile string) (ada.ProtocolParams, error) {
	_, err := c.runNet("query", "protocol-parameters", "--out-file", outFile)
	if err != nil {
		return ada.ProtocolParams{}, err
	}
	raw, err := os.ReadFile(outFile)
	if err != nil {
		return ada.ProtocolParams{}, ada.NewErr(ada.NodeError, "reading %s: %v", outFile, err)
	}
	params := ada.ProtocolParams{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return ada.ProtocolParams{}, ada.NewErr(ada.MalformedResponse, "protocol parameters: %v", err)
	}
	return params, nil
}

// utxoRowRE matches a data row of the `query utxo` table:
// txhash, txix, then the amount expression.
var utxoRowRE = regexp.MustCompile(`^(\w+)\s+(\d+)\s+(.*)$`)

func (c CardanoCLI) QueryUTXOs(address ada.Address) ([]ada.UTXO, error) {
	out, err := c.runNet("query", "utxo", "--address", string(address))
	if err != nil {
		return nil, err
	}
	return parseUTXOTable(out)
}

// parseUTXOTable reads the two-line-header ASCII table cardano-cli
// prints for `query utxo`. The amount column is a '+'-separated list of
// "quantity asset" terms; trailing non-quantity terms (datum markers)
// are ignored.
func parseUTXOTable(out string) ([]ada.UTXO, error) {
	utxos := []ada.UTXO{}
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		return nil, ada.NewErr(ada.MalformedResponse, "query utxo: missing table header")
	}
	for _, line := range lines[2:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := utxoRowRE.FindStringSubmatch(line)
		if m == nil {
			return nil, ada.NewErr(ada.MalformedResponse, "query utxo: unparseable row: %q", line)
		}
		txIndex, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, ada.NewErr(ada.MalformedResponse, "query utxo: bad index in row: %q", line)
		}
		utxo := ada.UTXO{TxHash: m[1], TxIndex: txIndex, Tokens: map[ada.AssetID]ada.Lovelace{}}
		for _, term := range strings.Split(m[3], " + ") {
			qty, asset, found := strings.Cut(strings.TrimSpace(term), " ")
			if !found {
				continue
			}
			quantity, err := strconv.ParseInt(qty, 10, 64)
			if err != nil {
				// e.g. "TxOutDatumNone"
				continue
			}
			utxo.Tokens[ada.AssetID(asset)] += quantity
		}
		utxos = append(utxos, utxo)
	}
	return utxos, nil
}

func (c CardanoCLI) BuildTransaction(req ada.BuildTxRequest) error {
	args := []string{"transaction", "build-raw",
		"--fee", strconv.FormatInt(req.Fee, 10),
		"--invalid-hereafter", strconv.FormatInt(req.TTL, 10),
	}
	for _, in := range req.Inputs {
		args = append(args, "--tx-in", in)
	}
	for _, out := range req.Outputs {
		args = append(args, "--tx-out", out)
	}
	if req.MetadataFile != "" {
		args = append(args, "--metadata-json-file", req.MetadataFile)
	}
	if req.Mint != "" {
		args = append(args, "--mint", req.Mint, "--minting-script-file", req.MintScriptFile)
	}
	args = append(args, "--out-file", req.OutFile)
	_, err := c.run(args...)
	return err
}

// minFeeRE matches the calculate-min-fee response, e.g. "172497 Lovelace"
var minFeeRE = regexp.MustCompile(`^(\d+)\s+Lovelace`)

func (c CardanoCLI) CalculateMinFee(req ada.MinFeeRequest) (ada.Lovelace, error) {
	out, err := c.runNet("transaction", "calculate-min-fee",
		"--tx-body-file", req.TxBodyFile,
		"--tx-in-count", strconv.Itoa(req.InputCount),
		"--tx-out-count", strconv.Itoa(req.OutputCount),
		"--witness-count", strconv.Itoa(req.WitnessCount),
		"--protocol-params-file", req.ProtocolsFile,
	)
	if err != nil {
		return 0, err
	}
	m := minFeeRE.FindStringSubmatch(strings.TrimSpace(out))
	if m == nil {
		return 0, ada.NewErr(ada.MalformedResponse, "calculate-min-fee: unexpected response: %q", out)
	}
	fee, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, ada.NewErr(ada.MalformedResponse, "calculate-min-fee: %v", err)
	}
	return fee, nil
}

func (c CardanoCLI) SignTransaction(req ada.SignTxRequest) error {
	args := []string{"transaction", "sign", "--tx-body-file", req.TxBodyFile}
	for _, keyFile := range req.SigningKeyFiles {
		args = append(args, "--signing-key-file", keyFile)
	}
	if req.ScriptFile != "" {
		args = append(args, "--script-file", req.ScriptFile)
	}
	args = append(args, c.networkArgs...)
	args = append(args, "--out-file", req.OutFile)
	_, err := c.run(args...)
	return err
}

func (c CardanoCLI) TransactionID(txFile string) (string, error) {
	out, err := c.run("transaction", "txid", "--tx-file", txFile)
	if err != nil {
		return "", err
	}
	txID := strings.TrimSpace(out)
	if txID == "" {
		return "", ada.NewErr(ada.MalformedResponse, "transaction txid: empty response")
	}
	return txID, nil
}

func (c CardanoCLI) SubmitTransaction(txFile string) error {
	_, err := c.runNet("transaction", "submit", "--tx-file", txFile)
	return err
}

func (c CardanoCLI) GenerateKeyPair(signingKeyFile, verificationKeyFile string) error {
	_, err := c.run("address", "key-gen",
		"--signing-key-file", signingKeyFile,
		"--verification-key-file", verificationKeyFile,
	)
	return err
}

func (c CardanoCLI) GenerateStakeKeyPair(signingKeyFile, verificationKeyFile string) error {
	_, err := c.run("stake-address", "key-gen",
		"--signing-key-file", signingKeyFile,
		"--verification-key-file", verificationKeyFile,
	)
	return err
}

func (c CardanoCLI) BuildAddress(paymentVKeyFile, stakeVKeyFile string) (ada.Address, error) {
	out, err := c.runNet("address", "build",
		"--payment-verification-key-file", paymentVKeyFile,
		"--stake-verification-key-file", stakeVKeyFile,
	)
	if err != nil {
		return "", err
	}
	return ada.Address(strings.TrimSpace(out)), nil
}

func (c CardanoCLI) BuildStakeAddress(stakeVKeyFile string) (ada.Address, error) {
	out, err := c.runNet("stake-address", "build",
		"--stake-verification-key-file", stakeVKeyFile,
	)
	if err != nil {
		return "", err
	}
	return ada.Address(strings.TrimSpace(out)), nil
}

func (c CardanoCLI) KeyHash(verificationKeyFile string) (string, error) {
	out, err := c.run("address", "key-hash",
		"--payment-verification-key-file", verificationKeyFile,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c CardanoCLI) PolicyID(scriptFile string) (string, error) {
	out, err := c.run("transaction", "policyid", "--script-file", scriptFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
