package ada

import (
	"path/filepath"

	"github.com/jinzhu/configor"
)

type Config struct {
	Adawallet struct {
		// which Cardano network to submit transactions to
		Network string `default:"mainnet"`
		// magic number passed to the node tool when Network is "testnet"
		TestnetMagic int `default:"1097911063"`
		// where protocol.json and other app data live
		DataDir string `default:"/var/lib/adawallet"`
		// slots added to the current tip to form a transaction's expiry
		DefaultTxTTL int64 `default:"1000"`
	}

	// info for invoking the cardano-cli node tool
	Node struct {
		CLIPath    string `default:"cardano-cli"`
		SocketPath string `default:"/var/run/cardano/node.socket"`
	}

	// ledger-version-specific constants for the min-UTxO ("dust") formula.
	// These mirror the values documented for the Mary era; validate them
	// against the target ledger before changing networks.
	Protocol struct {
		// seconds before cached protocol parameters are considered stale
		TTL int64 `default:"3600"`
		// fallback when the node reports minUTxOValue as null (post-Alonzo)
		MinUTxOValue            int64 `default:"1000000"`
		CoinSize                int64 `default:"0"`
		UTXOEntrySizeWithoutVal int64 `default:"27"`
	}

	Store struct {
		DBFile string `default:"adawallet.db"`
	}

	WebAPI struct {
		AdminBind string `default:"localhost"`
		AdminPort string `default:"8081"`
		PubBind   string `default:"localhost"`
		PubPort   string `default:"8080"`
	}

	// outbound event destinations (rotating log files)
	Loggers map[string]LoggersConfig
}

type LoggersConfig struct {
	Path  string
	Types []string
}

func (c Config) ProtocolParamsPath() string {
	return filepath.Join(c.Adawallet.DataDir, "protocol.json")
}

func LoadConfig(confPath string) Config {
	c := Config{}
	configor.Load(&c, confPath)
	return c
}

// TestConfig returns a config suitable for unit tests: testnet,
// temp-dir friendly paths and no event loggers.
func TestConfig() Config {
	c := Config{}
	configor.Load(&c) // defaults only
	c.Adawallet.Network = "testnet"
	c.Adawallet.DataDir = ""
	c.Store.DBFile = ":memory:"
	return c
}
