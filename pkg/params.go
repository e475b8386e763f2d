package ada

import (
	"os"
	"path/filepath"
	"time"
)

// ParamCache caches ledger protocol parameters with a TTL, persisting
// the raw parameter JSON to a file because the node tool consumes it by
// file during fee calculation. Fee parameters drift over epochs, so
// FeeEstimator refreshes through this cache before every estimate.
//
// The cache is an explicit, injectable value (no process-wide
// singleton) so tests can substitute deterministic parameters. It is
// not internally synchronized: concurrent use requires external
// serialization, which per-wallet transaction construction already
// implies.
type ParamCache struct {
	l1   L1
	path string // where protocol.json is written
	ttl  time.Duration

	// fallback when the node reports minUTxOValue as null: the field
	// stopped being populated after the Alonzo upgrade but the Mary-era
	// dust formula still needs it.
	minUTxOFallback Lovelace

	params  ProtocolParams
	fetched time.Time
}

func NewParamCache(conf Config, l1 L1) *ParamCache {
	return &ParamCache{
		l1:              l1,
		path:            conf.ProtocolParamsPath(),
		ttl:             time.Duration(conf.Protocol.TTL) * time.Second,
		minUTxOFallback: conf.Protocol.MinUTxOValue,
	}
}

// FilePath is the parameter file handed to the node tool's fee formula.
// Only valid after a successful Refresh.
func (c *ParamCache) FilePath() string {
	return c.path
}

// Refresh returns the cached parameters, re-querying the node when the
// cache is stale, missing, or force is set. A zero TTL disables caching
// entirely (every call hits the node).
func (c *ParamCache) Refresh(force bool) (ProtocolParams, error) {
	if !force && c.ttl > 0 && !c.fetched.IsZero() && time.Since(c.fetched) <= c.ttl {
		return c.params, nil
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ProtocolParams{}, NewErr(UnknownError, "cannot create app data dir: %v", err)
		}
	}
	params, err := c.l1.QueryProtocolParameters(c.path)
	if err != nil {
		return ProtocolParams{}, err
	}
	if params.MinUTxOValue == 0 {
		params.MinUTxOValue = c.minUTxOFallback
	}
	c.params = params
	c.fetched = time.Now()
	return params, nil
}
