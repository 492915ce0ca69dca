// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package config binds the viper-backed flags/environment variables cmd
// needs to start the sync driver.
package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// minStartHeight mirrors chainsync.contextBlocks; a start height below it
// can never have enough history to build a difficulty context.
const minStartHeight = 28

const defaultStartHeight = 3_000_000

// Config holds everything cmd needs to wire up a chainsync.Driver.
type Config struct {
	RPCURL       string
	RPCUser      string
	RPCPassword  string
	StartHeight  uint32
	HeaderDBPath string
	LogLevel     string
	MetricsAddr  string
}

// Load reads RPC/store/log settings out of v, which cmd has already bound
// to flags, env vars (ZCASH_RPC_URL, START_HEIGHT, HEADER_DB_PATH,
// LOG_LEVEL), and defaults.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		RPCURL:       v.GetString("rpc-url"),
		RPCUser:      v.GetString("rpc-user"),
		RPCPassword:  v.GetString("rpc-password"),
		StartHeight:  uint32(v.GetUint64("start-height")),
		HeaderDBPath: v.GetString("header-db-path"),
		LogLevel:     v.GetString("log-level"),
		MetricsAddr:  v.GetString("metrics-bind-addr"),
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("config: ZCASH_RPC_URL is required")
	}
	u, err := url.Parse(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("config: parsing ZCASH_RPC_URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("config: ZCASH_RPC_URL must be http:// or https://, got %q", u.Scheme)
	}

	if cfg.StartHeight < minStartHeight {
		return nil, fmt.Errorf("config: START_HEIGHT must be at least %d, got %d", minStartHeight, cfg.StartHeight)
	}

	return cfg, nil
}

// BindFlags registers the flags Load reads, with defaults and env
// bindings, following the teacher's BindPFlag/SetDefault/AutomaticEnv
// pattern in cmd/root.go.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.String("rpc-url", "", "zcashd/zebrad JSON-RPC endpoint (http:// or https://)")
	fs.String("rpc-user", "", "RPC username")
	fs.String("rpc-password", "", "RPC password")
	fs.Uint64("start-height", defaultStartHeight, "block height to begin verifying from")
	fs.String("header-db-path", "./headers.db", "path to the sqlite3 header database")
	fs.String("log-level", "info", "logrus log level")
	fs.String("metrics-bind-addr", "127.0.0.1:9078", "address to serve Prometheus metrics on")

	v.BindPFlag("rpc-url", fs.Lookup("rpc-url"))
	v.BindPFlag("rpc-user", fs.Lookup("rpc-user"))
	v.BindPFlag("rpc-password", fs.Lookup("rpc-password"))
	v.BindPFlag("start-height", fs.Lookup("start-height"))
	v.BindPFlag("header-db-path", fs.Lookup("header-db-path"))
	v.BindPFlag("log-level", fs.Lookup("log-level"))
	v.BindPFlag("metrics-bind-addr", fs.Lookup("metrics-bind-addr"))

	v.SetEnvPrefix("zcash")
	v.BindEnv("rpc-url", "ZCASH_RPC_URL")
	v.BindEnv("start-height", "START_HEIGHT")
	v.BindEnv("header-db-path", "HEADER_DB_PATH")
	v.BindEnv("log-level", "LOG_LEVEL")
}
