// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newTestViper() (*viper.Viper, *pflag.FlagSet) {
	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(v, fs)
	return v, fs
}

func TestLoadRequiresRPCURL(t *testing.T) {
	v, _ := newTestViper()
	if _, err := Load(v); err == nil {
		t.Fatal("expected an error when ZCASH_RPC_URL is unset")
	}
}

func TestLoadRejectsNonHTTPScheme(t *testing.T) {
	v, _ := newTestViper()
	v.Set("rpc-url", "ftp://127.0.0.1:8232")
	v.Set("start-height", uint64(28))
	if _, err := Load(v); err == nil {
		t.Fatal("expected an error for a non-http(s) scheme")
	}
}

func TestLoadRejectsStartHeightBelowFloor(t *testing.T) {
	v, _ := newTestViper()
	v.Set("rpc-url", "http://127.0.0.1:8232")
	v.Set("start-height", uint64(27))
	if _, err := Load(v); err == nil {
		t.Fatal("expected an error for a start height below 28")
	}
}

func TestLoadAcceptsValidConfig(t *testing.T) {
	v, _ := newTestViper()
	v.Set("rpc-url", "https://node.example:443")
	v.Set("start-height", uint64(3_000_000))
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StartHeight != 3_000_000 {
		t.Errorf("StartHeight = %d, want 3000000", cfg.StartHeight)
	}
	if cfg.HeaderDBPath != "./headers.db" {
		t.Errorf("HeaderDBPath = %q, want default", cfg.HeaderDBPath)
	}
}
