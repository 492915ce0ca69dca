// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package rpcnode

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/zcash/headerpow/hash32"
)

func fmtZeroes(n int) string {
	return strings.Repeat("00", n)
}

func TestNewRejectsNonHTTPScheme(t *testing.T) {
	_, err := New("ftp://127.0.0.1:8232", "user", "pass")
	if err != ErrNonHTTPURL {
		t.Fatalf("expected ErrNonHTTPURL, got %v", err)
	}
}

func TestNewAcceptsHTTPAndHTTPS(t *testing.T) {
	for _, u := range []string{"http://127.0.0.1:8232", "https://node.example:443"} {
		if _, err := New(u, "user", "pass"); err != nil {
			t.Errorf("New(%q) = %v, want nil error", u, err)
		}
	}
}

func TestBlockCountDecodesReply(t *testing.T) {
	c := newWithCall(func(method string, params []json.RawMessage) (json.RawMessage, error) {
		if method != "getblockcount" {
			t.Errorf("unexpected method %q", method)
		}
		return json.RawMessage(`1234567`), nil
	})
	got, err := c.BlockCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != 1234567 {
		t.Errorf("BlockCount = %d, want 1234567", got)
	}
}

func TestBlockHashReversesDisplayOrder(t *testing.T) {
	// All-zero-but-one hash so the reversal is easy to check by hand: the
	// display (big-endian) form has the 0x01 first, the internal
	// little-endian form has it last.
	displayHex := "01" + fmtZeroes(31)
	c := newWithCall(func(method string, params []json.RawMessage) (json.RawMessage, error) {
		if method != "getblockhash" {
			t.Errorf("unexpected method %q", method)
		}
		b, _ := json.Marshal(displayHex)
		return b, nil
	})
	got, err := c.BlockHash(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	want := hash32.T{}
	want[31] = 0x01
	if got != want {
		t.Errorf("BlockHash = %x, want %x", got, want)
	}
}

func TestBlockDecodesHexPayload(t *testing.T) {
	want := []byte{0xde, 0xad, 0xbe, 0xef}
	c := newWithCall(func(method string, params []json.RawMessage) (json.RawMessage, error) {
		if method != "getblock" {
			t.Errorf("unexpected method %q", method)
		}
		b, _ := json.Marshal("deadbeef")
		return b, nil
	})
	got, err := c.Block(context.Background(), hash32.T{})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("Block = %x, want %x", got, want)
	}
}
