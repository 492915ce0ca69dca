// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package rpcnode implements chainsync.NodeClient against a zcashd- or
// zebrad-compatible JSON-RPC endpoint.
package rpcnode

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/btcsuite/btcd/rpcclient"

	"github.com/zcash/headerpow/hash32"
)

// ErrNonHTTPURL is returned by New when the endpoint isn't an http(s) URL;
// zcashd's JSON-RPC server never speaks anything else.
var ErrNonHTTPURL = errors.New("rpcnode: only http:// and https:// URLs are supported")

// rawRequester is the indirection NewZRPCFromCreds-style constructors
// produce in production and tests substitute with a fake in newWithCall.
type rawRequester func(method string, params []json.RawMessage) (json.RawMessage, error)

// Client is a minimal JSON-RPC client for the three calls the chain-sync
// driver needs: getblockcount, getblockhash, and getblock (verbosity 0).
type Client struct {
	call rawRequester
}

// New dials a zcashd/zebrad JSON-RPC endpoint given as a URL such as
// "http://127.0.0.1:8232" or an https endpoint. Only http and https schemes
// are accepted. Credentials come from user and pass; any user info embedded
// in the URL is ignored.
func New(endpoint, user, pass string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("rpcnode: parsing endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, ErrNonHTTPURL
	}

	connCfg := &rpcclient.ConnConfig{
		Host:         u.Host,
		User:         user,
		Pass:         pass,
		HTTPPostMode: true,
		DisableTLS:   u.Scheme == "http",
	}
	rc, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("rpcnode: connecting: %w", err)
	}
	return &Client{call: rc.RawRequest}, nil
}

// newWithCall is used by tests to substitute a fake RawRequest without
// dialing a real node.
func newWithCall(call rawRequester) *Client {
	return &Client{call: call}
}

func (c *Client) BlockCount(ctx context.Context) (uint64, error) {
	raw, err := c.call("getblockcount", nil)
	if err != nil {
		return 0, fmt.Errorf("getblockcount: %w", err)
	}
	var height uint64
	if err := json.Unmarshal(raw, &height); err != nil {
		return 0, fmt.Errorf("getblockcount: decoding reply: %w", err)
	}
	return height, nil
}

func (c *Client) BlockHash(ctx context.Context, height uint32) (hash32.T, error) {
	params, err := marshalParams(height)
	if err != nil {
		return hash32.Nil, err
	}
	raw, err := c.call("getblockhash", params)
	if err != nil {
		return hash32.Nil, fmt.Errorf("getblockhash(%d): %w", height, err)
	}
	var hashHex string
	if err := json.Unmarshal(raw, &hashHex); err != nil {
		return hash32.Nil, fmt.Errorf("getblockhash(%d): decoding reply: %w", height, err)
	}
	// zcashd returns block hashes in display (big-endian) order; the wire
	// and internal representation is little-endian.
	h, err := hash32.Decode(hashHex)
	if err != nil {
		return hash32.Nil, fmt.Errorf("getblockhash(%d): %w", height, err)
	}
	return hash32.Reverse(h), nil
}

func (c *Client) Block(ctx context.Context, blockHash hash32.T) ([]byte, error) {
	displayHash := hash32.Reverse(blockHash)
	params, err := marshalParams(hash32.Encode(displayHash), 0)
	if err != nil {
		return nil, err
	}
	raw, err := c.call("getblock", params)
	if err != nil {
		return nil, fmt.Errorf("getblock(%s): %w", hash32.Encode(displayHash), err)
	}
	var blockHex string
	if err := json.Unmarshal(raw, &blockHex); err != nil {
		return nil, fmt.Errorf("getblock(%s): decoding reply: %w", hash32.Encode(displayHash), err)
	}
	b, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, fmt.Errorf("getblock(%s): %w", hash32.Encode(displayHash), err)
	}
	return b, nil
}

func marshalParams(args ...interface{}) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("rpcnode: marshaling param %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}
