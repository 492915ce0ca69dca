// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package chainsync drives continuous header verification: it pulls
// headers one at a time from a node, verifies Equihash, the difficulty
// filter, and contextual difficulty against a sliding window rebuilt from
// persisted state, and persists each header that verifies.
package chainsync

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/zcash/headerpow/common"
	"github.com/zcash/headerpow/common/logging"
	"github.com/zcash/headerpow/hash32"
	"github.com/zcash/headerpow/observability"
	"github.com/zcash/headerpow/parser"
	"github.com/zcash/headerpow/pow"
	"github.com/zcash/headerpow/pow/difficulty"
)

// contextBlocks is the number of prior headers PushHeader needs buffered
// (28 timestamps) before contextual difficulty can be evaluated.
const contextBlocks = 28

// pollInterval is how long Run waits before re-checking the node's tip once
// it has caught up.
const pollInterval = 2

// Record is one persisted (height, header) pair, in the hex encoding used
// by HeaderStore.
type Record struct {
	Height    uint32
	HeaderHex string
}

// NodeClient is the minimal RPC surface the driver needs from a
// zcashd/zebrad-compatible node.
type NodeClient interface {
	BlockCount(ctx context.Context) (uint64, error)
	BlockHash(ctx context.Context, height uint32) (hash32.T, error)
	Block(ctx context.Context, hash hash32.T) ([]byte, error)
}

// HeaderStore persists verified headers, keyed by height.
type HeaderStore interface {
	Put(ctx context.Context, height uint32, headerHex string) error
	Get(ctx context.Context, height uint32) (string, bool, error)
	Tip(ctx context.Context) (uint32, bool, error)
	LastN(ctx context.Context, n int) ([]Record, error)
}

// ErrInsufficientContext is returned when the configured or resumed start
// height is below contextBlocks, since there aren't enough prior headers to
// ever build a difficulty context.
var ErrInsufficientContext = errors.New("insufficient context: start height must be at least 28")

// Driver continuously verifies headers starting from a configured height,
// persisting each one that passes.
type Driver struct {
	Node        NodeClient
	Store       HeaderStore
	StartHeight uint32
	Log         *logrus.Entry
}

// Run verifies headers starting from (store tip + 1) when the store holds
// headers, or from d.StartHeight otherwise, persisting each verified header.
// Once it reaches the node's tip it polls for new blocks. It returns nil when
// ctx is canceled and an error as soon as a fetch, verification or store step
// fails.
func (d *Driver) Run(ctx context.Context) error {
	if d.StartHeight < contextBlocks {
		return ErrInsufficientContext
	}

	effectiveStart, err := d.effectiveStart(ctx)
	if err != nil {
		return err
	}
	if effectiveStart < contextBlocks {
		return ErrInsufficientContext
	}

	dctx, err := d.buildContext(ctx, effectiveStart)
	if err != nil {
		return fmt.Errorf("building difficulty context: %w", err)
	}

	height := effectiveStart
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		tip, err := d.Node.BlockCount(ctx)
		if err != nil {
			return fmt.Errorf("querying node tip: %w", err)
		}
		if uint64(height) > tip {
			if err := d.sleep(ctx, pollInterval); err != nil {
				return nil
			}
			continue
		}

		hdr, err := d.fetchHeader(ctx, height)
		if err != nil {
			return fmt.Errorf("fetching header %d: %w", height, err)
		}

		timer := prometheus.NewTimer(observability.VerifyDuration)
		logErr := logging.TimeOperation(d.logger(), "verify_header", logrus.Fields{"height": height}, func() error {
			return pow.VerifyPowWithContext(hdr, height, dctx)
		})
		timer.ObserveDuration()
		if logErr != nil {
			var perr *pow.Error
			outcome := "error"
			if errors.As(logErr, &perr) {
				outcome = perr.Stage.String()
			}
			observability.HeadersVerified.WithLabelValues(outcome).Inc()
			return fmt.Errorf("verifying header %d: %w", height, logErr)
		}
		observability.HeadersVerified.WithLabelValues("ok").Inc()
		observability.ChainTip.Set(float64(height))

		full, err := hdr.MarshalBinary()
		if err != nil {
			return fmt.Errorf("serializing header %d: %w", height, err)
		}
		headerHex := hex.EncodeToString(full)
		if err := d.Store.Put(ctx, height, headerHex); err != nil {
			return fmt.Errorf("persisting header %d: %w", height, err)
		}

		height++
	}
}

func (d *Driver) sleep(ctx context.Context, seconds int) error {
	timer := common.Time.Sleep
	if timer == nil {
		timer = time.Sleep
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	timer(time.Duration(seconds) * time.Second)
	return nil
}

func (d *Driver) logger() *logrus.Entry {
	if d.Log != nil {
		return d.Log
	}
	return common.Log
}

// effectiveStart resumes from the persisted tip plus one when the store
// already holds headers, falling back to the configured StartHeight.
func (d *Driver) effectiveStart(ctx context.Context) (uint32, error) {
	tip, ok, err := d.Store.Tip(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading store tip: %w", err)
	}
	if !ok {
		return d.StartHeight, nil
	}
	return tip + 1, nil
}

// buildContext reconstructs a DifficultyContext covering the contextBlocks
// headers immediately preceding effectiveStart, preferring persisted
// headers and filling any gap from the node, oldest height first.
func (d *Driver) buildContext(ctx context.Context, effectiveStart uint32) (*difficulty.Context, error) {
	dctx := difficulty.NewContext(effectiveStart - 1)

	stored, err := d.Store.LastN(ctx, contextBlocks)
	if err != nil {
		return nil, fmt.Errorf("reading stored context: %w", err)
	}

	if len(stored) == 0 {
		start := effectiveStart - contextBlocks
		for h := start; h < effectiveStart; h++ {
			hdr, err := d.fetchHeader(ctx, h)
			if err != nil {
				return nil, err
			}
			dctx.PushHeader(h, hdr.Time, hdr.NBits())
		}
		return dctx, nil
	}

	sort.Slice(stored, func(i, j int) bool { return stored[i].Height < stored[j].Height })

	if len(stored) < contextBlocks {
		need := contextBlocks - len(stored)
		earliest := stored[0].Height
		start := earliest - uint32(need)
		if uint32(need) > earliest {
			start = 0
		}
		for h := start; h < earliest; h++ {
			hdr, err := d.fetchHeader(ctx, h)
			if err != nil {
				return nil, err
			}
			dctx.PushHeader(h, hdr.Time, hdr.NBits())
		}
	}

	for _, rec := range stored {
		hdr, err := headerFromHex(rec.HeaderHex)
		if err != nil {
			return nil, fmt.Errorf("decoding stored header at height %d: %w", rec.Height, err)
		}
		dctx.PushHeader(rec.Height, hdr.Time, hdr.NBits())
	}
	return dctx, nil
}

// fetchHeader pulls the full block at height from the node and parses its
// header prefix.
func (d *Driver) fetchHeader(ctx context.Context, height uint32) (*parser.BlockHeader, error) {
	blockHash, err := d.Node.BlockHash(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("getblockhash(%d): %w", height, err)
	}
	raw, err := d.Node.Block(ctx, blockHash)
	if err != nil {
		return nil, fmt.Errorf("getblock(%x): %w", blockHash, err)
	}

	hdr := parser.NewBlockHeader()
	if _, err := hdr.ParseFromSlice(raw); err != nil {
		return nil, fmt.Errorf("parsing header at height %d: %w", height, err)
	}
	return hdr, nil
}

func headerFromHex(s string) (*parser.BlockHeader, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	hdr := parser.NewBlockHeader()
	// Only the 140-byte PowHeader prefix of the stored bytes is decoded; the
	// solution is replaced by zeros. Stored headers are never re-verified,
	// only their time/bits are replayed into the difficulty window, so a
	// zero solution is fine here.
	if len(b) < 140 {
		return nil, fmt.Errorf("stored header too short: %d bytes", len(b))
	}
	if _, err := hdr.ParseFromSlice(append(b[:140], encodeZeroSolutionPrefix()...)); err != nil {
		return nil, err
	}
	return hdr, nil
}

func encodeZeroSolutionPrefix() []byte {
	out := make([]byte, 3+1344)
	out[0] = 0xfd
	out[1] = 0x40
	out[2] = 0x05
	return out
}
