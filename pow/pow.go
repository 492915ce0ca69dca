// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package pow composes Equihash solution verification with difficulty
// filtering and optional contextual difficulty adjustment into the single
// entry point a chain-sync driver calls per header.
package pow

import (
	"fmt"

	"github.com/zcash/headerpow/parser"
	"github.com/zcash/headerpow/pow/difficulty"
	"github.com/zcash/headerpow/pow/equihash"
)

// Stage identifies which verification stage produced an error.
type Stage int

const (
	StageEquihash Stage = iota
	StageDifficultyFilter
	StageContextualDifficulty
)

func (s Stage) String() string {
	switch s {
	case StageEquihash:
		return "equihash"
	case StageDifficultyFilter:
		return "difficulty filter"
	case StageContextualDifficulty:
		return "contextual difficulty"
	default:
		return "unknown stage"
	}
}

// Error wraps the underlying stage error with which pipeline stage
// produced it, so callers can log/branch on Stage without string
// matching while still getting errors.Is/errors.As through Unwrap.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// VerifyPow checks that hdr carries a valid Equihash solution and satisfies
// the difficulty filter Hash(hdr) <= target.FromNBits(hdr.NBits()). It does not check
// contextual difficulty; use VerifyPowWithContext for that.
func VerifyPow(hdr *parser.BlockHeader) error {
	if err := equihash.Verify(hdr.PowHeader(), hdr.Solution[:]); err != nil {
		return &Error{Stage: StageEquihash, Err: err}
	}

	if err := difficulty.VerifyFilter(hdr.GetEncodableHash(), hdr.NBits()); err != nil {
		return &Error{Stage: StageDifficultyFilter, Err: err}
	}

	return nil
}

// VerifyPowWithContext performs everything VerifyPow does, plus contextual
// difficulty verification against ctx. On success, hdr is appended to ctx
// at height; ctx is left unmodified on any failure.
func VerifyPowWithContext(hdr *parser.BlockHeader, height uint32, ctx *difficulty.Context) error {
	if err := equihash.Verify(hdr.PowHeader(), hdr.Solution[:]); err != nil {
		return &Error{Stage: StageEquihash, Err: err}
	}

	if err := difficulty.VerifyFilter(hdr.GetEncodableHash(), hdr.NBits()); err != nil {
		return &Error{Stage: StageDifficultyFilter, Err: err}
	}

	if err := ctx.VerifyDifficulty(height, hdr.NBits()); err != nil {
		return &Error{Stage: StageContextualDifficulty, Err: err}
	}

	ctx.PushHeader(height, hdr.Time, hdr.NBits())
	return nil
}
