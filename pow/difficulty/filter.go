// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package difficulty implements Zcash-style difficulty filtering and the
// contextual (sliding-window) difficulty adjustment used to validate a
// header's nBits against recent chain history.
package difficulty

import (
	"fmt"

	"github.com/zcash/headerpow/pow/target"
)

// Kind identifies why a difficulty check failed.
type Kind int

const (
	// InvalidTarget means FromNBits(nbits) decoded to zero.
	InvalidTarget Kind = iota
	// TargetAbovePowLimit means the target derived from nBits exceeds
	// the mainnet PoW limit.
	TargetAbovePowLimit
	// HashAboveTarget means the header hash is numerically greater than
	// the target.
	HashAboveTarget
	// InsufficientContext means the sliding window doesn't yet hold
	// enough headers to compute contextual difficulty.
	InsufficientContext
	// HeightMismatch means the header's height doesn't immediately
	// follow the context's tip height.
	HeightMismatch
	// BitsMismatch means the header's nBits doesn't match the expected
	// contextual difficulty adjustment.
	BitsMismatch
)

func (k Kind) String() string {
	switch k {
	case InvalidTarget:
		return "nBits encodes an invalid target"
	case TargetAbovePowLimit:
		return "target exceeds PoW limit"
	case HashAboveTarget:
		return "block hash is above target"
	case InsufficientContext:
		return "insufficient context for contextual difficulty"
	case BitsMismatch:
		return "nBits does not match contextual difficulty"
	case HeightMismatch:
		return "header height does not follow context tip height"
	default:
		return "unknown difficulty error"
	}
}

// Error reports a difficulty check failure, optionally carrying the
// expected/found values for mismatches.
type Error struct {
	Kind     Kind
	Expected uint32
	Found    uint32
}

func (e *Error) Error() string {
	switch e.Kind {
	case HeightMismatch:
		return fmt.Sprintf("header height %d does not match expected next height %d", e.Found, e.Expected)
	case BitsMismatch:
		return fmt.Sprintf("nBits %#x does not match contextual difficulty %#x", e.Found, e.Expected)
	default:
		return e.Kind.String()
	}
}

// VerifyFilter checks Hash(header) <= FromNBits(nbits). headerHash is the
// 32-byte SHA256d header hash in little-endian (internal) byte order, the
// same order the target comparison is done in.
func VerifyFilter(headerHash [32]byte, nbits uint32) error {
	t := target.FromNBits(nbits)
	if target.IsZero(t) {
		return &Error{Kind: InvalidTarget}
	}
	if target.Cmp(t, target.PowLimit) > 0 {
		return &Error{Kind: TargetAbovePowLimit}
	}
	if target.Cmp(target.Target(headerHash), t) > 0 {
		return &Error{Kind: HashAboveTarget}
	}
	return nil
}
