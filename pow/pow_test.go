// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package pow

import (
	"errors"
	"testing"

	"github.com/zcash/headerpow/parser"
	"github.com/zcash/headerpow/pow/difficulty"
	eq "github.com/zcash/headerpow/pow/equihash"
)

func sampleHeader() *parser.BlockHeader {
	hdr := parser.NewBlockHeader()
	hdr.Version = 4
	hdr.Time = 1477641360
	hdr.NBitsBytes = [4]byte{0xff, 0xff, 0x00, 0x1d}
	return hdr
}

func TestVerifyPowFailsEquihashFirst(t *testing.T) {
	hdr := sampleHeader()
	// The zero solution is not a valid Equihash(200,9) solution, so this
	// must fail at the equihash stage before difficulty is even checked.
	err := VerifyPow(hdr)
	if err == nil {
		t.Fatal("expected an error for a degenerate solution")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *pow.Error, got %T", err)
	}
	if perr.Stage != StageEquihash {
		t.Errorf("expected failure at StageEquihash, got %v", perr.Stage)
	}
	var eqErr *eq.Error
	if !errors.As(err, &eqErr) {
		t.Errorf("expected underlying *equihash.Error to be reachable via errors.As, got %v", err)
	}
}

func TestVerifyPowWithContextLeavesContextUnchangedOnFailure(t *testing.T) {
	hdr := sampleHeader()
	ctx := difficulty.NewContext(10)
	err := VerifyPowWithContext(hdr, 11, ctx)
	if err == nil {
		t.Fatal("expected an error for a degenerate solution")
	}
	if ctx.TipHeight != 10 {
		t.Errorf("context tip height changed on failed verification: got %d, want 10", ctx.TipHeight)
	}
}
