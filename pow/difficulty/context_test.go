// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package difficulty

import "testing"

func TestPushHeaderWindowBounding(t *testing.T) {
	ctx := NewContext(0)
	for h := uint32(1); h <= 40; h++ {
		ctx.PushHeader(h, 1000+h, 0x1d00ffff)
	}
	if len(ctx.times) != medianBlockSpan+avgWindow {
		t.Errorf("times window = %d, want %d", len(ctx.times), medianBlockSpan+avgWindow)
	}
	if len(ctx.bits) != avgWindow {
		t.Errorf("bits window = %d, want %d", len(ctx.bits), avgWindow)
	}
	if ctx.TipHeight != 40 {
		t.Errorf("TipHeight = %d, want 40", ctx.TipHeight)
	}
	// The window should hold the most recent entries, oldest evicted first.
	if ctx.times[0] != 1000+(40-uint32(medianBlockSpan+avgWindow)+1) {
		t.Errorf("oldest retained time = %d, window did not evict FIFO", ctx.times[0])
	}
}

func TestExpectedNBitsInsufficientContext(t *testing.T) {
	ctx := NewContext(5)
	ctx.PushHeader(6, 1000, 0x1d00ffff)
	_, err := ctx.ExpectedNBits(7)
	assertKind(t, err, InsufficientContext)
}

func fullContext() *Context {
	ctx := NewContext(0)
	for h := uint32(1); h <= medianBlockSpan+avgWindow; h++ {
		ctx.PushHeader(h, 1000+75*h, 0x1d00ffff)
	}
	return ctx
}

func TestExpectedNBitsHeightMismatch(t *testing.T) {
	ctx := fullContext()
	_, err := ctx.ExpectedNBits(ctx.TipHeight + 2)
	assertKind(t, err, HeightMismatch)
}

func TestVerifyDifficultyBitsMismatch(t *testing.T) {
	ctx := fullContext()
	err := ctx.VerifyDifficulty(ctx.TipHeight+1, 0x00000000)
	assertKind(t, err, BitsMismatch)
}

func TestExpectedNBitsConstantDifficultyIsStable(t *testing.T) {
	// With every timestamp exactly targetSpacing apart and every nBits
	// identical, the actual timespan equals the averaging window
	// timespan exactly, so the mean target is unchanged by the damping
	// and clamping steps. The mandatory divide-then-multiply ordering
	// still loses a little precision versus the input target, rounding
	// 0x1d00ffff down to 0x1d00fffe.
	ctx := fullContext()
	expected, err := ctx.ExpectedNBits(ctx.TipHeight + 1)
	if err != nil {
		t.Fatalf("ExpectedNBits: %v", err)
	}
	if expected != 0x1d00fffe {
		t.Errorf("expected stable difficulty 0x1d00fffe, got %#x", expected)
	}
}
