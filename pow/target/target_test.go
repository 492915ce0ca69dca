// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package target

import "testing"

func TestFromNBitsMantissaShiftedOut(t *testing.T) {
	// exponent 1 shifts the 0x003456 mantissa right by two bytes, leaving
	// nothing.
	if got := FromNBits(0x01003456); !IsZero(got) {
		t.Errorf("expected zero target when the mantissa is shifted out, got %x", got)
	}
}

func TestFromNBitsCanonicalRoundTrip(t *testing.T) {
	// 0x1b0404cb is a well-known Bitcoin-style compact target.
	tt := FromNBits(0x1b0404cb)
	if back := ToNBits(tt); back != 0x1b0404cb {
		t.Errorf("round trip mismatch: got %08x, want %08x", back, 0x1b0404cb)
	}
}

func TestFromNBitsSmallExponent(t *testing.T) {
	// exponent < 3 shifts the mantissa right, dropping low bytes.
	tt := FromNBits(0x02008000)
	want := Target{0x80}
	if tt != want {
		t.Errorf("got %x, want %x", tt, want)
	}
}

func TestCmp(t *testing.T) {
	a := Target{0x01}
	b := Target{0x02}
	if Cmp(a, b) >= 0 {
		t.Error("expected a < b")
	}
	if Cmp(b, a) <= 0 {
		t.Error("expected b > a")
	}
	if Cmp(a, a) != 0 {
		t.Error("expected a == a")
	}
}

func TestAddCarryChain(t *testing.T) {
	a := Target{0xff}
	b := Target{0x01}
	got := Add(a, b)
	want := Target{0x00, 0x01}
	if got != want {
		t.Errorf("Add carry failed: got %x, want %x", got, want)
	}
}

func TestMulU32(t *testing.T) {
	x := Target{0x02}
	got := MulU32(x, 3)
	want := Target{0x06}
	if got != want {
		t.Errorf("MulU32: got %x, want %x", got, want)
	}
}

func TestDivU32Truncates(t *testing.T) {
	x := Target{0x00, 0x01} // 256
	got := DivU32(x, 17)
	// 256/17 = 15 remainder 1
	want := Target{15}
	if got != want {
		t.Errorf("DivU32: got %x, want %x", got, want)
	}
}

func TestMin(t *testing.T) {
	small := Target{0x01}
	big := Target{0x00, 0x01}
	if Min(small, big) != small {
		t.Error("Min picked the larger value")
	}
	if Min(big, small) != small {
		t.Error("Min is not commutative")
	}
}

func TestPowLimitAboveCommonTargets(t *testing.T) {
	everyday := FromNBits(0x1d00ffff)
	if Cmp(everyday, PowLimit) >= 0 {
		t.Error("expected PowLimit to dominate an ordinary compact target")
	}
}
