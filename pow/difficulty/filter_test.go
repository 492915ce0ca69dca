// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package difficulty

import "testing"

func TestVerifyFilterInvalidTarget(t *testing.T) {
	err := VerifyFilter([32]byte{}, 0x01003456)
	assertKind(t, err, InvalidTarget)
}

func TestVerifyFilterAbovePowLimit(t *testing.T) {
	// exponent 0x20 with mantissa 0x7fffff shifts to a target far above
	// the 2^243-1 PoW limit.
	err := VerifyFilter([32]byte{}, 0x207fffff)
	assertKind(t, err, TargetAbovePowLimit)
}

func TestVerifyFilterHashAboveTarget(t *testing.T) {
	// nBits 0x1d00ffff decodes to a small target; an all-0xff hash is
	// certainly greater than it.
	hash := [32]byte{}
	for i := range hash {
		hash[i] = 0xff
	}
	err := VerifyFilter(hash, 0x1d00ffff)
	assertKind(t, err, HashAboveTarget)
}

func TestVerifyFilterAccepts(t *testing.T) {
	// The zero hash is <= any positive target.
	err := VerifyFilter([32]byte{}, 0x1d00ffff)
	if err != nil {
		t.Errorf("expected zero hash to satisfy the filter, got %v", err)
	}
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	derr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if derr.Kind != want {
		t.Errorf("got Kind %v, want %v", derr.Kind, want)
	}
}
