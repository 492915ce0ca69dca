// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package equihash verifies Equihash proof-of-work solutions for
// Zcash-style block headers. It only verifies; it does not search for
// solutions.
package equihash

import (
	"encoding/binary"
	"fmt"
	"hash"
	"reflect"

	"github.com/minio/blake2b-simd"
)

// Kind identifies why a solution failed to verify.
type Kind int

const (
	// InvalidParams covers bad (n,k) parameters or a malformed solution
	// encoding (wrong length, etc).
	InvalidParams Kind = iota
	// Collision means a pair of siblings didn't share the required
	// leading collision bytes.
	Collision
	// OutOfOrder means a left subtree didn't lexicographically precede
	// its right sibling.
	OutOfOrder
	// DuplicateIdxs means the same leaf index appeared under both
	// siblings of a merge.
	DuplicateIdxs
	// NonZeroRootHash means the fully-reduced root wasn't all zero bytes.
	NonZeroRootHash
)

func (k Kind) String() string {
	switch k {
	case InvalidParams:
		return "invalid parameters"
	case Collision:
		return "invalid collision length between rows"
	case OutOfOrder:
		return "index tree incorrectly ordered"
	case DuplicateIdxs:
		return "duplicate indices"
	case NonZeroRootHash:
		return "root hash of tree is non-zero"
	default:
		return "unknown equihash error"
	}
}

// Error wraps the Kind of failure in the standard error interface.
type Error struct {
	Kind Kind
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid equihash solution: %s", e.Kind)
}

func invalid(k Kind) error {
	return &Error{Kind: k}
}

// params holds validated Equihash parameters.
type params struct {
	n, k uint32
}

func newParams(n, k uint32) (params, bool) {
	if n%8 == 0 && k >= 3 && k < n && n%(k+1) == 0 {
		return params{n: n, k: k}, true
	}
	return params{}, false
}

func (p params) indicesPerHashOutput() uint32 {
	return 512 / p.n
}

func (p params) hashOutput() uint8 {
	return uint8(p.indicesPerHashOutput() * p.n / 8)
}

func (p params) collisionBitLength() int {
	return int(p.n / (p.k + 1))
}

func (p params) collisionByteLength() int {
	return (p.collisionBitLength() + 7) / 8
}

// Verify checks that solution is a valid Equihash(200,9) solution binding
// powheader, the Zcash mainnet/testnet parameters.
func Verify(powheader, solution []byte) error {
	return VerifyWithParams(200, 9, powheader, solution)
}

// VerifyWithParams checks solution against arbitrary valid (n,k) parameters.
func VerifyWithParams(n, k uint32, powheader, solution []byte) error {
	p, ok := newParams(n, k)
	if !ok {
		return invalid(InvalidParams)
	}

	indices, ok := indicesFromMinimal(p, solution)
	if !ok {
		return invalid(InvalidParams)
	}

	person := personalization(p.n, p.k)
	base, err := blake2b.New(&blake2b.Config{
		Person: person[:],
		Size:   p.hashOutput(),
	})
	if err != nil {
		return invalid(InvalidParams)
	}
	base.Write(powheader)

	root, verr := buildTree(p, base, indices)
	if verr != nil {
		return verr
	}
	if !root.isZero(p.collisionByteLength()) {
		return invalid(NonZeroRootHash)
	}
	return nil
}

// personalization builds the 16-byte BLAKE2b personalization string
// "ZcashPoW" || LE32(n) || LE32(k).
func personalization(n, k uint32) [16]byte {
	var out [16]byte
	copy(out[:8], "ZcashPoW")
	binary.LittleEndian.PutUint32(out[8:12], n)
	binary.LittleEndian.PutUint32(out[12:16], k)
	return out
}

// copyHash clones a hash.Hash value by reflection, the way a blake2b-simd
// digest (a plain value type with no heap-backed buffers) needs to be
// duplicated before each group gets its own counter appended.
func copyHash(src hash.Hash) hash.Hash {
	typ := reflect.TypeOf(src)
	val := reflect.ValueOf(src)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		val = val.Elem()
	}
	elem := reflect.New(typ).Elem()
	elem.Set(val)
	return elem.Addr().Interface().(hash.Hash)
}

// groupDigest computes the i-th group BLAKE2b digest: a clone of base (which
// has already absorbed the powheader) with the little-endian group counter
// appended.
func groupDigest(base hash.Hash, i uint32) []byte {
	h := copyHash(base)
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], i)
	h.Write(idx[:])
	return h.Sum(nil)
}

// expandArray expands a compact big-endian bitstream of bitLen-wide digits
// into byteWidth-per-digit (plus bytePad leading zero bytes), matching the
// reference Equihash bit-packing scheme exactly.
func expandArray(in []byte, bitLen, bytePad int) []byte {
	outWidth := (bitLen+7)/8 + bytePad
	outLen := 8 * outWidth * len(in) / bitLen
	if outLen == len(in) {
		out := make([]byte, outLen)
		copy(out, in)
		return out
	}

	out := make([]byte, outLen)
	bitLenMask := uint32(1<<uint(bitLen)) - 1

	accBits := 0
	var accValue uint32
	j := 0
	for _, b := range in {
		accValue = (accValue << 8) | uint32(b)
		accBits += 8
		if accBits >= bitLen {
			accBits -= bitLen
			for x := bytePad; x < outWidth; x++ {
				shift := uint(accBits + 8*(outWidth-x-1))
				a := accValue >> shift
				bmask := (bitLenMask >> uint(8*(outWidth-x-1))) & 0xff
				out[j+x] = byte(a & bmask)
			}
			j += outWidth
		}
	}
	return out
}

// indicesFromMinimal decodes a minimal Equihash solution into its 2^k
// big-endian index values.
func indicesFromMinimal(p params, minimal []byte) ([]uint32, bool) {
	cBitLen := p.collisionBitLength()
	expectedLen := (1 << p.k) * (cBitLen + 1) / 8
	if len(minimal) != expectedLen {
		return nil, false
	}

	digitBytes := (cBitLen + 1 + 7) / 8
	bytePad := 4 - digitBytes
	expanded := expandArray(minimal, cBitLen+1, bytePad)
	if len(expanded)%4 != 0 {
		return nil, false
	}

	indices := make([]uint32, 0, len(expanded)/4)
	for i := 0; i+4 <= len(expanded); i += 4 {
		indices = append(indices, binary.BigEndian.Uint32(expanded[i:i+4]))
	}
	return indices, true
}

// node is a partially or fully reduced Equihash merge-tree vertex.
type node struct {
	hash    []byte
	indices []uint32
}

func newLeaf(p params, base hash.Hash, i uint32) node {
	digest := groupDigest(base, i/p.indicesPerHashOutput())
	start := int(i%p.indicesPerHashOutput()) * int(p.n) / 8
	end := start + int(p.n)/8
	return node{
		hash:    expandArray(digest[start:end], p.collisionBitLength(), 0),
		indices: []uint32{i},
	}
}

func (a node) indicesBefore(b node) bool {
	return a.indices[0] < b.indices[0]
}

func (a node) isZero(n int) bool {
	for _, v := range a.hash[:n] {
		if v != 0 {
			return false
		}
	}
	return true
}

func hasCollision(a, b node, n int) bool {
	for i := 0; i < n; i++ {
		if a.hash[i] != b.hash[i] {
			return false
		}
	}
	return true
}

func distinctIndices(a, b node) bool {
	for _, i := range a.indices {
		for _, j := range b.indices {
			if i == j {
				return false
			}
		}
	}
	return true
}

func mergeNodes(p params, a, b node) (node, error) {
	if !hasCollision(a, b, p.collisionByteLength()) {
		return node{}, invalid(Collision)
	}
	if b.indicesBefore(a) {
		return node{}, invalid(OutOfOrder)
	}
	if !distinctIndices(a, b) {
		return node{}, invalid(DuplicateIdxs)
	}

	trim := p.collisionByteLength()
	merged := make([]byte, len(a.hash)-trim)
	for i := range merged {
		merged[i] = a.hash[trim+i] ^ b.hash[trim+i]
	}

	var indices []uint32
	if a.indicesBefore(b) {
		indices = append(append([]uint32{}, a.indices...), b.indices...)
	} else {
		indices = append(append([]uint32{}, b.indices...), a.indices...)
	}
	return node{hash: merged, indices: indices}, nil
}

// buildTree recursively builds and validates the binary merge tree over
// indices, returning the fully-reduced root node.
func buildTree(p params, base hash.Hash, indices []uint32) (node, error) {
	if len(indices) > 1 {
		mid := len(indices) / 2
		a, err := buildTree(p, base, indices[:mid])
		if err != nil {
			return node{}, err
		}
		b, err := buildTree(p, base, indices[mid:])
		if err != nil {
			return node{}, err
		}
		return mergeNodes(p, a, b)
	}
	return newLeaf(p, base, indices[0]), nil
}
