package graduate

import (
	"bytes"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"solgraduate/pkg"
)

// CanonicalPair is a mint pair ordered by raw address bytes, MintA < MintB.
// Swapped records whether the caller's (mint0, mint1) order was reversed.
type CanonicalPair struct {
	MintA   solana.PublicKey
	MintB   solana.PublicKey
	Swapped bool
}

// Canonicalize orders two distinct mints. Canonicalizing an already canonical
// pair returns it unchanged with Swapped false.
func Canonicalize(mint0, mint1 solana.PublicKey) (CanonicalPair, error) {
	switch bytes.Compare(mint0[:], mint1[:]) {
	case 0:
		return CanonicalPair{}, pkg.Errorf(pkg.ErrCodeInvalidInput, "token mints must differ, got %s twice", mint0)
	case 1:
		return CanonicalPair{MintA: mint1, MintB: mint0, Swapped: true}, nil
	default:
		return CanonicalPair{MintA: mint0, MintB: mint1}, nil
	}
}

// Less is the canonical order over mint addresses
func Less(a, b solana.PublicKey) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// Remap reassigns a per-mint value pair given in caller order to (A, B) order
func Remap[T any](pair CanonicalPair, v0, v1 T) (T, T) {
	if pair.Swapped {
		return v1, v0
	}
	return v0, v1
}

// RemapAmounts reassigns (amount0, amount1) to (amountA, amountB)
func (p CanonicalPair) RemapAmounts(amount0, amount1 cosmath.Int) (amountA, amountB cosmath.Int) {
	return Remap(p, amount0, amount1)
}
