// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"bytes"
	"math/big"

	"github.com/zeebo/blake3"

	"github.com/orbitdex/precompile/asset"
)

// Pool is one constant-product market between two assets. AssetA/AssetB
// are held in canonical order (ascending encoded identity) so that the
// pool ID is direction-independent.
type Pool struct {
	AssetA asset.Info
	AssetB asset.Info

	ReserveA *big.Int
	ReserveB *big.Int

	CommissionPPM uint64
}

func infoKey(info asset.Info) []byte {
	// identity encoding never fails for values built by the constructors
	b, err := asset.AppendInfo(nil, info)
	if err != nil {
		return nil
	}
	return b
}

// canonicalOrder returns the two assets with the lexicographically smaller
// encoded identity first.
func canonicalOrder(a, b asset.Info) (asset.Info, asset.Info) {
	if bytes.Compare(infoKey(a), infoKey(b)) > 0 {
		return b, a
	}
	return a, b
}

// PoolID derives the storage identity of the pool for an asset pair,
// independent of argument order.
func PoolID(a, b asset.Info) [32]byte {
	first, second := canonicalOrder(a, b)
	h := blake3.New()
	h.Write(infoKey(first))
	h.Write(infoKey(second))
	var id [32]byte
	h.Digest().Read(id[:])
	return id
}

// ID returns the pool's storage identity.
func (p *Pool) ID() [32]byte {
	return PoolID(p.AssetA, p.AssetB)
}

// Has reports whether info is one of the pool's two assets.
func (p *Pool) Has(info asset.Info) bool {
	return p.AssetA.Equal(info) || p.AssetB.Equal(info)
}

// Reserves returns the pool's reserves oriented for a swap offering the
// given asset. The second return is the ask-side asset.
func (p *Pool) Reserves(offer asset.Info) (reserveOffer, reserveAsk *big.Int, ask asset.Info, ok bool) {
	switch {
	case p.AssetA.Equal(offer):
		return p.ReserveA, p.ReserveB, p.AssetB, true
	case p.AssetB.Equal(offer):
		return p.ReserveB, p.ReserveA, p.AssetA, true
	default:
		return nil, nil, asset.Info{}, false
	}
}

// CommitSwap applies an executed swap to the reserves: the offer side
// grows by the full offer amount, the ask side shrinks by the paid-out
// return amount. The commission stays in the pool.
func (p *Pool) CommitSwap(offer asset.Info, offerAmount, returnAmount *big.Int) {
	if p.AssetA.Equal(offer) {
		p.ReserveA = new(big.Int).Add(p.ReserveA, offerAmount)
		p.ReserveB = new(big.Int).Sub(p.ReserveB, returnAmount)
		return
	}
	p.ReserveB = new(big.Int).Add(p.ReserveB, offerAmount)
	p.ReserveA = new(big.Int).Sub(p.ReserveA, returnAmount)
}
