// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package asset models the two kinds of swappable value on the chain:
// native currency identified by denom, and contract-issued tokens
// identified by the token contract address.
package asset

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// InfoKind tags the variant of an Info value.
type InfoKind uint8

const (
	KindNative InfoKind = 1
	KindToken  InfoKind = 2
)

// Info identifies an asset. Exactly one of Denom or Token is meaningful,
// selected by Kind.
type Info struct {
	Kind  InfoKind
	Denom string
	Token common.Address
}

// NativeInfo returns the Info for a native currency denom.
func NativeInfo(denom string) Info {
	return Info{Kind: KindNative, Denom: denom}
}

// TokenInfo returns the Info for a contract-issued token.
func TokenInfo(token common.Address) Info {
	return Info{Kind: KindToken, Token: token}
}

// IsNative reports whether the asset is native currency.
func (i Info) IsNative() bool {
	return i.Kind == KindNative
}

// Equal reports whether two Info values identify the same asset.
func (i Info) Equal(other Info) bool {
	if i.Kind != other.Kind {
		return false
	}
	if i.Kind == KindNative {
		return i.Denom == other.Denom
	}
	return i.Token == other.Token
}

// CoinID returns the multi-coin balance key for a native denom.
func (i Info) CoinID() common.Hash {
	h := blake3.New()
	h.Write([]byte("denom:"))
	h.Write([]byte(i.Denom))
	var id common.Hash
	h.Digest().Read(id[:])
	return id
}

func (i Info) String() string {
	if i.Kind == KindNative {
		return "native:" + i.Denom
	}
	return "token:" + i.Token.Hex()
}

// Asset is a quantity of an identified asset. Amount is denominated in the
// asset's smallest unit and never exceeds 128 bits.
type Asset struct {
	Info   Info
	Amount *big.Int
}

func (a Asset) String() string {
	return fmt.Sprintf("%s %s", a.Amount, a.Info)
}
