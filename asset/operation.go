// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asset

import (
	"errors"
	"fmt"
)

// OpKind tags the variant of a SwapOperation.
type OpKind uint8

const (
	// OpNativeSwap converts between two native denoms through the
	// platform's built-in swap primitive.
	OpNativeSwap OpKind = 1
	// OpPoolSwap converts through a constant-product pool contract.
	OpPoolSwap OpKind = 2
)

// SwapOperation is one hop's intent. It carries no amount: the amount flows
// from the previous hop's output or the caller's initial offer.
type SwapOperation struct {
	Kind OpKind

	// Set when Kind == OpNativeSwap.
	OfferDenom string
	AskDenom   string

	// Set when Kind == OpPoolSwap.
	Offer Info
	Ask   Info
}

// NativeSwapOp builds a native-to-native hop.
func NativeSwapOp(offerDenom, askDenom string) SwapOperation {
	return SwapOperation{Kind: OpNativeSwap, OfferDenom: offerDenom, AskDenom: askDenom}
}

// PoolSwapOp builds a pool hop between two arbitrary assets.
func PoolSwapOp(offer, ask Info) SwapOperation {
	return SwapOperation{Kind: OpPoolSwap, Offer: offer, Ask: ask}
}

// OfferInfo returns the hop's input asset.
func (op SwapOperation) OfferInfo() Info {
	if op.Kind == OpNativeSwap {
		return NativeInfo(op.OfferDenom)
	}
	return op.Offer
}

// AskInfo returns the hop's output asset.
func (op SwapOperation) AskInfo() Info {
	if op.Kind == OpNativeSwap {
		return NativeInfo(op.AskDenom)
	}
	return op.Ask
}

var (
	ErrEmptyRoute     = errors.New("route has no operations")
	ErrRedundantRoute = errors.New("route converts an asset into itself")
)

// DisconnectedHopError reports the first hop whose offer asset does not
// match the asset flowing into it.
type DisconnectedHopError struct {
	Index int
}

func (e DisconnectedHopError) Error() string {
	return fmt.Sprintf("route hop %d does not continue the previous hop's ask asset", e.Index)
}

// ValidateChain checks that ops forms a swappable route starting from
// offer: non-empty, every hop consuming exactly the previous hop's output,
// and not ending in the asset it started from. Pure; no side effects.
func ValidateChain(ops []SwapOperation, offer Info) error {
	if len(ops) == 0 {
		return ErrEmptyRoute
	}
	prev := offer
	for i, op := range ops {
		if !op.OfferInfo().Equal(prev) {
			return DisconnectedHopError{Index: i}
		}
		prev = op.AskInfo()
	}
	if prev.Equal(offer) {
		return ErrRedundantRoute
	}
	return nil
}
