// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router implements the multi-hop swap orchestrator precompile.
// A route is an ordered chain of swap operations; each pool hop is
// dispatched to the pair contract, which cannot return a value through the
// call boundary, so the router measures each hop's output as the balance
// delta of the ask asset across the dispatch and resumes the route from a
// parked continuation.
package router

import (
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/orbitdex/precompile/asset"
	"github.com/orbitdex/precompile/contract"
)

var (
	ErrUnexpectedContinuation = errors.New("completion signal does not match pending continuation")
	ErrZeroDelta              = errors.New("route hop produced no output")
	ErrSlippageExceeded       = errors.New("final output below minimum receive")
)

// continuation is the route state parked across one pool-hop dispatch.
type continuation struct {
	// remaining holds the hops left after the dispatched one.
	remaining []asset.SwapOperation
	// ask is the dispatched hop's output asset, whose balance delta
	// measures the hop's result.
	ask asset.Info
	// preBalance is the router's ask-asset balance before the dispatch.
	preBalance *big.Int

	minReceive *big.Int
	sender     common.Address
	recipient  common.Address
}

// bridge threads at most one live continuation per transaction. Tokens are
// never reused within a transaction, and a completion signal must name the
// token of the pending continuation exactly.
type bridge struct {
	txHash    common.Hash
	nextToken uint64
	token     contract.DispatchToken
	pending   *continuation

	// result is the settled route's encoded final amount. Dispatch return
	// data is not observable across the call boundary, so the completion
	// path records the result here for the originating execute call.
	result []byte
}

// begin resets the bridge for a new transaction. Any continuation left
// behind by a previous transaction is unreachable garbage: its transaction
// either completed or was rolled back wholesale.
func (b *bridge) begin(txHash common.Hash) {
	b.txHash = txHash
	b.pending = nil
	b.result = nil
}

// park stores the continuation and returns the token the completion signal
// must carry.
func (b *bridge) park(c *continuation) contract.DispatchToken {
	b.nextToken++
	b.token = contract.DispatchToken(b.nextToken)
	b.pending = c
	return b.token
}

// take consumes the pending continuation. A token from another transaction,
// an unknown token, or a second take for the same token all fail.
func (b *bridge) take(txHash common.Hash, token contract.DispatchToken) (*continuation, error) {
	if txHash != b.txHash || b.pending == nil || token != b.token {
		return nil, ErrUnexpectedContinuation
	}
	c := b.pending
	b.pending = nil
	return c, nil
}
