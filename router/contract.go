// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"encoding/binary"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	log "github.com/luxfi/log"

	"github.com/orbitdex/precompile/asset"
	"github.com/orbitdex/precompile/contract"
	"github.com/orbitdex/precompile/pair"
)

// Method selectors for the router precompile
const (
	SelectorExecuteSwapOperations  uint32 = 0x01000000 // executeSwapOperations(ops,minReceive,to,offer)
	SelectorResumeRoute            uint32 = 0x02000000 // resumeRoute(token)
	SelectorSimulateSwapOperations uint32 = 0x03000000 // simulateSwapOperations(ops,offer)
)

// Gas costs
const (
	GasExecuteBase uint64 = 40_000
	GasPerHop      uint64 = 15_000
	GasResume      uint64 = 20_000
	GasSimulate    uint64 = 8_000
)

// eventRouteTopic identifies route-completion logs.
var eventRouteTopic = common.BytesToHash(crypto.Keccak256([]byte("RouteCompleted(address,address,bytes,uint128)")))

// Contract is the router precompile.
type Contract struct {
	addr   common.Address
	pair   *pair.Contract
	bridge bridge
	log    log.Logger
}

// NewContract builds the router bound to its address and the pair
// precompile it routes pool hops through.
func NewContract(addr common.Address, pairContract *pair.Contract, logger log.Logger) *Contract {
	return &Contract{addr: addr, pair: pairContract, log: logger}
}

// Address returns the precompile's fixed address.
func (c *Contract) Address() common.Address {
	return c.addr
}

func (c *Contract) RequiredGas(input []byte) uint64 {
	if len(input) < 4 {
		return GasSimulate
	}
	switch binary.BigEndian.Uint32(input[:4]) {
	case SelectorExecuteSwapOperations:
		hops := uint64(0)
		if len(input) >= 6 {
			hops = uint64(binary.BigEndian.Uint16(input[4:6]))
		}
		return GasExecuteBase + hops*GasPerHop
	case SelectorResumeRoute:
		return GasResume
	default:
		return GasSimulate
	}
}

// Run executes the precompile
func (c *Contract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) (ret []byte, remainingGas uint64, err error) {
	if len(input) < 4 {
		return nil, suppliedGas, pair.ErrInvalidInput
	}

	selector := binary.BigEndian.Uint32(input[:4])
	data := input[4:]

	switch selector {
	case SelectorExecuteSwapOperations:
		return c.runExecute(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorResumeRoute:
		return c.runResume(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorSimulateSwapOperations:
		return c.runSimulate(accessibleState, data, suppliedGas)
	default:
		return nil, suppliedGas, pair.ErrInvalidInput
	}
}

// PackExecuteInput builds the calldata for a route execution. to is
// optional and defaults to the sender.
func PackExecuteInput(ops []asset.SwapOperation, minReceive *big.Int, to *common.Address, offer asset.Asset) ([]byte, error) {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, SelectorExecuteSwapOperations)

	out, err := asset.AppendOperations(out, ops)
	if err != nil {
		return nil, err
	}
	word, err := asset.EncodeAmount(minReceive)
	if err != nil {
		return nil, err
	}
	out = append(out, word[:]...)
	if to != nil {
		out = append(out, 1)
		out = append(out, to.Bytes()...)
	} else {
		out = append(out, 0)
	}
	return asset.AppendAsset(out, offer)
}

// PackResumeInput builds the completion calldata the host delivers after a
// dispatched hop finishes.
func PackResumeInput(token contract.DispatchToken) []byte {
	out := make([]byte, 12)
	binary.BigEndian.PutUint32(out[:4], SelectorResumeRoute)
	binary.BigEndian.PutUint64(out[4:], uint64(token))
	return out
}

// PackSimulateInput builds the calldata for a read-only route quote.
func PackSimulateInput(ops []asset.SwapOperation, offer asset.Asset) ([]byte, error) {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, SelectorSimulateSwapOperations)

	out, err := asset.AppendOperations(out, ops)
	if err != nil {
		return nil, err
	}
	return asset.AppendAsset(out, offer)
}

// routeState is the live position within a route: the asset the router
// currently holds and the hops still to run.
type routeState struct {
	ops        []asset.SwapOperation
	current    asset.Asset
	minReceive *big.Int
	sender     common.Address
	recipient  common.Address
}

func (c *Contract) runExecute(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	hops := uint64(0)
	if len(input) >= 2 {
		hops = uint64(binary.BigEndian.Uint16(input[:2]))
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasExecuteBase+hops*GasPerHop)
	if err != nil {
		return nil, 0, err
	}

	ops, rest, err := asset.DecodeOperations(input)
	if err != nil {
		return nil, remainingGas, err
	}
	minReceive, rest, err := asset.DecodeAmount(rest)
	if err != nil {
		return nil, remainingGas, err
	}
	if len(rest) < 1 {
		return nil, remainingGas, pair.ErrInvalidInput
	}
	recipient := caller
	if rest[0] == 1 {
		if len(rest) < 1+common.AddressLength {
			return nil, remainingGas, pair.ErrInvalidInput
		}
		recipient = common.BytesToAddress(rest[1 : 1+common.AddressLength])
		rest = rest[1+common.AddressLength:]
	} else {
		rest = rest[1:]
	}
	offer, rest, err := asset.DecodeAsset(rest)
	if err != nil {
		return nil, remainingGas, err
	}
	if len(rest) != 0 {
		return nil, remainingGas, pair.ErrInvalidInput
	}

	// cheap-fail: nothing external is touched until the route validates
	if offer.Amount.Sign() <= 0 {
		return nil, remainingGas, pair.ErrZeroOfferAmount
	}
	if err := asset.ValidateChain(ops, offer.Info); err != nil {
		return nil, remainingGas, err
	}

	stateDB := state.GetStateDB()
	c.bridge.begin(stateDB.TxHash())

	// the router custodies the funds while the route is in flight
	if err := contract.MoveAsset(stateDB, state.GetTokenLedger(), offer.Info, caller, c.addr, offer.Amount); err != nil {
		return nil, remainingGas, err
	}

	c.log.Debug("route started",
		"sender", caller.Hex(),
		"hops", len(ops),
		"offer", offer.String(),
	)

	ret, err := c.advance(state, routeState{
		ops:        ops,
		current:    offer,
		minReceive: minReceive,
		sender:     caller,
		recipient:  recipient,
	})
	return ret, remainingGas, err
}

// advance runs hops until the route completes or fails. Native hops resolve
// synchronously. A pool hop parks a continuation keyed to the dispatch
// token and hands control to the host; the host runs the pair call and
// re-enters through resumeRoute before Dispatch returns, so by the time
// Dispatch yields, the rest of the route has already settled and the bridge
// holds its recorded result.
func (c *Contract) advance(state contract.AccessibleState, rs routeState) ([]byte, error) {
	stateDB := state.GetStateDB()

	for len(rs.ops) > 0 {
		op := rs.ops[0]

		if op.Kind == asset.OpNativeSwap {
			out, err := state.GetNativeSwapper().SwapNative(c.addr, op.OfferDenom, rs.current.Amount, op.AskDenom)
			if err != nil {
				return nil, err
			}
			if out == nil || out.Sign() <= 0 {
				return nil, ErrZeroDelta
			}
			rs.current = asset.Asset{Info: asset.NativeInfo(op.AskDenom), Amount: out}
			rs.ops = rs.ops[1:]
			continue
		}

		ask := op.AskInfo()
		preBalance, err := contract.BalanceOf(stateDB, state.GetTokenLedger(), ask, c.addr)
		if err != nil {
			return nil, err
		}

		token := c.bridge.park(&continuation{
			remaining:  rs.ops[1:],
			ask:        ask,
			preBalance: preBalance,
			minReceive: rs.minReceive,
			sender:     rs.sender,
			recipient:  rs.recipient,
		})

		swapInput, err := pair.PackSwapInput(rs.current, ask, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		if err := state.GetDispatcher().Dispatch(c.addr, c.pair.Address(), swapInput, token); err != nil {
			return nil, err
		}
		// the dispatched hop and everything after it ran to completion
		// inside Dispatch; the settled amount was recorded by finish
		return c.bridge.result, nil
	}

	return c.finish(state, rs)
}

func (c *Contract) runResume(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasResume)
	if err != nil {
		return nil, 0, err
	}

	// completion signals arrive as self-calls from the host
	if caller != c.addr {
		return nil, remainingGas, ErrUnexpectedContinuation
	}
	if len(input) != 8 {
		return nil, remainingGas, pair.ErrInvalidInput
	}
	token := contract.DispatchToken(binary.BigEndian.Uint64(input))

	stateDB := state.GetStateDB()
	cont, err := c.bridge.take(stateDB.TxHash(), token)
	if err != nil {
		return nil, remainingGas, err
	}

	postBalance, err := contract.BalanceOf(stateDB, state.GetTokenLedger(), cont.ask, c.addr)
	if err != nil {
		return nil, remainingGas, err
	}
	received := new(big.Int).Sub(postBalance, cont.preBalance)
	if received.Sign() <= 0 {
		return nil, remainingGas, ErrZeroDelta
	}

	ret, err := c.advance(state, routeState{
		ops:        cont.remaining,
		current:    asset.Asset{Info: cont.ask, Amount: received},
		minReceive: cont.minReceive,
		sender:     cont.sender,
		recipient:  cont.recipient,
	})
	return ret, remainingGas, err
}

// finish settles a fully-executed route: enforce the slippage floor and pay
// the final holding to the recipient.
func (c *Contract) finish(state contract.AccessibleState, rs routeState) ([]byte, error) {
	if rs.current.Amount.Cmp(rs.minReceive) < 0 {
		return nil, ErrSlippageExceeded
	}

	stateDB := state.GetStateDB()
	if err := contract.MoveAsset(stateDB, state.GetTokenLedger(), rs.current.Info, c.addr, rs.recipient, rs.current.Amount); err != nil {
		return nil, err
	}

	word, err := asset.EncodeAmount(rs.current.Amount)
	if err != nil {
		return nil, err
	}
	stateDB.AddLog(&ethtypes.Log{
		Address: c.addr,
		Topics: []common.Hash{
			eventRouteTopic,
			common.BytesToHash(rs.sender.Bytes()),
			common.BytesToHash(rs.recipient.Bytes()),
		},
		Data: word[:],
	})

	c.log.Debug("route completed",
		"recipient", rs.recipient.Hex(),
		"final", rs.current.String(),
	)
	c.bridge.result = word[:]
	return word[:], nil
}

func (c *Contract) runSimulate(
	state contract.AccessibleState,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasSimulate)
	if err != nil {
		return nil, 0, err
	}

	ops, rest, err := asset.DecodeOperations(input)
	if err != nil {
		return nil, remainingGas, err
	}
	offer, rest, err := asset.DecodeAsset(rest)
	if err != nil || len(rest) != 0 {
		return nil, remainingGas, pair.ErrInvalidInput
	}

	amount, err := c.SimulateSwapOperations(state, ops, offer)
	if err != nil {
		return nil, remainingGas, err
	}
	word, err := asset.EncodeAmount(amount)
	if err != nil {
		return nil, remainingGas, err
	}
	return word[:], remainingGas, nil
}

// SimulateSwapOperations quotes a whole route against current pool
// snapshots without dispatching anything. Quotes are advisory: reserves
// may move before execution, so only the execution-time pricing binds.
func (c *Contract) SimulateSwapOperations(state contract.AccessibleState, ops []asset.SwapOperation, offer asset.Asset) (*big.Int, error) {
	if offer.Amount == nil || offer.Amount.Sign() <= 0 {
		return nil, pair.ErrZeroOfferAmount
	}
	if err := asset.ValidateChain(ops, offer.Info); err != nil {
		return nil, err
	}

	stateDB := state.GetStateDB()
	current := offer
	for _, op := range ops {
		if op.Kind == asset.OpNativeSwap {
			out, err := state.GetNativeSwapper().SimulateNative(op.OfferDenom, current.Amount, op.AskDenom)
			if err != nil {
				return nil, err
			}
			current = asset.Asset{Info: asset.NativeInfo(op.AskDenom), Amount: out}
			continue
		}
		comp, err := c.pair.Simulate(stateDB, current, op.AskInfo())
		if err != nil {
			return nil, err
		}
		current = asset.Asset{Info: op.AskInfo(), Amount: comp.ReturnAmount}
	}
	return current.Amount, nil
}
