// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/shopspring/decimal"

	"github.com/orbitdex/precompile/asset"
	"github.com/orbitdex/precompile/contract"
)

// Method selectors for the pair precompile
const (
	SelectorRegisterPool    uint32 = 0x01000000 // registerPool(Info,Info,uint64)
	SelectorSwap            uint32 = 0x02000000 // swap(Asset,Info,opts)
	SelectorSimulate        uint32 = 0x03000000 // simulate(Asset,Info)
	SelectorReverseSimulate uint32 = 0x04000000 // reverseSimulate(Asset,Info)
	SelectorGetPool         uint32 = 0x05000000 // getPool(Info,Info)
	SelectorSyncReserves    uint32 = 0x06000000 // syncReserves(Info,Info)
	SelectorSetAdmin        uint32 = 0x07000000 // setAdmin(address)
)

// Gas costs
const (
	GasRegisterPool uint64 = 40_000
	GasSwap         uint64 = 30_000
	GasSimulate     uint64 = 5_000
	GasGetPool      uint64 = 2_000
	GasSyncReserves uint64 = 20_000
	GasSetAdmin     uint64 = 5_000
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrReadOnlySwap = errors.New("cannot swap in read-only mode")
	ErrNotPoolAsset = errors.New("offer asset not in pool")
	ErrDustOutput   = errors.New("swap output rounds to zero")
	ErrUnauthorized = errors.New("caller is not the pool admin")
)

// adminSlotKey holds the address allowed to register pools and sync
// reserves.
var adminSlotKey = makeStorageKey([]byte("admn"), nil)

// eventSwapTopic identifies swap logs emitted by the pair precompile.
var eventSwapTopic = common.BytesToHash(crypto.Keccak256([]byte("Swap(address,address,bytes,bytes,uint128,uint128,uint128)")))

// Contract is the singleton pair precompile.
type Contract struct {
	addr    common.Address
	manager *Manager
}

// NewContract builds the pair precompile bound to its address.
func NewContract(addr common.Address, manager *Manager) *Contract {
	return &Contract{addr: addr, manager: manager}
}

// Manager exposes the pool bookkeeper for in-process callers (the router's
// simulation path reads pool snapshots directly).
func (c *Contract) Manager() *Manager {
	return c.manager
}

// Address returns the precompile's fixed address.
func (c *Contract) Address() common.Address {
	return c.addr
}

func (c *Contract) RequiredGas(input []byte) uint64 {
	if len(input) < 4 {
		return GasGetPool
	}
	switch binary.BigEndian.Uint32(input[:4]) {
	case SelectorRegisterPool:
		return GasRegisterPool
	case SelectorSwap:
		return GasSwap
	case SelectorSimulate, SelectorReverseSimulate:
		return GasSimulate
	case SelectorSyncReserves:
		return GasSyncReserves
	case SelectorSetAdmin:
		return GasSetAdmin
	default:
		return GasGetPool
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
		return nil, suppliedGas, ErrInvalidInput
	}

	selector := binary.BigEndian.Uint32(input[:4])
	data := input[4:]

	switch selector {
	case SelectorRegisterPool:
		return c.runRegisterPool(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorSwap:
		return c.runSwap(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorSimulate:
		return c.runSimulate(accessibleState, data, suppliedGas)
	case SelectorReverseSimulate:
		return c.runReverseSimulate(accessibleState, data, suppliedGas)
	case SelectorGetPool:
		return c.runGetPool(accessibleState, data, suppliedGas)
	case SelectorSyncReserves:
		return c.runSyncReserves(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorSetAdmin:
		return c.runSetAdmin(accessibleState, caller, data, suppliedGas, readOnly)
	default:
		return nil, suppliedGas, fmt.Errorf("unknown method selector: %x", selector)
	}
}

// isAdmin reports whether caller may use the pool maintenance selectors.
// Until the genesis config or a first setAdmin claims the slot, the
// registry is open.
func (c *Contract) isAdmin(state contract.StateDB, caller common.Address) bool {
	slot := state.GetState(c.addr, adminSlotKey)
	admin := common.BytesToAddress(slot[12:])
	if admin == (common.Address{}) {
		return true
	}
	return caller == admin
}

func writeAdmin(state contract.StateDB, addr, admin common.Address) {
	var slot common.Hash
	copy(slot[12:], admin.Bytes())
	state.SetState(addr, adminSlotKey, slot)
}

func (c *Contract) runSetAdmin(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasSetAdmin)
	if err != nil {
		return nil, 0, err
	}

	stateDB := state.GetStateDB()
	if !c.isAdmin(stateDB, caller) {
		return nil, remainingGas, ErrUnauthorized
	}
	if len(input) != common.AddressLength {
		return nil, remainingGas, ErrInvalidInput
	}
	newAdmin := common.BytesToAddress(input)
	if newAdmin == (common.Address{}) {
		return nil, remainingGas, ErrInvalidInput
	}

	writeAdmin(stateDB, c.addr, newAdmin)
	return nil, remainingGas, nil
}

func (c *Contract) runRegisterPool(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasRegisterPool)
	if err != nil {
		return nil, 0, err
	}
	if !c.isAdmin(state.GetStateDB(), caller) {
		return nil, remainingGas, ErrUnauthorized
	}

	infoA, rest, err := asset.DecodeInfo(input)
	if err != nil {
		return nil, remainingGas, err
	}
	infoB, rest, err := asset.DecodeInfo(rest)
	if err != nil {
		return nil, remainingGas, err
	}
	if len(rest) != 8 {
		return nil, remainingGas, ErrInvalidInput
	}
	commissionPPM := binary.BigEndian.Uint64(rest)

	id, err := c.manager.Register(state.GetStateDB(), infoA, infoB, commissionPPM)
	if err != nil {
		return nil, remainingGas, err
	}
	return id[:], remainingGas, nil
}

// PackSwapInput builds the full calldata for a swap dispatch. to, belief
// and maxSpread are optional.
func PackSwapInput(offer asset.Asset, ask asset.Info, to *common.Address, belief, maxSpread *decimal.Decimal) ([]byte, error) {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, SelectorSwap)

	out, err := asset.AppendAsset(out, offer)
	if err != nil {
		return nil, err
	}
	out, err = asset.AppendInfo(out, ask)
	if err != nil {
		return nil, err
	}

	if to != nil {
		out = append(out, 1)
		out = append(out, to.Bytes()...)
	} else {
		out = append(out, 0)
	}
	out, err = appendOptDecimal(out, belief)
	if err != nil {
		return nil, err
	}
	return appendOptDecimal(out, maxSpread)
}

func appendOptDecimal(dst []byte, d *decimal.Decimal) ([]byte, error) {
	if d == nil {
		return append(dst, 0), nil
	}
	s := d.String()
	if len(s) > 255 {
		return nil, ErrInvalidInput
	}
	dst = append(dst, 1, byte(len(s)))
	return append(dst, s...), nil
}

func decodeOptDecimal(b []byte) (*decimal.Decimal, []byte, error) {
	if len(b) < 1 {
		return nil, nil, ErrInvalidInput
	}
	if b[0] == 0 {
		return nil, b[1:], nil
	}
	if len(b) < 2 {
		return nil, nil, ErrInvalidInput
	}
	n := int(b[1])
	if len(b) < 2+n {
		return nil, nil, ErrInvalidInput
	}
	d, err := decimal.NewFromString(string(b[2 : 2+n]))
	if err != nil {
		return nil, nil, err
	}
	return &d, b[2+n:], nil
}

func unpackSwapInput(input []byte) (offer asset.Asset, ask asset.Info, to *common.Address, belief, maxSpread *decimal.Decimal, err error) {
	offer, rest, err := asset.DecodeAsset(input)
	if err != nil {
		return
	}
	ask, rest, err = asset.DecodeInfo(rest)
	if err != nil {
		return
	}
	if len(rest) < 1 {
		err = ErrInvalidInput
		return
	}
	if rest[0] == 1 {
		if len(rest) < 1+common.AddressLength {
			err = ErrInvalidInput
			return
		}
		recipient := common.BytesToAddress(rest[1 : 1+common.AddressLength])
		to = &recipient
		rest = rest[1+common.AddressLength:]
	} else {
		rest = rest[1:]
	}
	belief, rest, err = decodeOptDecimal(rest)
	if err != nil {
		return
	}
	maxSpread, rest, err = decodeOptDecimal(rest)
	if err != nil {
		return
	}
	if len(rest) != 0 {
		err = ErrInvalidInput
	}
	return
}

// packComputation encodes the three u128 amounts of a swap result.
func packComputation(comp Computation) ([]byte, error) {
	out := make([]byte, 0, 48)
	for _, v := range []*big.Int{comp.ReturnAmount, comp.SpreadAmount, comp.CommissionAmount} {
		word, err := asset.EncodeAmount(v)
		if err != nil {
			return nil, err
		}
		out = append(out, word[:]...)
	}
	return out, nil
}

// UnpackComputation decodes a packComputation result.
func UnpackComputation(b []byte) (Computation, error) {
	if len(b) != 48 {
		return Computation{}, ErrInvalidInput
	}
	return Computation{
		ReturnAmount:     new(big.Int).SetBytes(b[0:16]),
		SpreadAmount:     new(big.Int).SetBytes(b[16:32]),
		CommissionAmount: new(big.Int).SetBytes(b[32:48]),
	}, nil
}

func (c *Contract) runSwap(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, ErrReadOnlySwap
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasSwap)
	if err != nil {
		return nil, 0, err
	}

	offer, ask, to, belief, maxSpread, err := unpackSwapInput(input)
	if err != nil {
		return nil, remainingGas, err
	}

	stateDB := state.GetStateDB()
	ledger := state.GetTokenLedger()

	pool, err := c.manager.Get(stateDB, offer.Info, ask)
	if err != nil {
		return nil, remainingGas, err
	}
	reserveOffer, reserveAsk, askInfo, ok := pool.Reserves(offer.Info)
	if !ok {
		return nil, remainingGas, ErrNotPoolAsset
	}

	comp, err := ComputeSwap(reserveOffer, reserveAsk, offer.Amount, pool.CommissionPPM)
	if err != nil {
		return nil, remainingGas, err
	}
	if comp.ReturnAmount.Sign() <= 0 {
		return nil, remainingGas, ErrDustOutput
	}
	if err := AssertMaxSpread(belief, maxSpread, offer.Amount, comp); err != nil {
		return nil, remainingGas, err
	}

	recipient := caller
	if to != nil {
		recipient = *to
	}

	// pull the offer, pay out the return, commit the reserve move
	if err := contract.MoveAsset(stateDB, ledger, offer.Info, caller, c.addr, offer.Amount); err != nil {
		return nil, remainingGas, err
	}
	if err := contract.MoveAsset(stateDB, ledger, askInfo, c.addr, recipient, comp.ReturnAmount); err != nil {
		return nil, remainingGas, err
	}
	pool.CommitSwap(offer.Info, offer.Amount, comp.ReturnAmount)
	c.manager.Put(stateDB, pool)

	ret, err := packComputation(comp)
	if err != nil {
		return nil, remainingGas, err
	}

	logData := make([]byte, 0, 64)
	amt, _ := asset.EncodeAmount(offer.Amount)
	logData = append(logData, amt[:]...)
	logData = append(logData, ret...)
	stateDB.AddLog(&ethtypes.Log{
		Address: c.addr,
		Topics: []common.Hash{
			eventSwapTopic,
			common.BytesToHash(caller.Bytes()),
			common.BytesToHash(recipient.Bytes()),
		},
		Data: logData,
	})

	return ret, remainingGas, nil
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

	offer, rest, err := asset.DecodeAsset(input)
	if err != nil {
		return nil, remainingGas, err
	}
	ask, rest, err := asset.DecodeInfo(rest)
	if err != nil || len(rest) != 0 {
		return nil, remainingGas, ErrInvalidInput
	}

	comp, err := c.Simulate(state.GetStateDB(), offer, ask)
	if err != nil {
		return nil, remainingGas, err
	}
	ret, err := packComputation(comp)
	return ret, remainingGas, err
}

// Simulate prices a swap against the current pool snapshot without moving
// funds or reserves.
func (c *Contract) Simulate(stateDB contract.StateDB, offer asset.Asset, ask asset.Info) (Computation, error) {
	pool, err := c.manager.Get(stateDB, offer.Info, ask)
	if err != nil {
		return Computation{}, err
	}
	reserveOffer, reserveAsk, _, ok := pool.Reserves(offer.Info)
	if !ok {
		return Computation{}, ErrNotPoolAsset
	}
	return ComputeSwap(reserveOffer, reserveAsk, offer.Amount, pool.CommissionPPM)
}

func (c *Contract) runReverseSimulate(
	state contract.AccessibleState,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasSimulate)
	if err != nil {
		return nil, 0, err
	}

	// the asset carries the desired ask amount; the trailing info names
	// the offer side
	ask, rest, err := asset.DecodeAsset(input)
	if err != nil {
		return nil, remainingGas, err
	}
	offerInfo, rest, err := asset.DecodeInfo(rest)
	if err != nil || len(rest) != 0 {
		return nil, remainingGas, ErrInvalidInput
	}

	pool, err := c.manager.Get(state.GetStateDB(), ask.Info, offerInfo)
	if err != nil {
		return nil, remainingGas, err
	}
	reserveOffer, reserveAsk, _, ok := pool.Reserves(offerInfo)
	if !ok {
		return nil, remainingGas, ErrNotPoolAsset
	}

	offerAmount, comp, err := ComputeOfferAmount(reserveOffer, reserveAsk, ask.Amount, pool.CommissionPPM)
	if err != nil {
		return nil, remainingGas, err
	}

	word, err := asset.EncodeAmount(offerAmount)
	if err != nil {
		return nil, remainingGas, err
	}
	packed, err := packComputation(comp)
	if err != nil {
		return nil, remainingGas, err
	}
	return append(word[:], packed...), remainingGas, nil
}

func (c *Contract) runGetPool(
	state contract.AccessibleState,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasGetPool)
	if err != nil {
		return nil, 0, err
	}

	infoA, rest, err := asset.DecodeInfo(input)
	if err != nil {
		return nil, remainingGas, err
	}
	infoB, rest, err := asset.DecodeInfo(rest)
	if err != nil || len(rest) != 0 {
		return nil, remainingGas, ErrInvalidInput
	}

	pool, err := c.manager.Get(state.GetStateDB(), infoA, infoB)
	if err != nil {
		return nil, remainingGas, err
	}

	out := make([]byte, 0, 128)
	out, err = asset.AppendInfo(out, pool.AssetA)
	if err != nil {
		return nil, remainingGas, err
	}
	out, err = asset.AppendInfo(out, pool.AssetB)
	if err != nil {
		return nil, remainingGas, err
	}
	ra, err := asset.EncodeAmount(pool.ReserveA)
	if err != nil {
		return nil, remainingGas, err
	}
	rb, err := asset.EncodeAmount(pool.ReserveB)
	if err != nil {
		return nil, remainingGas, err
	}
	out = append(out, ra[:]...)
	out = append(out, rb[:]...)
	out = binary.BigEndian.AppendUint64(out, pool.CommissionPPM)
	return out, remainingGas, nil
}

// runSyncReserves trues the recorded reserves up to the pair's actual
// holdings after an external liquidity transfer.
func (c *Contract) runSyncReserves(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasSyncReserves)
	if err != nil {
		return nil, 0, err
	}
	if !c.isAdmin(state.GetStateDB(), caller) {
		return nil, remainingGas, ErrUnauthorized
	}

	infoA, rest, err := asset.DecodeInfo(input)
	if err != nil {
		return nil, remainingGas, err
	}
	infoB, rest, err := asset.DecodeInfo(rest)
	if err != nil || len(rest) != 0 {
		return nil, remainingGas, ErrInvalidInput
	}

	stateDB := state.GetStateDB()
	ledger := state.GetTokenLedger()

	pool, err := c.manager.Get(stateDB, infoA, infoB)
	if err != nil {
		return nil, remainingGas, err
	}

	balanceA, err := contract.BalanceOf(stateDB, ledger, pool.AssetA, c.addr)
	if err != nil {
		return nil, remainingGas, err
	}
	balanceB, err := contract.BalanceOf(stateDB, ledger, pool.AssetB, c.addr)
	if err != nil {
		return nil, remainingGas, err
	}

	pool.ReserveA = balanceA
	pool.ReserveB = balanceB
	c.manager.Put(stateDB, pool)
	return nil, remainingGas, nil
}
