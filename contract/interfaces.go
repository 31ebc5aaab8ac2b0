// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the interfaces between stateful precompiled
// contracts and the hosting execution environment. The environment is
// deterministic, single-threaded and transactional: a transaction's whole
// instruction tree either commits or is rolled back as one unit.
package contract

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/orbitdex/precompile/precompileconfig"
)

// StateDB is the subset of EVM state access needed by the swap precompiles.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash

	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int
	SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int

	// Multi-coin balances hold native denominations other than the gas
	// currency, keyed by coin ID.
	GetBalanceMultiCoin(addr common.Address, coinID common.Hash) *big.Int
	AddBalanceMultiCoin(addr common.Address, coinID common.Hash, amount *big.Int)
	SubBalanceMultiCoin(addr common.Address, coinID common.Hash, amount *big.Int)

	CreateAccount(addr common.Address)
	Exist(addr common.Address) bool

	AddLog(log *ethtypes.Log)
	Logs() []*ethtypes.Log

	Snapshot() int
	RevertToSnapshot(int)
	TxHash() common.Hash
}

// TokenLedger is the external fungible-token collaborator. Balance and
// allowance bookkeeping for contract-issued tokens lives outside this
// module; the precompiles only read balances and move pre-authorized funds.
type TokenLedger interface {
	BalanceOf(token common.Address, holder common.Address) (*big.Int, error)
	Transfer(token common.Address, from common.Address, to common.Address, amount *big.Int) error
}

// NativeSwapper is the platform's built-in native-currency swap primitive.
// Unlike a cross-contract call it completes synchronously: the swapped
// amount is known to the caller in the same call frame, or the whole
// transaction fails atomically.
type NativeSwapper interface {
	SwapNative(trader common.Address, offerDenom string, amount *big.Int, askDenom string) (*big.Int, error)

	// SimulateNative quotes a native swap without moving funds.
	SimulateNative(offerDenom string, amount *big.Int, askDenom string) (*big.Int, error)
}

// DispatchToken identifies a pending sub-operation across the suspension
// boundary of a cross-contract dispatch.
type DispatchToken uint64

// Dispatcher issues sub-operations against other contracts. The callee and
// everything it transitively invokes runs to completion before Dispatch
// returns, but its return data is never observable by the dispatching
// contract. After the callee completes, the host delivers the token back
// through the dispatching contract's completion entry point; the dispatcher
// must infer any result from observed state (typically a balance change).
// A callee failure aborts the entire transaction.
type Dispatcher interface {
	Dispatch(from common.Address, to common.Address, input []byte, token DispatchToken) error
}

// BlockContext provides block information to precompiles.
type BlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// ConfigurationBlockContext is the block context available during
// precompile (de)activation.
type ConfigurationBlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// AccessibleState bundles everything a precompile may touch during Run.
type AccessibleState interface {
	GetStateDB() StateDB
	GetBlockContext() BlockContext
	GetTokenLedger() TokenLedger
	GetNativeSwapper() NativeSwapper
	GetDispatcher() Dispatcher
}

// StatefulPrecompiledContract is the interface for executing a precompiled
// contract against state.
type StatefulPrecompiledContract interface {
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)

	RequiredGas(input []byte) uint64
}

// Configurator applies a precompile config to state on activation.
type Configurator interface {
	MakeConfig() precompileconfig.Config
	Configure(
		chainConfig precompileconfig.ChainConfig,
		cfg precompileconfig.Config,
		state StateDB,
		blockContext ConfigurationBlockContext,
	) error
}
