// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	log "github.com/luxfi/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/orbitdex/precompile/asset"
	"github.com/orbitdex/precompile/contract"
)

// MockStateDB implements contract.StateDB for testing
type MockStateDB struct {
	storage   map[common.Address]map[common.Hash]common.Hash
	balances  map[common.Address]*uint256.Int
	multiCoin map[common.Address]map[common.Hash]*big.Int
	logs      []*ethtypes.Log
}

func NewMockStateDB() *MockStateDB {
	return &MockStateDB{
		storage:   make(map[common.Address]map[common.Hash]common.Hash),
		balances:  make(map[common.Address]*uint256.Int),
		multiCoin: make(map[common.Address]map[common.Hash]*big.Int),
		logs:      make([]*ethtypes.Log, 0),
	}
}

func (m *MockStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if m.storage[addr] == nil {
		return common.Hash{}
	}
	return m.storage[addr][key]
}

func (m *MockStateDB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	prev := m.storage[addr][key]
	m.storage[addr][key] = value
	return prev
}

func (m *MockStateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *MockStateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Add(m.balances[addr], amount)
	return *prev
}

func (m *MockStateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Sub(m.balances[addr], amount)
	return *prev
}

func (m *MockStateDB) GetBalanceMultiCoin(addr common.Address, coinID common.Hash) *big.Int {
	if m.multiCoin[addr] == nil || m.multiCoin[addr][coinID] == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(m.multiCoin[addr][coinID])
}

func (m *MockStateDB) AddBalanceMultiCoin(addr common.Address, coinID common.Hash, amount *big.Int) {
	if m.multiCoin[addr] == nil {
		m.multiCoin[addr] = make(map[common.Hash]*big.Int)
	}
	if m.multiCoin[addr][coinID] == nil {
		m.multiCoin[addr][coinID] = big.NewInt(0)
	}
	m.multiCoin[addr][coinID] = new(big.Int).Add(m.multiCoin[addr][coinID], amount)
}

func (m *MockStateDB) SubBalanceMultiCoin(addr common.Address, coinID common.Hash, amount *big.Int) {
	if m.multiCoin[addr] == nil {
		m.multiCoin[addr] = make(map[common.Hash]*big.Int)
	}
	if m.multiCoin[addr][coinID] == nil {
		m.multiCoin[addr][coinID] = big.NewInt(0)
	}
	m.multiCoin[addr][coinID] = new(big.Int).Sub(m.multiCoin[addr][coinID], amount)
}

func (m *MockStateDB) CreateAccount(common.Address) {}
func (m *MockStateDB) Exist(common.Address) bool    { return true }
func (m *MockStateDB) AddLog(l *ethtypes.Log)       { m.logs = append(m.logs, l) }
func (m *MockStateDB) Logs() []*ethtypes.Log        { return m.logs }
func (m *MockStateDB) TxHash() common.Hash          { return common.Hash{} }
func (m *MockStateDB) Snapshot() int                { return 0 }
func (m *MockStateDB) RevertToSnapshot(int)         {}

// MockLedger implements contract.TokenLedger for testing
type MockLedger struct {
	balances map[common.Address]map[common.Address]*big.Int
}

func NewMockLedger() *MockLedger {
	return &MockLedger{balances: make(map[common.Address]map[common.Address]*big.Int)}
}

func (l *MockLedger) Mint(token, holder common.Address, amount *big.Int) {
	if l.balances[token] == nil {
		l.balances[token] = make(map[common.Address]*big.Int)
	}
	if l.balances[token][holder] == nil {
		l.balances[token][holder] = big.NewInt(0)
	}
	l.balances[token][holder] = new(big.Int).Add(l.balances[token][holder], amount)
}

func (l *MockLedger) BalanceOf(token, holder common.Address) (*big.Int, error) {
	if l.balances[token] == nil || l.balances[token][holder] == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(l.balances[token][holder]), nil
}

func (l *MockLedger) Transfer(token, from, to common.Address, amount *big.Int) error {
	bal, _ := l.BalanceOf(token, from)
	if bal.Cmp(amount) < 0 {
		return contract.ErrInsufficientFunds
	}
	l.balances[token][from] = new(big.Int).Sub(l.balances[token][from], amount)
	l.Mint(token, to, amount)
	return nil
}

type mockBlockContext struct{}

func (mockBlockContext) Number() *big.Int  { return big.NewInt(1) }
func (mockBlockContext) Timestamp() uint64 { return 1_700_000_000 }

type mockAccessibleState struct {
	stateDB contract.StateDB
	ledger  contract.TokenLedger
}

func (m *mockAccessibleState) GetStateDB() contract.StateDB             { return m.stateDB }
func (m *mockAccessibleState) GetBlockContext() contract.BlockContext   { return mockBlockContext{} }
func (m *mockAccessibleState) GetTokenLedger() contract.TokenLedger     { return m.ledger }
func (m *mockAccessibleState) GetNativeSwapper() contract.NativeSwapper { return nil }
func (m *mockAccessibleState) GetDispatcher() contract.Dispatcher       { return nil }

var (
	testUSD   = asset.NativeInfo("usd")
	testToken = asset.TokenInfo(common.HexToAddress("0x1100000000000000000000000000000000000011"))
	trader    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

const testGas uint64 = 1_000_000

func newTestPair(t *testing.T) (*Contract, *mockAccessibleState, *MockStateDB, *MockLedger) {
	t.Helper()
	stateDB := NewMockStateDB()
	ledger := NewMockLedger()
	c := NewContract(ContractAddress, NewManager(ContractAddress, log.NewTestLogger(log.InfoLevel)))
	return c, &mockAccessibleState{stateDB: stateDB, ledger: ledger}, stateDB, ledger
}

// fundPool registers a usd/token pool and seeds its reserves.
func fundPool(t *testing.T, c *Contract, env *mockAccessibleState, stateDB *MockStateDB, ledger *MockLedger, reserveNative, reserveToken int64) {
	t.Helper()

	input := make([]byte, 4)
	binary.BigEndian.PutUint32(input, SelectorRegisterPool)
	input, err := asset.AppendInfo(input, testUSD)
	require.NoError(t, err)
	input, err = asset.AppendInfo(input, testToken)
	require.NoError(t, err)
	input = binary.BigEndian.AppendUint64(input, DefaultCommissionPPM)

	id, _, err := c.Run(env, trader, ContractAddress, input, testGas, false)
	require.NoError(t, err)
	require.Len(t, id, 32)

	// liquidity arrives as plain transfers, then reserves are synced
	stateDB.AddBalanceMultiCoin(ContractAddress, testUSD.CoinID(), big.NewInt(reserveNative))
	ledger.Mint(testToken.Token, ContractAddress, big.NewInt(reserveToken))

	sync := make([]byte, 4)
	binary.BigEndian.PutUint32(sync, SelectorSyncReserves)
	sync, err = asset.AppendInfo(sync, testUSD)
	require.NoError(t, err)
	sync, err = asset.AppendInfo(sync, testToken)
	require.NoError(t, err)

	_, _, err = c.Run(env, trader, ContractAddress, sync, testGas, false)
	require.NoError(t, err)
}

func TestRegisterPoolDuplicate(t *testing.T) {
	c, env, stateDB, ledger := newTestPair(t)
	fundPool(t, c, env, stateDB, ledger, 1_000_000, 1_000_000)

	input := make([]byte, 4)
	binary.BigEndian.PutUint32(input, SelectorRegisterPool)
	input, err := asset.AppendInfo(input, testToken) // reversed order, same pool
	require.NoError(t, err)
	input, err = asset.AppendInfo(input, testUSD)
	require.NoError(t, err)
	input = binary.BigEndian.AppendUint64(input, DefaultCommissionPPM)

	_, _, err = c.Run(env, trader, ContractAddress, input, testGas, false)
	require.ErrorIs(t, err, ErrPoolExists)
}

func TestAdminGatesPoolMaintenance(t *testing.T) {
	c, env, _, _ := newTestPair(t)
	stranger := common.HexToAddress("0x00000000000000000000000000000000000000cc")

	// first claim takes the admin slot
	setAdmin := make([]byte, 4)
	binary.BigEndian.PutUint32(setAdmin, SelectorSetAdmin)
	setAdmin = append(setAdmin, trader.Bytes()...)
	_, _, err := c.Run(env, trader, ContractAddress, setAdmin, testGas, false)
	require.NoError(t, err)

	register := make([]byte, 4)
	binary.BigEndian.PutUint32(register, SelectorRegisterPool)
	register, err = asset.AppendInfo(register, testUSD)
	require.NoError(t, err)
	register, err = asset.AppendInfo(register, testToken)
	require.NoError(t, err)
	register = binary.BigEndian.AppendUint64(register, DefaultCommissionPPM)

	// non-admin callers are rejected from every maintenance selector
	_, _, err = c.Run(env, stranger, ContractAddress, register, testGas, false)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = c.Run(env, stranger, ContractAddress, setAdmin, testGas, false)
	require.ErrorIs(t, err, ErrUnauthorized)

	sync := make([]byte, 4)
	binary.BigEndian.PutUint32(sync, SelectorSyncReserves)
	sync, err = asset.AppendInfo(sync, testUSD)
	require.NoError(t, err)
	sync, err = asset.AppendInfo(sync, testToken)
	require.NoError(t, err)

	_, _, err = c.Run(env, stranger, ContractAddress, sync, testGas, false)
	require.ErrorIs(t, err, ErrUnauthorized)

	// the admin still can register
	_, _, err = c.Run(env, trader, ContractAddress, register, testGas, false)
	require.NoError(t, err)
}

func TestSwapMovesFundsAndReserves(t *testing.T) {
	c, env, stateDB, ledger := newTestPair(t)
	fundPool(t, c, env, stateDB, ledger, 1_000_000, 1_000_000)

	stateDB.AddBalanceMultiCoin(trader, testUSD.CoinID(), big.NewInt(1000))

	input, err := PackSwapInput(asset.Asset{Info: testUSD, Amount: big.NewInt(1000)}, testToken, nil, nil, nil)
	require.NoError(t, err)

	ret, _, err := c.Run(env, trader, ContractAddress, input, testGas, false)
	require.NoError(t, err)

	comp, err := UnpackComputation(ret)
	require.NoError(t, err)
	require.Equal(t, int64(997), comp.ReturnAmount.Int64())
	require.Equal(t, int64(3), comp.CommissionAmount.Int64())

	// trader paid 1000 usd, received 997 token
	require.Zero(t, stateDB.GetBalanceMultiCoin(trader, testUSD.CoinID()).Sign())
	got, err := ledger.BalanceOf(testToken.Token, trader)
	require.NoError(t, err)
	require.Equal(t, int64(997), got.Int64())

	// reserves moved: commission stays in the pool
	pool, err := c.Manager().Get(stateDB, testUSD, testToken)
	require.NoError(t, err)
	reserveOffer, reserveAsk, _, ok := pool.Reserves(testUSD)
	require.True(t, ok)
	require.Equal(t, int64(1_001_000), reserveOffer.Int64())
	require.Equal(t, int64(999_003), reserveAsk.Int64())

	// a swap log was emitted
	require.Len(t, stateDB.Logs(), 1)
	require.Equal(t, eventSwapTopic, stateDB.Logs()[0].Topics[0])
}

func TestSwapReadOnlyRejected(t *testing.T) {
	c, env, stateDB, ledger := newTestPair(t)
	fundPool(t, c, env, stateDB, ledger, 1_000_000, 1_000_000)

	input, err := PackSwapInput(asset.Asset{Info: testUSD, Amount: big.NewInt(1000)}, testToken, nil, nil, nil)
	require.NoError(t, err)

	_, _, err = c.Run(env, trader, ContractAddress, input, testGas, true)
	require.ErrorIs(t, err, ErrReadOnlySwap)
}

func TestSwapMaxSpreadRejected(t *testing.T) {
	c, env, stateDB, ledger := newTestPair(t)
	fundPool(t, c, env, stateDB, ledger, 1_000_000, 1_000_000)

	stateDB.AddBalanceMultiCoin(trader, testUSD.CoinID(), big.NewInt(500_000))

	maxSpread := decimalFromString(t, "0.01")
	input, err := PackSwapInput(asset.Asset{Info: testUSD, Amount: big.NewInt(500_000)}, testToken, nil, nil, &maxSpread)
	require.NoError(t, err)

	// a 50% pool trade has far more than 1% spread
	_, _, err = c.Run(env, trader, ContractAddress, input, testGas, false)
	require.ErrorIs(t, err, ErrMaxSpreadExceeded)
}

func TestSwapZeroBeliefPriceRejected(t *testing.T) {
	c, env, stateDB, ledger := newTestPair(t)
	fundPool(t, c, env, stateDB, ledger, 1_000_000, 1_000_000)

	stateDB.AddBalanceMultiCoin(trader, testUSD.CoinID(), big.NewInt(1000))

	belief := decimalFromString(t, "0")
	maxSpread := decimalFromString(t, "0.1")
	input, err := PackSwapInput(asset.Asset{Info: testUSD, Amount: big.NewInt(1000)}, testToken, nil, &belief, &maxSpread)
	require.NoError(t, err)

	_, _, err = c.Run(env, trader, ContractAddress, input, testGas, false)
	require.ErrorIs(t, err, ErrInvalidBeliefPrice)

	// rejected before any funds moved
	require.Equal(t, int64(1000), stateDB.GetBalanceMultiCoin(trader, testUSD.CoinID()).Int64())
}

func TestSimulateDoesNotMutate(t *testing.T) {
	c, env, stateDB, ledger := newTestPair(t)
	fundPool(t, c, env, stateDB, ledger, 1_000_000, 1_000_000)

	input := make([]byte, 4)
	binary.BigEndian.PutUint32(input, SelectorSimulate)
	input, err := asset.AppendAsset(input, asset.Asset{Info: testUSD, Amount: big.NewInt(1000)})
	require.NoError(t, err)
	input, err = asset.AppendInfo(input, testToken)
	require.NoError(t, err)

	ret, _, err := c.Run(env, trader, ContractAddress, input, testGas, true)
	require.NoError(t, err)
	comp, err := UnpackComputation(ret)
	require.NoError(t, err)
	require.Equal(t, int64(997), comp.ReturnAmount.Int64())

	pool, err := c.Manager().Get(stateDB, testUSD, testToken)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), pool.ReserveA.Int64())
	require.Equal(t, int64(1_000_000), pool.ReserveB.Int64())
}

func TestReverseSimulate(t *testing.T) {
	c, env, stateDB, ledger := newTestPair(t)
	fundPool(t, c, env, stateDB, ledger, 1_000_000, 1_000_000)

	input := make([]byte, 4)
	binary.BigEndian.PutUint32(input, SelectorReverseSimulate)
	input, err := asset.AppendAsset(input, asset.Asset{Info: testToken, Amount: big.NewInt(997)})
	require.NoError(t, err)
	input, err = asset.AppendInfo(input, testUSD) // offer side
	require.NoError(t, err)

	ret, _, err := c.Run(env, trader, ContractAddress, input, testGas, true)
	require.NoError(t, err)
	require.Len(t, ret, 64)

	offerAmount := new(big.Int).SetBytes(ret[:16])
	require.Positive(t, offerAmount.Sign())

	// executing the quoted offer delivers at least the desired ask
	comp, err := c.Simulate(stateDB, asset.Asset{Info: testUSD, Amount: offerAmount}, testToken)
	require.NoError(t, err)
	require.GreaterOrEqual(t, comp.ReturnAmount.Cmp(big.NewInt(997)), 0)
}

func TestGetPoolUnknownPair(t *testing.T) {
	c, env, _, _ := newTestPair(t)

	input := make([]byte, 4)
	binary.BigEndian.PutUint32(input, SelectorGetPool)
	input, err := asset.AppendInfo(input, testUSD)
	require.NoError(t, err)
	input, err = asset.AppendInfo(input, testToken)
	require.NoError(t, err)

	_, _, err = c.Run(env, trader, ContractAddress, input, testGas, true)
	require.ErrorIs(t, err, ErrPoolNotFound)
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
