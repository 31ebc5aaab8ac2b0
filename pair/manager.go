// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
	"github.com/zeebo/blake3"

	"github.com/orbitdex/precompile/asset"
	"github.com/orbitdex/precompile/contract"
)

// Storage key prefixes for pool state
var (
	poolMetaPrefix     = []byte("pmta")
	poolAssetAPrefix   = []byte("pasa")
	poolAssetBPrefix   = []byte("pasb")
	poolReserveAPrefix = []byte("prva")
	poolReserveBPrefix = []byte("prvb")
)

var (
	ErrPoolNotFound      = errors.New("pool not found for asset pair")
	ErrPoolExists        = errors.New("pool already registered for asset pair")
	ErrSameAsset         = errors.New("pool assets must differ")
	ErrInvalidCommission = errors.New("commission rate out of range")
	ErrAssetEncoding     = errors.New("asset identity does not fit pool storage")
)

// makeStorageKey creates a storage key from prefix and identifier
func makeStorageKey(prefix []byte, id []byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	h.Write(id)
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

// Manager is the singleton bookkeeper for every pool held by the pair
// precompile. Reserves live in the StateDB so the host's transactional
// rollback covers them; the manager holds no state of its own between
// calls, and the single-threaded execution environment needs no locking.
type Manager struct {
	addr common.Address
	log  log.Logger
}

// NewManager creates a manager persisting under the given precompile
// address.
func NewManager(addr common.Address, logger log.Logger) *Manager {
	return &Manager{addr: addr, log: logger}
}

// packInfo stores an encoded asset identity in one slot: length byte
// followed by the encoding. Identities longer than 31 bytes are rejected
// at registration.
func packInfo(info asset.Info) (common.Hash, error) {
	enc := infoKey(info)
	if enc == nil || len(enc) > 31 {
		return common.Hash{}, ErrAssetEncoding
	}
	var slot common.Hash
	slot[0] = byte(len(enc))
	copy(slot[1:], enc)
	return slot, nil
}

func unpackInfo(slot common.Hash) (asset.Info, error) {
	n := int(slot[0])
	if n == 0 || n > 31 {
		return asset.Info{}, ErrAssetEncoding
	}
	info, rest, err := asset.DecodeInfo(slot[1 : 1+n])
	if err != nil || len(rest) != 0 {
		return asset.Info{}, ErrAssetEncoding
	}
	return info, nil
}

// Register creates a pool for the asset pair with zero reserves.
func (m *Manager) Register(state contract.StateDB, a, b asset.Info, commissionPPM uint64) ([32]byte, error) {
	if a.Equal(b) {
		return [32]byte{}, ErrSameAsset
	}
	if commissionPPM > MaxCommissionPPM {
		return [32]byte{}, ErrInvalidCommission
	}

	first, second := canonicalOrder(a, b)
	id := PoolID(first, second)
	if m.exists(state, id) {
		return [32]byte{}, ErrPoolExists
	}

	slotA, err := packInfo(first)
	if err != nil {
		return [32]byte{}, err
	}
	slotB, err := packInfo(second)
	if err != nil {
		return [32]byte{}, err
	}

	pool := &Pool{
		AssetA:        first,
		AssetB:        second,
		ReserveA:      big.NewInt(0),
		ReserveB:      big.NewInt(0),
		CommissionPPM: commissionPPM,
	}

	state.SetState(m.addr, makeStorageKey(poolAssetAPrefix, id[:]), slotA)
	state.SetState(m.addr, makeStorageKey(poolAssetBPrefix, id[:]), slotB)
	m.writeMeta(state, id, pool.CommissionPPM)
	m.writeReserves(state, id, pool.ReserveA, pool.ReserveB)

	m.log.Info("pool registered",
		"id", common.Hash(id).Hex(),
		"assetA", pool.AssetA.String(),
		"assetB", pool.AssetB.String(),
		"commissionPPM", commissionPPM,
	)
	return id, nil
}

// Get loads the pool for an asset pair.
func (m *Manager) Get(state contract.StateDB, a, b asset.Info) (*Pool, error) {
	return m.load(state, PoolID(a, b))
}

// Put writes the pool's reserves back to state.
func (m *Manager) Put(state contract.StateDB, pool *Pool) {
	id := pool.ID()
	m.writeReserves(state, id, pool.ReserveA, pool.ReserveB)
}

func (m *Manager) exists(state contract.StateDB, id [32]byte) bool {
	meta := state.GetState(m.addr, makeStorageKey(poolMetaPrefix, id[:]))
	return meta[0] != 0
}

func (m *Manager) writeMeta(state contract.StateDB, id [32]byte, commissionPPM uint64) {
	var meta common.Hash
	meta[0] = 1
	binary.BigEndian.PutUint64(meta[24:32], commissionPPM)
	state.SetState(m.addr, makeStorageKey(poolMetaPrefix, id[:]), meta)
}

func (m *Manager) writeReserves(state contract.StateDB, id [32]byte, reserveA, reserveB *big.Int) {
	var slotA, slotB common.Hash
	reserveA.FillBytes(slotA[:])
	reserveB.FillBytes(slotB[:])
	state.SetState(m.addr, makeStorageKey(poolReserveAPrefix, id[:]), slotA)
	state.SetState(m.addr, makeStorageKey(poolReserveBPrefix, id[:]), slotB)
}

func (m *Manager) load(state contract.StateDB, id [32]byte) (*Pool, error) {
	meta := state.GetState(m.addr, makeStorageKey(poolMetaPrefix, id[:]))
	if meta[0] == 0 {
		return nil, ErrPoolNotFound
	}
	commission := binary.BigEndian.Uint64(meta[24:32])

	assetA, err := unpackInfo(state.GetState(m.addr, makeStorageKey(poolAssetAPrefix, id[:])))
	if err != nil {
		return nil, err
	}
	assetB, err := unpackInfo(state.GetState(m.addr, makeStorageKey(poolAssetBPrefix, id[:])))
	if err != nil {
		return nil, err
	}

	reserveA := state.GetState(m.addr, makeStorageKey(poolReserveAPrefix, id[:]))
	reserveB := state.GetState(m.addr, makeStorageKey(poolReserveBPrefix, id[:]))

	return &Pool{
		AssetA:        assetA,
		AssetB:        assetB,
		ReserveA:      new(big.Int).SetBytes(reserveA[:]),
		ReserveB:      new(big.Int).SetBytes(reserveB[:]),
		CommissionPPM: commission,
	}, nil
}
