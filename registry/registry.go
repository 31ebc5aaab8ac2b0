// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry catalogs the swap precompile addresses and which chains
// expose them. The address scheme uses trailing-significant 20-byte
// addresses: the last two bytes are the precompile number within the 0x91xx
// swap family, clear of the standard EVM precompiles at 0x01-0x11.
package registry

import "github.com/luxfi/geth/common"

const (
	// Swap execution family (0x9100-0x91FF)
	RouterAddress = "0x0000000000000000000000000000000000009110" // multi-hop swap router
	PairAddress   = "0x0000000000000000000000000000000000009111" // constant-product pairs

	// Market data family (0x9200-0x92FF)
	OracleAddress = "0x0000000000000000000000000000000000009210" // price oracle (external collaborator)
)

// PrecompileInfo contains metadata about a precompile
type PrecompileInfo struct {
	Address     string
	Name        string
	Description string
	GasBase     uint64
	Chains      []string
}

// AllPrecompiles lists all swap precompiles with their metadata
var AllPrecompiles = []PrecompileInfo{
	{RouterAddress, "SWAP_ROUTER", "Multi-hop swap routing with continuation bridging", 40000, []string{"C", "Zoo"}},
	{PairAddress, "SWAP_PAIR", "Constant-product pool pricing and execution", 30000, []string{"C", "Zoo"}},
	{OracleAddress, "SWAP_ORACLE", "Pool price oracle aggregation", 15000, []string{"C", "Zoo"}},
}

// ChainPrecompiles maps a chain letter to the precompiles it enables.
var ChainPrecompiles = map[string][]string{
	// C-Chain (main EVM)
	"C": {RouterAddress, PairAddress, OracleAddress},

	// Zoo - DEX focused, same addresses
	"Zoo": {RouterAddress, PairAddress, OracleAddress},

	// X-Chain trades through its own UTXO machinery; only quoting is exposed
	"X": {PairAddress},
}

// GetPrecompileAddress returns the address for a precompile by name
func GetPrecompileAddress(name string) common.Address {
	for _, p := range AllPrecompiles {
		if p.Name == name {
			return common.HexToAddress(p.Address)
		}
	}
	return common.Address{}
}

// GetChainPrecompiles returns all precompile addresses for a chain
func GetChainPrecompiles(chainLetter string) []common.Address {
	addrs, ok := ChainPrecompiles[chainLetter]
	if !ok {
		return nil
	}

	result := make([]common.Address, len(addrs))
	for i, addr := range addrs {
		result[i] = common.HexToAddress(addr)
	}
	return result
}

// IsPrecompileEnabled checks if a precompile is enabled for a chain
func IsPrecompileEnabled(chainLetter string, precompileAddr common.Address) bool {
	for _, addr := range ChainPrecompiles[chainLetter] {
		if common.HexToAddress(addr) == precompileAddr {
			return true
		}
	}
	return false
}
