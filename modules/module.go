// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"bytes"

	"github.com/luxfi/geth/common"

	"github.com/orbitdex/precompile/contract"
)

// Module wires a stateful precompile to its address, config key and
// configurator.
type Module struct {
	// ConfigKey is the unique key for this precompile in the chain config.
	ConfigKey string
	// Address is the fixed address the precompile is reachable at.
	Address common.Address
	// Contract is the precompile implementation.
	Contract contract.StatefulPrecompiledContract
	// Configurator applies the precompile's config on activation.
	Configurator contract.Configurator
}

type moduleArray []Module

func (m moduleArray) Len() int      { return len(m) }
func (m moduleArray) Swap(i, j int) { m[i], m[j] = m[j], m[i] }
func (m moduleArray) Less(i, j int) bool {
	return bytes.Compare(m[i].Address.Bytes(), m[j].Address.Bytes()) < 0
}
