// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"fmt"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/orbitdex/precompile/contract"
	"github.com/orbitdex/precompile/modules"
	"github.com/orbitdex/precompile/pair"
	"github.com/orbitdex/precompile/precompileconfig"
)

var (
	_ contract.Configurator                = (*configurator)(nil)
	_ contract.StatefulPrecompiledContract = (*Contract)(nil)
)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "swapRouterConfig"

// ContractAddress is the router precompile's fixed address.
var ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000009110")

// RouterPrecompile is the singleton instance, routing pool hops through the
// pair precompile.
var RouterPrecompile = NewContract(ContractAddress, pair.PairPrecompile, log.NewTestLogger(log.InfoLevel))

// Module is the precompile module
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Contract:     RouterPrecompile,
	Configurator: &configurator{},
}

type configurator struct{}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

func (*configurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	if _, ok := cfg.(*Config); !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}
	return nil
}

// Config implements the precompileconfig.Config interface
type Config struct {
	Upgrade precompileconfig.Upgrade `json:"upgrade,omitempty"`
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	return c.Upgrade.Equal(&other.Upgrade)
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	return nil
}
