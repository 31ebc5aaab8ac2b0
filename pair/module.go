// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"fmt"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/orbitdex/precompile/asset"
	"github.com/orbitdex/precompile/contract"
	"github.com/orbitdex/precompile/modules"
	"github.com/orbitdex/precompile/precompileconfig"
)

var (
	_ contract.Configurator                = (*configurator)(nil)
	_ contract.StatefulPrecompiledContract = (*Contract)(nil)
)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "pairSwapConfig"

// ContractAddress is the pair precompile's fixed address.
var ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000009111")

// PairPrecompile is the singleton instance
var PairPrecompile = NewContract(ContractAddress, NewManager(ContractAddress, log.NewTestLogger(log.InfoLevel)))

// Module is the precompile module
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Contract:     PairPrecompile,
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
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}

	if config.Admin != (common.Address{}) {
		writeAdmin(state, ContractAddress, config.Admin)
	}

	// Pools listed in the genesis config are created on activation.
	for _, p := range config.InitialPools {
		commission := p.CommissionPPM
		if commission == 0 {
			commission = DefaultCommissionPPM
		}
		a, err := p.AssetA.Info()
		if err != nil {
			return err
		}
		b, err := p.AssetB.Info()
		if err != nil {
			return err
		}
		if _, err := PairPrecompile.manager.Register(state, a, b, commission); err != nil {
			return err
		}
	}
	return nil
}

// ConfigAsset names an asset in the json config: either a native denom or
// a token contract address.
type ConfigAsset struct {
	Denom string         `json:"denom,omitempty"`
	Token common.Address `json:"token,omitempty"`
}

// Info converts the config form to the runtime asset identity.
func (c ConfigAsset) Info() (asset.Info, error) {
	if c.Denom != "" {
		return asset.NativeInfo(c.Denom), nil
	}
	if c.Token != (common.Address{}) {
		return asset.TokenInfo(c.Token), nil
	}
	return asset.Info{}, fmt.Errorf("config asset needs a denom or a token address")
}

// InitialPool declares a pool to create on activation.
type InitialPool struct {
	AssetA        ConfigAsset `json:"assetA"`
	AssetB        ConfigAsset `json:"assetB"`
	CommissionPPM uint64      `json:"commissionPPM,omitempty"`
}

// Config implements the precompileconfig.Config interface
type Config struct {
	Upgrade      precompileconfig.Upgrade `json:"upgrade,omitempty"`
	Admin        common.Address           `json:"admin,omitempty"`
	InitialPools []InitialPool            `json:"initialPools,omitempty"`
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
	if !c.Upgrade.Equal(&other.Upgrade) {
		return false
	}
	if c.Admin != other.Admin {
		return false
	}
	if len(c.InitialPools) != len(other.InitialPools) {
		return false
	}
	for i := range c.InitialPools {
		if c.InitialPools[i] != other.InitialPools[i] {
			return false
		}
	}
	return true
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	for _, p := range c.InitialPools {
		if p.CommissionPPM > MaxCommissionPPM {
			return ErrInvalidCommission
		}
		if _, err := p.AssetA.Info(); err != nil {
			return err
		}
		if _, err := p.AssetB.Info(); err != nil {
			return err
		}
	}
	return nil
}
