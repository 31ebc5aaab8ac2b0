// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompileconfig defines the configuration interface that every
// stateful precompile exposes to the chain's upgrade machinery.
package precompileconfig

// Config is implemented by each precompile's activation config.
type Config interface {
	// Key returns the unique key for this precompile in the chain config.
	Key() string
	// Timestamp returns the activation time, or nil if never activated.
	Timestamp() *uint64
	// IsDisabled reports whether this upgrade deactivates the precompile.
	IsDisabled() bool
	// Equal reports deep equality with another config of the same key.
	Equal(Config) bool
	// Verify checks the config is well formed.
	Verify(ChainConfig) error
}

// ChainConfig gives a precompile read access to chain-level parameters
// during Verify and Configure.
type ChainConfig interface {
	IsTimestampActive(key string, timestamp uint64) bool
}

// Upgrade is embedded in every precompile config to carry the shared
// activation fields.
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp,omitempty"`
	Disable        bool    `json:"disable,omitempty"`
}

func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	switch {
	case u.BlockTimestamp == nil && other.BlockTimestamp == nil:
		return true
	case u.BlockTimestamp == nil || other.BlockTimestamp == nil:
		return false
	default:
		return *u.BlockTimestamp == *other.BlockTimestamp
	}
}
