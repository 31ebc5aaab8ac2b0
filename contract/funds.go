// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/orbitdex/precompile/asset"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// BalanceOf reads holder's balance of an asset: multi-coin state for
// native denoms, the external token ledger for contract tokens.
func BalanceOf(state StateDB, ledger TokenLedger, info asset.Info, holder common.Address) (*big.Int, error) {
	if info.IsNative() {
		return state.GetBalanceMultiCoin(holder, info.CoinID()), nil
	}
	return ledger.BalanceOf(info.Token, holder)
}

// MoveAsset moves amount of an asset from one account to another. Token
// moves require a prior authorization recorded in the ledger.
func MoveAsset(state StateDB, ledger TokenLedger, info asset.Info, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInsufficientFunds
	}
	if amount.Sign() == 0 {
		return nil
	}
	if info.IsNative() {
		coinID := info.CoinID()
		if state.GetBalanceMultiCoin(from, coinID).Cmp(amount) < 0 {
			return ErrInsufficientFunds
		}
		state.SubBalanceMultiCoin(from, coinID, amount)
		state.AddBalanceMultiCoin(to, coinID, amount)
		return nil
	}
	return ledger.Transfer(info.Token, from, to, amount)
}
