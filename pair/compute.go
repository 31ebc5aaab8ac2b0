// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pair implements the constant-product pool precompile: swap
// pricing, commission and spread accounting, and the singleton manager
// holding every pool's reserves.
package pair

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// Commission rates are parts-per-million of the gross output.
const (
	PPMDenominator uint64 = 1_000_000

	// DefaultCommissionPPM is 0.3%.
	DefaultCommissionPPM uint64 = 3_000

	// MaxCommissionPPM caps pool registration at 10%.
	MaxCommissionPPM uint64 = 100_000
)

var (
	ErrZeroOfferAmount       = errors.New("offer amount must be positive")
	ErrInsufficientLiquidity = errors.New("pool has insufficient liquidity")
	ErrMaxSpreadExceeded     = errors.New("swap spread exceeds caller limit")
	ErrInvalidBeliefPrice    = errors.New("belief price must be positive")
)

// Computation is the priced outcome of one swap against a pool snapshot.
// ReturnAmount + CommissionAmount equals the gross constant-product output;
// SpreadAmount is the price impact versus the marginal price.
type Computation struct {
	ReturnAmount     *big.Int
	SpreadAmount     *big.Int
	CommissionAmount *big.Int
}

var ppmDenom = new(big.Int).SetUint64(PPMDenominator)

// ComputeSwap prices a swap of offerAmount against the (reserveOffer,
// reserveAsk) snapshot. Every division floors so rounding always favors
// the pool.
func ComputeSwap(reserveOffer, reserveAsk, offerAmount *big.Int, commissionPPM uint64) (Computation, error) {
	if offerAmount == nil || offerAmount.Sign() <= 0 {
		return Computation{}, ErrZeroOfferAmount
	}
	if reserveOffer == nil || reserveAsk == nil || reserveOffer.Sign() == 0 || reserveAsk.Sign() == 0 {
		return Computation{}, ErrInsufficientLiquidity
	}

	// gross = reserveAsk - floor(reserveOffer*reserveAsk / (reserveOffer+offerAmount))
	cp := new(big.Int).Mul(reserveOffer, reserveAsk)
	denom := new(big.Int).Add(reserveOffer, offerAmount)
	gross := new(big.Int).Sub(reserveAsk, new(big.Int).Quo(cp, denom))
	// flooring can zero the post-swap reserve when it is tiny; a pool is
	// never drained to nothing by one swap
	if gross.Cmp(reserveAsk) >= 0 {
		return Computation{}, ErrInsufficientLiquidity
	}

	// spread = floor(offerAmount*reserveAsk / reserveOffer) - gross,
	// clamped at zero against floor artifacts.
	spread := new(big.Int).Mul(offerAmount, reserveAsk)
	spread.Quo(spread, reserveOffer)
	spread.Sub(spread, gross)
	if spread.Sign() < 0 {
		spread.SetInt64(0)
	}

	commission := new(big.Int).Mul(gross, new(big.Int).SetUint64(commissionPPM))
	commission.Quo(commission, ppmDenom)

	return Computation{
		ReturnAmount:     new(big.Int).Sub(gross, commission),
		SpreadAmount:     spread,
		CommissionAmount: commission,
	}, nil
}

func ceilQuo(num, denom *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, denom, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// ComputeOfferAmount solves the invariant backwards: the offer amount
// required for the pool to pay out exactly askAmount after commission.
// Divisions round up so the quoted offer never under-delivers. Quoting
// only; the execution path never calls this.
func ComputeOfferAmount(reserveOffer, reserveAsk, askAmount *big.Int, commissionPPM uint64) (*big.Int, Computation, error) {
	if askAmount == nil || askAmount.Sign() <= 0 {
		return nil, Computation{}, ErrZeroOfferAmount
	}
	if reserveOffer == nil || reserveAsk == nil || reserveOffer.Sign() == 0 || reserveAsk.Sign() == 0 {
		return nil, Computation{}, ErrInsufficientLiquidity
	}

	// gross = ceil(ask * 1e6 / (1e6 - commission))
	gross := new(big.Int).Mul(askAmount, ppmDenom)
	gross = ceilQuo(gross, new(big.Int).SetUint64(PPMDenominator-commissionPPM))
	if gross.Cmp(reserveAsk) >= 0 {
		return nil, Computation{}, ErrInsufficientLiquidity
	}

	// offer = ceil(reserveOffer*reserveAsk / (reserveAsk - gross)) - reserveOffer
	cp := new(big.Int).Mul(reserveOffer, reserveAsk)
	offer := ceilQuo(cp, new(big.Int).Sub(reserveAsk, gross))
	offer.Sub(offer, reserveOffer)
	if offer.Sign() <= 0 {
		offer.SetInt64(1)
	}

	spread := new(big.Int).Mul(offer, reserveAsk)
	spread.Quo(spread, reserveOffer)
	spread.Sub(spread, gross)
	if spread.Sign() < 0 {
		spread.SetInt64(0)
	}

	return offer, Computation{
		ReturnAmount:     new(big.Int).Set(askAmount),
		SpreadAmount:     spread,
		CommissionAmount: new(big.Int).Sub(gross, askAmount),
	}, nil
}

// AssertMaxSpread enforces the caller's slippage tolerance for one hop.
// With a belief price the expected output is offer/beliefPrice and the
// realized shortfall counts as spread; otherwise the pool's own spread is
// measured against the gross output. beliefPrice and maxSpread may be nil.
func AssertMaxSpread(beliefPrice, maxSpread *decimal.Decimal, offerAmount *big.Int, comp Computation) error {
	if maxSpread == nil {
		return nil
	}
	gross := new(big.Int).Add(comp.ReturnAmount, comp.CommissionAmount)

	if beliefPrice != nil {
		// belief price arrives as calldata; a zero value would divide by zero
		if beliefPrice.Sign() <= 0 {
			return ErrInvalidBeliefPrice
		}
		expected := decimal.NewFromBigInt(offerAmount, 0).Div(*beliefPrice).Floor()
		if expected.Sign() <= 0 {
			return ErrMaxSpreadExceeded
		}
		shortfall := expected.Sub(decimal.NewFromBigInt(gross, 0))
		if shortfall.Sign() > 0 && shortfall.Div(expected).GreaterThan(*maxSpread) {
			return ErrMaxSpreadExceeded
		}
		return nil
	}

	grossPlusSpread := decimal.NewFromBigInt(new(big.Int).Add(gross, comp.SpreadAmount), 0)
	if grossPlusSpread.Sign() == 0 {
		return nil
	}
	ratio := decimal.NewFromBigInt(comp.SpreadAmount, 0).Div(grossPlusSpread)
	if ratio.GreaterThan(*maxSpread) {
		return ErrMaxSpreadExceeded
	}
	return nil
}
