// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asset

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"
)

// Wire format, all integers big-endian:
//
//	Info       = kind:1 || (denomLen:1 denom:N | token:20)
//	Amount     = u128:16
//	Asset      = Info || Amount
//	Operation  = kind:1 || (offerDenomLen:1 offerDenom offerDenomLen:1 askDenom | Info Info)
//	Operations = count:2 || Operation*
var (
	ErrTruncatedInput = errors.New("truncated input")
	ErrBadVariant     = errors.New("unknown variant tag")
	ErrDenomLength    = errors.New("denom length out of range")
	ErrAmountRange    = errors.New("amount must fit in 128 bits")
)

// EncodeAmount writes a non-negative amount into a 16-byte big-endian word.
func EncodeAmount(a *big.Int) ([16]byte, error) {
	var out [16]byte
	if a == nil || a.Sign() < 0 || a.BitLen() > 128 {
		return out, ErrAmountRange
	}
	a.FillBytes(out[:])
	return out, nil
}

// DecodeAmount reads a 16-byte amount, returning the remaining input.
func DecodeAmount(b []byte) (*big.Int, []byte, error) {
	if len(b) < 16 {
		return nil, nil, ErrTruncatedInput
	}
	return new(big.Int).SetBytes(b[:16]), b[16:], nil
}

func appendDenom(dst []byte, denom string) ([]byte, error) {
	if len(denom) == 0 || len(denom) > 255 {
		return nil, ErrDenomLength
	}
	dst = append(dst, byte(len(denom)))
	return append(dst, denom...), nil
}

func decodeDenom(b []byte) (string, []byte, error) {
	if len(b) < 1 {
		return "", nil, ErrTruncatedInput
	}
	n := int(b[0])
	if n == 0 {
		return "", nil, ErrDenomLength
	}
	if len(b) < 1+n {
		return "", nil, ErrTruncatedInput
	}
	return string(b[1 : 1+n]), b[1+n:], nil
}

// AppendInfo encodes info onto dst.
func AppendInfo(dst []byte, info Info) ([]byte, error) {
	switch info.Kind {
	case KindNative:
		dst = append(dst, byte(KindNative))
		return appendDenom(dst, info.Denom)
	case KindToken:
		dst = append(dst, byte(KindToken))
		return append(dst, info.Token.Bytes()...), nil
	default:
		return nil, ErrBadVariant
	}
}

// DecodeInfo reads an Info, returning the remaining input.
func DecodeInfo(b []byte) (Info, []byte, error) {
	if len(b) < 1 {
		return Info{}, nil, ErrTruncatedInput
	}
	switch InfoKind(b[0]) {
	case KindNative:
		denom, rest, err := decodeDenom(b[1:])
		if err != nil {
			return Info{}, nil, err
		}
		return NativeInfo(denom), rest, nil
	case KindToken:
		if len(b) < 1+common.AddressLength {
			return Info{}, nil, ErrTruncatedInput
		}
		return TokenInfo(common.BytesToAddress(b[1 : 1+common.AddressLength])), b[1+common.AddressLength:], nil
	default:
		return Info{}, nil, ErrBadVariant
	}
}

// AppendAsset encodes an asset onto dst.
func AppendAsset(dst []byte, a Asset) ([]byte, error) {
	dst, err := AppendInfo(dst, a.Info)
	if err != nil {
		return nil, err
	}
	amt, err := EncodeAmount(a.Amount)
	if err != nil {
		return nil, err
	}
	return append(dst, amt[:]...), nil
}

// DecodeAsset reads an Asset, returning the remaining input.
func DecodeAsset(b []byte) (Asset, []byte, error) {
	info, rest, err := DecodeInfo(b)
	if err != nil {
		return Asset{}, nil, err
	}
	amount, rest, err := DecodeAmount(rest)
	if err != nil {
		return Asset{}, nil, err
	}
	return Asset{Info: info, Amount: amount}, rest, nil
}

// AppendOperation encodes one hop onto dst.
func AppendOperation(dst []byte, op SwapOperation) ([]byte, error) {
	switch op.Kind {
	case OpNativeSwap:
		dst = append(dst, byte(OpNativeSwap))
		dst, err := appendDenom(dst, op.OfferDenom)
		if err != nil {
			return nil, err
		}
		return appendDenom(dst, op.AskDenom)
	case OpPoolSwap:
		dst = append(dst, byte(OpPoolSwap))
		dst, err := AppendInfo(dst, op.Offer)
		if err != nil {
			return nil, err
		}
		return AppendInfo(dst, op.Ask)
	default:
		return nil, ErrBadVariant
	}
}

// DecodeOperation reads one hop, returning the remaining input.
func DecodeOperation(b []byte) (SwapOperation, []byte, error) {
	if len(b) < 1 {
		return SwapOperation{}, nil, ErrTruncatedInput
	}
	switch OpKind(b[0]) {
	case OpNativeSwap:
		offerDenom, rest, err := decodeDenom(b[1:])
		if err != nil {
			return SwapOperation{}, nil, err
		}
		askDenom, rest, err := decodeDenom(rest)
		if err != nil {
			return SwapOperation{}, nil, err
		}
		return NativeSwapOp(offerDenom, askDenom), rest, nil
	case OpPoolSwap:
		offer, rest, err := DecodeInfo(b[1:])
		if err != nil {
			return SwapOperation{}, nil, err
		}
		ask, rest, err := DecodeInfo(rest)
		if err != nil {
			return SwapOperation{}, nil, err
		}
		return PoolSwapOp(offer, ask), rest, nil
	default:
		return SwapOperation{}, nil, ErrBadVariant
	}
}

// AppendOperations encodes a route onto dst.
func AppendOperations(dst []byte, ops []SwapOperation) ([]byte, error) {
	if len(ops) > 0xffff {
		return nil, ErrBadVariant
	}
	var count [2]byte
	binary.BigEndian.PutUint16(count[:], uint16(len(ops)))
	dst = append(dst, count[:]...)
	var err error
	for _, op := range ops {
		dst, err = AppendOperation(dst, op)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// DecodeOperations reads a route, returning the remaining input.
func DecodeOperations(b []byte) ([]SwapOperation, []byte, error) {
	if len(b) < 2 {
		return nil, nil, ErrTruncatedInput
	}
	count := int(binary.BigEndian.Uint16(b[:2]))
	rest := b[2:]
	ops := make([]SwapOperation, 0, count)
	for i := 0; i < count; i++ {
		var (
			op  SwapOperation
			err error
		)
		op, rest, err = DecodeOperation(rest)
		if err != nil {
			return nil, nil, err
		}
		ops = append(ops, op)
	}
	return ops, rest, nil
}
