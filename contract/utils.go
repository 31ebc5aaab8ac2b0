// Copyright (C) 2025, Orbit DEX, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import "errors"

var (
	ErrOutOfGas        = errors.New("out of gas")
	ErrWriteProtection = errors.New("write protection")
)

// DeductGas checks that suppliedGas covers cost and returns the remainder.
func DeductGas(suppliedGas uint64, cost uint64) (uint64, error) {
	if suppliedGas < cost {
		return 0, ErrOutOfGas
	}
	return suppliedGas - cost, nil
}
