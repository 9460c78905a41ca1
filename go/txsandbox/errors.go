// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package txsandbox

// ConstError is an error type that can be used to define immutable
// error constants.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

const (
	// ErrInvalidAddress is reported for address strings that are not exactly
	// 20 hex-encoded bytes.
	ErrInvalidAddress = ConstError("invalid address")
	// ErrInvalidData is reported for malformed hex payloads.
	ErrInvalidData = ConstError("invalid hex data")
	// ErrInvalidValue is reported for numbers that are negative, malformed,
	// or exceed 256 bits.
	ErrInvalidValue = ConstError("invalid value")
	// ErrEngineFailure is reported if the execution engine was unable to
	// produce any outcome for a transaction.
	ErrEngineFailure = ConstError("execution engine failure")
	// ErrUnknownProcessor is reported if no processor is registered under a
	// requested name.
	ErrUnknownProcessor = ConstError("unknown processor")
)
