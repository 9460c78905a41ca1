// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package geth

import (
	"errors"
	"math/big"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

// executionHalts maps errors reported by the EVM for a completed execution to
// halt reasons. Errors carrying parameters are handled by classifyExecution.
var executionHalts = []struct {
	err    error
	reason txsandbox.HaltReason
}{
	{vm.ErrOutOfGas, txsandbox.HaltOutOfGas},
	{vm.ErrCodeStoreOutOfGas, txsandbox.HaltOutOfGas},
	{vm.ErrGasUintOverflow, txsandbox.HaltOutOfGas},
	{vm.ErrInvalidJump, txsandbox.HaltInvalidJump},
	{vm.ErrReturnDataOutOfBounds, txsandbox.HaltOutOfOffset},
	{vm.ErrContractAddressCollision, txsandbox.HaltCreateCollision},
	{vm.ErrNonceUintOverflow, txsandbox.HaltNonceOverflow},
	{vm.ErrMaxCodeSizeExceeded, txsandbox.HaltCreateContractSizeLimit},
	{vm.ErrInvalidCode, txsandbox.HaltCreateContractStartingWithEF},
	{vm.ErrMaxInitCodeSizeExceeded, txsandbox.HaltCreateInitcodeSizeLimit},
	{vm.ErrWriteProtection, txsandbox.HaltStateChangeDuringStaticCall},
	{vm.ErrInsufficientBalance, txsandbox.HaltOutOfFund},
	{vm.ErrDepth, txsandbox.HaltCallTooDeep},
}

// classifyExecution maps the error of a completed, non-reverted execution to
// a halt reason. The recipient is needed to attribute errors raised by
// precompiled contracts. The result is false if the error is unknown.
func classifyExecution(err error, recipient *common.Address, precompiles []common.Address) (txsandbox.HaltReason, bool) {
	for _, entry := range executionHalts {
		if errors.Is(err, entry.err) {
			return entry.reason, true
		}
	}

	var underflow *vm.ErrStackUnderflow
	if errors.As(err, &underflow) {
		return txsandbox.HaltStackUnderflow, true
	}
	var overflow *vm.ErrStackOverflow
	if errors.As(err, &overflow) {
		return txsandbox.HaltStackOverflow, true
	}
	var invalid *vm.ErrInvalidOpCode
	if errors.As(err, &invalid) {
		return classifyInvalidOpCode(invalid), true
	}

	// Precompiled contracts report their own error types.
	if recipient != nil && slices.Contains(precompiles, *recipient) {
		return txsandbox.HaltPrecompileError, true
	}
	return 0, false
}

// classifyInvalidOpCode distinguishes the designated invalid instruction
// 0xFE, byte values not assigned to any instruction, and instructions not
// yet introduced in the active revision. The engine only reports the name of
// the offending instruction, which is "opcode 0x.. not defined" for
// unassigned values.
func classifyInvalidOpCode(err *vm.ErrInvalidOpCode) txsandbox.HaltReason {
	msg := err.Error()
	switch {
	case strings.HasSuffix(msg, ": "+vm.INVALID.String()):
		return txsandbox.HaltInvalidFEOpcode
	case strings.HasSuffix(msg, "not defined"):
		return txsandbox.HaltOpcodeNotFound
	default:
		return txsandbox.HaltNotActivated
	}
}

// classifyRejection maps errors for which the engine refused to execute a
// transaction to a halt reason. The result is false if the rejection does not
// correspond to a halt reason. Rejected transactions are not charged, so
// their halts report no gas as used.
func classifyRejection(err error, msg *core.Message) (txsandbox.HaltReason, bool) {
	switch {
	case errors.Is(err, core.ErrIntrinsicGas),
		errors.Is(err, core.ErrGasUintOverflow):
		return txsandbox.HaltOutOfGas, true
	case errors.Is(err, core.ErrInsufficientFunds):
		if exceedsValueRange(msg) {
			return txsandbox.HaltOverflowPayment, true
		}
		return txsandbox.HaltOutOfFund, true
	case errors.Is(err, core.ErrInsufficientFundsForTransfer):
		return txsandbox.HaltOutOfFund, true
	case errors.Is(err, core.ErrNonceMax):
		return txsandbox.HaltNonceOverflow, true
	case errors.Is(err, core.ErrMaxInitCodeSizeExceeded),
		errors.Is(err, vm.ErrMaxInitCodeSizeExceeded):
		return txsandbox.HaltCreateInitcodeSizeLimit, true
	}
	return 0, false
}

// exceedsValueRange reports whether the maximum payment of a transaction,
// its gas limit times gas price plus the transferred value, is not
// representable as a 256-bit value.
func exceedsValueRange(msg *core.Message) bool {
	payment := new(big.Int).SetUint64(msg.GasLimit)
	payment.Mul(payment, msg.GasFeeCap)
	payment.Add(payment, msg.Value)
	return payment.BitLen() > 256
}
