// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sandbox

import (
	"fmt"

	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

// Result is the flattened, serializable form of an Outcome. Success and
// GasUsed are always present; of the remaining fields only those relevant
// to the outcome's variant are set:
//
//   - successful calls set CallOutput,
//   - successful creations set ContractCreated,
//   - reverts set RevertOutput,
//   - halts set Reason.
type Result struct {
	Success         bool    `json:"success"`
	GasUsed         uint64  `json:"gas_used"`
	Reason          *string `json:"reason,omitempty"`
	ContractCreated *string `json:"contract_created,omitempty"`
	CallOutput      *string `json:"call_output,omitempty"`
	RevertOutput    *string `json:"revert_output,omitempty"`
}

// Normalize converts an outcome into a result record. Outputs are rendered
// as bare lower-case hex, the created contract address carries a 0x prefix.
// Outcomes populating fields of more than one variant are rejected.
func Normalize(outcome txsandbox.Outcome) (Result, error) {
	if err := outcome.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid outcome: %w", err)
	}
	res := Result{GasUsed: outcome.GasUsed}
	switch outcome.Kind {
	case txsandbox.OutcomeSuccess:
		res.Success = true
		if outcome.CreatedAddress != nil {
			res.ContractCreated = ref(outcome.CreatedAddress.String())
		} else {
			res.CallOutput = ref(outcome.Output.String())
		}
	case txsandbox.OutcomeRevert:
		res.RevertOutput = ref(outcome.Output.String())
	case txsandbox.OutcomeHalt:
		res.Reason = ref(outcome.HaltReason.String())
	}
	return res, nil
}

func (r Result) String() string {
	switch {
	case r.ContractCreated != nil:
		return fmt.Sprintf("success(gas: %d, created: %s)", r.GasUsed, *r.ContractCreated)
	case r.CallOutput != nil:
		return fmt.Sprintf("success(gas: %d, output: %s)", r.GasUsed, *r.CallOutput)
	case r.RevertOutput != nil:
		return fmt.Sprintf("revert(gas: %d, output: %s)", r.GasUsed, *r.RevertOutput)
	case r.Reason != nil:
		return fmt.Sprintf("halt(gas: %d, reason: %s)", r.GasUsed, *r.Reason)
	}
	return fmt.Sprintf("success: %t, gas: %d", r.Success, r.GasUsed)
}

func ref[T any](value T) *T {
	return &value
}
