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

import (
	"encoding/json"
	"fmt"
)

// HaltReason classifies an abnormal termination of a transaction that is
// neither a success nor a deliberate revert. The set is closed: every value
// in [0, numHaltReasons) has a defined description.
type HaltReason int

const (
	HaltOutOfGas HaltReason = iota
	HaltOpcodeNotFound
	HaltInvalidFEOpcode
	HaltInvalidJump
	HaltNotActivated
	HaltStackUnderflow
	HaltStackOverflow
	HaltOutOfOffset
	HaltCreateCollision
	HaltPrecompileError
	HaltNonceOverflow
	HaltCreateContractSizeLimit
	HaltCreateContractStartingWithEF
	HaltCreateInitcodeSizeLimit
	HaltOverflowPayment
	HaltStateChangeDuringStaticCall
	HaltCallNotAllowedInsideStatic
	HaltOutOfFund
	HaltCallTooDeep
	numHaltReasons int = iota
)

var haltReasonNames = [...]string{
	HaltOutOfGas:                     "Out of Gas",
	HaltOpcodeNotFound:               "Opcode Not Found",
	HaltInvalidFEOpcode:              "Invalid FE Opcode",
	HaltInvalidJump:                  "Invalid Jump",
	HaltNotActivated:                 "Not Activated",
	HaltStackUnderflow:               "Stack Underflow",
	HaltStackOverflow:                "Stack Overflow",
	HaltOutOfOffset:                  "Out of Offset",
	HaltCreateCollision:              "Create Collision",
	HaltPrecompileError:              "Precompile Error",
	HaltNonceOverflow:                "Nonce Overflow",
	HaltCreateContractSizeLimit:      "Create Contract Size Limit",
	HaltCreateContractStartingWithEF: "Create Contract Starting With EF",
	HaltCreateInitcodeSizeLimit:      "Create Initcode Size Limit",
	HaltOverflowPayment:              "Overflow Payment",
	HaltStateChangeDuringStaticCall:  "State Change During Static Call",
	HaltCallNotAllowedInsideStatic:   "Call Not Allowed Inside Static",
	HaltOutOfFund:                    "Out of Fund",
	HaltCallTooDeep:                  "Call Too Deep",
}

// AllHaltReasons lists every member of the halt taxonomy.
func AllHaltReasons() []HaltReason {
	res := make([]HaltReason, 0, numHaltReasons)
	for i := 0; i < numHaltReasons; i++ {
		res = append(res, HaltReason(i))
	}
	return res
}

// IsValid reports whether the reason is a member of the closed taxonomy.
func (r HaltReason) IsValid() bool {
	return 0 <= r && int(r) < numHaltReasons
}

func (r HaltReason) String() string {
	if !r.IsValid() {
		return fmt.Sprintf("HaltReason(%d)", r)
	}
	return haltReasonNames[r]
}

func (r HaltReason) MarshalJSON() ([]byte, error) {
	if !r.IsValid() {
		return nil, &json.UnsupportedValueError{Str: r.String()}
	}
	return json.Marshal(r.String())
}

func (r *HaltReason) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range haltReasonNames {
		if name == s {
			*r = HaltReason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown halt reason: %q", s)
}
