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
	"bytes"
	"errors"
	"fmt"
)

// OutcomeKind discriminates the three variants of an Outcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRevert
	OutcomeHalt
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRevert:
		return "revert"
	case OutcomeHalt:
		return "halt"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", k)
	}
}

// Outcome is the raw result of executing a single transaction. Exactly one
// variant is populated, as indicated by Kind:
//
//   - OutcomeSuccess: Output holds the returned bytes of a call, or the
//     deployed code of a creation in which case CreatedAddress is set.
//   - OutcomeRevert: Output holds the opaque revert payload.
//   - OutcomeHalt: HaltReason names the abnormal termination, Output is empty.
//
// GasUsed is defined for all variants.
type Outcome struct {
	Kind           OutcomeKind
	GasUsed        uint64
	Output         Data
	CreatedAddress *Address
	HaltReason     HaltReason
}

func NewCallSuccess(gasUsed uint64, output Data) Outcome {
	return Outcome{Kind: OutcomeSuccess, GasUsed: gasUsed, Output: output}
}

func NewCreateSuccess(gasUsed uint64, created Address, code Data) Outcome {
	return Outcome{Kind: OutcomeSuccess, GasUsed: gasUsed, Output: code, CreatedAddress: &created}
}

func NewRevert(gasUsed uint64, output Data) Outcome {
	return Outcome{Kind: OutcomeRevert, GasUsed: gasUsed, Output: output}
}

func NewHalt(gasUsed uint64, reason HaltReason) Outcome {
	return Outcome{Kind: OutcomeHalt, GasUsed: gasUsed, HaltReason: reason}
}

// IsSuccess reports whether the outcome is the success variant.
func (o Outcome) IsSuccess() bool {
	return o.Kind == OutcomeSuccess
}

// IsCreate reports whether the outcome is a successful contract creation.
func (o Outcome) IsCreate() bool {
	return o.Kind == OutcomeSuccess && o.CreatedAddress != nil
}

// Validate checks that only the fields of the outcome's variant are populated.
func (o Outcome) Validate() error {
	var errs []error
	switch o.Kind {
	case OutcomeSuccess:
		if o.HaltReason != 0 {
			errs = append(errs, fmt.Errorf("success outcome with halt reason %v", o.HaltReason))
		}
	case OutcomeRevert:
		if o.CreatedAddress != nil {
			errs = append(errs, fmt.Errorf("revert outcome with created address %v", *o.CreatedAddress))
		}
		if o.HaltReason != 0 {
			errs = append(errs, fmt.Errorf("revert outcome with halt reason %v", o.HaltReason))
		}
	case OutcomeHalt:
		if !o.HaltReason.IsValid() {
			errs = append(errs, fmt.Errorf("unknown halt reason %d", o.HaltReason))
		}
		if o.CreatedAddress != nil {
			errs = append(errs, fmt.Errorf("halt outcome with created address %v", *o.CreatedAddress))
		}
		if len(o.Output) > 0 {
			errs = append(errs, fmt.Errorf("halt outcome with output 0x%x", []byte(o.Output)))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid outcome kind %v", o.Kind))
	}
	return errors.Join(errs...)
}

func (o Outcome) Equal(other Outcome) bool {
	if o.Kind != other.Kind || o.GasUsed != other.GasUsed || o.HaltReason != other.HaltReason {
		return false
	}
	if !bytes.Equal(o.Output, other.Output) {
		return false
	}
	if (o.CreatedAddress == nil) != (other.CreatedAddress == nil) {
		return false
	}
	return o.CreatedAddress == nil || *o.CreatedAddress == *other.CreatedAddress
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		if o.CreatedAddress != nil {
			return fmt.Sprintf("success(gas: %d, created: %v)", o.GasUsed, *o.CreatedAddress)
		}
		return fmt.Sprintf("success(gas: %d, output: 0x%x)", o.GasUsed, []byte(o.Output))
	case OutcomeRevert:
		return fmt.Sprintf("revert(gas: %d, output: 0x%x)", o.GasUsed, []byte(o.Output))
	case OutcomeHalt:
		return fmt.Sprintf("halt(gas: %d, reason: %v)", o.GasUsed, o.HaltReason)
	}
	return o.Kind.String()
}
