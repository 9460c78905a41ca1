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
	"encoding/json"
	"testing"

	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

func TestNormalize_ProducesVariantSpecificFields(t *testing.T) {
	created := txsandbox.Address{0x12, 0x34}
	tests := map[string]struct {
		outcome txsandbox.Outcome
		want    string
	}{
		"call": {
			outcome: txsandbox.NewCallSuccess(21_000, txsandbox.Data{0x01, 0xab}),
			want:    `{"success":true,"gas_used":21000,"call_output":"01ab"}`,
		},
		"call-without-output": {
			outcome: txsandbox.NewCallSuccess(21_000, nil),
			want:    `{"success":true,"gas_used":21000,"call_output":""}`,
		},
		"create": {
			outcome: txsandbox.NewCreateSuccess(53_000, created, txsandbox.Data{0x00}),
			want:    `{"success":true,"gas_used":53000,"contract_created":"0x1234000000000000000000000000000000000000"}`,
		},
		"revert": {
			outcome: txsandbox.NewRevert(22_000, txsandbox.Data{0xde, 0xad}),
			want:    `{"success":false,"gas_used":22000,"revert_output":"dead"}`,
		},
		"halt": {
			outcome: txsandbox.NewHalt(30_000, txsandbox.HaltInvalidJump),
			want:    `{"success":false,"gas_used":30000,"reason":"Invalid Jump"}`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := Normalize(test.outcome)
			if err != nil {
				t.Fatalf("failed to normalize: %v", err)
			}
			got, err := json.Marshal(result)
			if err != nil {
				t.Fatalf("failed to encode result: %v", err)
			}
			if want := test.want; want != string(got) {
				t.Errorf("unexpected result, wanted %v, got %v", want, string(got))
			}
		})
	}
}

func TestNormalize_EveryHaltReasonHasAReason(t *testing.T) {
	for _, reason := range txsandbox.AllHaltReasons() {
		result, err := Normalize(txsandbox.NewHalt(1, reason))
		if err != nil {
			t.Fatalf("failed to normalize %v: %v", reason, err)
		}
		if result.Success || result.Reason == nil || *result.Reason == "" {
			t.Errorf("invalid result for %v: %v", reason, result)
		}
		if want, got := uint64(1), result.GasUsed; want != got {
			t.Errorf("unexpected gas used, wanted %d, got %d", want, got)
		}
	}
}

func TestNormalize_RejectsInvalidOutcomes(t *testing.T) {
	created := txsandbox.Address{1}
	invalid := []txsandbox.Outcome{
		{Kind: txsandbox.OutcomeKind(7)},
		{Kind: txsandbox.OutcomeHalt, HaltReason: txsandbox.HaltReason(1000)},
		{Kind: txsandbox.OutcomeHalt, HaltReason: txsandbox.HaltOutOfGas, Output: txsandbox.Data{1}},
		{Kind: txsandbox.OutcomeRevert, CreatedAddress: &created},
		{Kind: txsandbox.OutcomeSuccess, HaltReason: txsandbox.HaltCallTooDeep},
	}
	for _, outcome := range invalid {
		if _, err := Normalize(outcome); err == nil {
			t.Errorf("invalid outcome %v was accepted", outcome)
		}
	}
}
