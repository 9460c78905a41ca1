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
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
	"pgregory.net/rand"
)

const (
	aliceHex = "0xa100000000000000000000000000000000000000"
	bobHex   = "0xb000000000000000000000000000000000000000"
)

// storageInit deploys a contract returning the word in slot 0 if called
// without input and storing the first input word in slot 0 otherwise.
const storageInit = "6017600c60003960176000f3" + "36600f5760005460005260206000f35b60003560005500"

func newClient(t *testing.T) *Client {
	t.Helper()
	sandbox, err := New(Config{})
	if err != nil {
		t.Fatalf("failed to create sandbox: %v", err)
	}
	return NewClient(sandbox)
}

func mustSetBalance(t *testing.T, client *Client, address, balance string) {
	t.Helper()
	if ok, err := client.SetBalance(address, balance); !ok || err != nil {
		t.Fatalf("failed to set balance of %s: %v", address, err)
	}
}

func mustGetBalance(t *testing.T, client *Client, address string) *big.Int {
	t.Helper()
	balance, err := client.GetBalance(address)
	if err != nil {
		t.Fatalf("failed to get balance of %s: %v", address, err)
	}
	return balance
}

func toJson(t *testing.T, result Result) string {
	t.Helper()
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to encode result: %v", err)
	}
	return string(data)
}

func TestClient_BalanceOfUnknownAccountIsZero(t *testing.T) {
	client := newClient(t)
	if got := mustGetBalance(t, client, bobHex); got.Sign() != 0 {
		t.Errorf("unexpected balance: %v", got)
	}
}

func TestClient_SetBalanceIsReadBack(t *testing.T) {
	maxBalance := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	tests := []struct {
		balance string
		want    *big.Int
	}{
		{"0", big.NewInt(0)},
		{"1", big.NewInt(1)},
		{"0x2a", big.NewInt(42)},
		{"1000000000000000000", big.NewInt(1_000_000_000_000_000_000)},
		{maxBalance.String(), maxBalance},
		{"0x" + strings.Repeat("ff", 32), maxBalance},
	}
	for _, test := range tests {
		t.Run(test.balance, func(t *testing.T) {
			client := newClient(t)
			mustSetBalance(t, client, aliceHex, test.balance)
			if want, got := test.want, mustGetBalance(t, client, aliceHex); want.Cmp(got) != 0 {
				t.Errorf("unexpected balance, wanted %v, got %v", want, got)
			}
		})
	}
}

func TestClient_SetBalanceRejectsInvalidInput(t *testing.T) {
	tooLarge := new(big.Int).Lsh(big.NewInt(1), 256).String()
	tests := map[string][2]string{
		"short address":   {"0x1234", "1"},
		"invalid address": {"0x" + strings.Repeat("zz", 20), "1"},
		"negative":        {aliceHex, "-1"},
		"too large":       {aliceHex, tooLarge},
		"not a number":    {aliceHex, "one"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			client := newClient(t)
			if ok, err := client.SetBalance(test[0], test[1]); ok || err == nil {
				t.Errorf("invalid input was accepted")
			}
			if got := client.Sandbox().State(); len(got) != 0 {
				t.Errorf("rejected input modified the state: %v", got)
			}
		})
	}
}

func TestClient_CallCommitTransfersValueAndChargesGas(t *testing.T) {
	client := newClient(t)
	mustSetBalance(t, client, aliceHex, "1000000000000000000")
	mustSetBalance(t, client, bobHex, "1")

	result, err := client.CallCommit(aliceHex, bobHex, "1000", "", 21_000, "1", "SHANGHAI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := `{"success":true,"gas_used":21000,"call_output":""}`, toJson(t, result); want != got {
		t.Errorf("unexpected result, wanted %v, got %v", want, got)
	}

	wantAlice := big.NewInt(1_000_000_000_000_000_000 - 1000 - 21_000)
	if got := mustGetBalance(t, client, aliceHex); wantAlice.Cmp(got) != 0 {
		t.Errorf("unexpected sender balance, wanted %v, got %v", wantAlice, got)
	}
	wantBob := big.NewInt(1001)
	if got := mustGetBalance(t, client, bobHex); wantBob.Cmp(got) != 0 {
		t.Errorf("unexpected receiver balance, wanted %v, got %v", wantBob, got)
	}
	if want, got := uint64(1), client.Sandbox().GetNonce(alice); want != got {
		t.Errorf("unexpected sender nonce, wanted %d, got %d", want, got)
	}
}

func TestClient_CallCommitCreatesContracts(t *testing.T) {
	client := newClient(t)
	mustSetBalance(t, client, aliceHex, "1000000000000000000")

	result, err := client.CallCommit(aliceHex, "", "0", "0x"+storageInit, 200_000, "1", "SHANGHAI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.ContractCreated == nil || result.CallOutput != nil {
		t.Fatalf("unexpected result %v", result)
	}
	created := crypto.CreateAddress(common.Address(alice), 0)
	if want, got := strings.ToLower(created.Hex()), *result.ContractCreated; want != got {
		t.Errorf("unexpected contract address, wanted %v, got %v", want, got)
	}

	contract := *result.ContractCreated
	word := strings.Repeat("00", 31) + "2a"
	result, err = client.CallCommit(aliceHex, contract, "0", word, 100_000, "1", "SHANGHAI")
	if err != nil || !result.Success {
		t.Fatalf("failed to store word: %v, %v", result, err)
	}

	result, err = client.CallCommit(aliceHex, contract, "0", "", 100_000, "1", "SHANGHAI")
	if err != nil || result.CallOutput == nil {
		t.Fatalf("failed to load word: %v, %v", result, err)
	}
	if want, got := word, *result.CallOutput; want != got {
		t.Errorf("unexpected output, wanted %v, got %v", want, got)
	}
}

func TestClient_InsufficientGasHaltsWithOutOfGas(t *testing.T) {
	client := newClient(t)
	mustSetBalance(t, client, aliceHex, "1000000000000000000")

	result, err := client.CallCommit(aliceHex, bobHex, "1", "", 20_000, "1", "SHANGHAI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || result.Reason == nil || *result.Reason != "Out of Gas" {
		t.Errorf("unexpected result %v", result)
	}
	if want, got := uint64(0), result.GasUsed; want != got {
		t.Errorf("unexpected gas used, wanted %d, got %d", want, got)
	}
	if want, got := big.NewInt(1_000_000_000_000_000_000), mustGetBalance(t, client, aliceHex); want.Cmp(got) != 0 {
		t.Errorf("rejected transaction charged the sender, wanted %v, got %v", want, got)
	}
	if want, got := uint64(0), client.Sandbox().GetNonce(alice); want != got {
		t.Errorf("unexpected sender nonce, wanted %d, got %d", want, got)
	}
}

func TestClient_UnknownRevisionTagResolvesToLatest(t *testing.T) {
	run := func(tag string) string {
		client := newClient(t)
		mustSetBalance(t, client, aliceHex, "1000000000000000000")
		result, err := client.CallCommit(aliceHex, "", "0", storageInit, 200_000, "1", tag)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tag, err)
		}
		return toJson(t, result) + mustGetBalance(t, client, aliceHex).String()
	}

	want := run(txsandbox.LatestTag)
	for _, tag := range []string{"NOT_A_FORK", "cancun", ""} {
		if got := run(tag); want != got {
			t.Errorf("unexpected result for %q, wanted %v, got %v", tag, want, got)
		}
	}
}

func TestClient_DataWithAndWithoutPrefixIsEquivalent(t *testing.T) {
	r := rand.New(0)
	for i := 0; i < 10; i++ {
		payload := make([]byte, r.Intn(64))
		r.Read(payload)
		encoded := hex.EncodeToString(payload)

		results := map[string]string{}
		for _, data := range []string{encoded, "0x" + encoded, "0x" + strings.ToUpper(encoded)} {
			client := newClient(t)
			mustSetBalance(t, client, aliceHex, "1000000000000000000")
			result, err := client.CallCommit(aliceHex, bobHex, "0", data, 100_000, "1", "LONDON")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			results[toJson(t, result)+mustGetBalance(t, client, aliceHex).String()] = data
		}
		if len(results) != 1 {
			t.Errorf("encodings of %x produced different results: %v", payload, results)
		}
	}
}

func TestClient_CallNoCommitNeverChangesBalances(t *testing.T) {
	client := newClient(t)
	mustSetBalance(t, client, aliceHex, "1000000000000000000")
	mustSetBalance(t, client, bobHex, "5")
	if _, err := client.CallCommit(aliceHex, "", "0", storageInit, 200_000, "1", "SHANGHAI"); err != nil {
		t.Fatalf("failed to deploy contract: %v", err)
	}
	contractHex := strings.ToLower(crypto.CreateAddress(common.Address(alice), 0).Hex())
	before := client.Sandbox().State()

	tags := txsandbox.RevisionTags()
	recipients := []string{bobHex, contractHex, ""}
	r := rand.New(1)
	for i := 0; i < 50; i++ {
		value := new(big.Int).SetUint64(r.Uint64n(2_000_000_000_000_000_000)).String()
		data := ""
		if r.Intn(2) == 0 {
			data = strings.Repeat("00", 31) + "07"
		}
		to := recipients[r.Intn(len(recipients))]
		if to == "" {
			data = storageInit
		}
		gas := r.Uint64n(300_000)
		tag := tags[r.Intn(len(tags))]

		if _, err := client.CallNoCommit(aliceHex, to, value, data, gas, "1", tag); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if after := client.Sandbox().State(); !before.Equal(after) {
			t.Fatalf("dry-run of %s to %q under %s modified the state: %v", value, to, tag, before.Diff(after))
		}
	}
}

func TestClient_CallsRejectMalformedInputBeforeExecution(t *testing.T) {
	tests := map[string]struct {
		from, to, value, data, gasPrice string
	}{
		"sender":          {"0x12", bobHex, "1", "", "1"},
		"recipient":       {aliceHex, "0x12", "1", "", "1"},
		"value":           {aliceHex, bobHex, "-1", "", "1"},
		"empty value":     {aliceHex, bobHex, "", "", "1"},
		"data":            {aliceHex, bobHex, "1", "0xzz", "1"},
		"odd data":        {aliceHex, bobHex, "1", "0x123", "1"},
		"gas price":       {aliceHex, bobHex, "1", "", "0x"},
		"empty gas price": {aliceHex, bobHex, "1", "", ""},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			client := newClient(t)
			mustSetBalance(t, client, aliceHex, "1000000000000000000")
			before := client.Sandbox().State()

			if _, err := client.CallCommit(test.from, test.to, test.value, test.data, 21_000, test.gasPrice, "SHANGHAI"); err == nil {
				t.Errorf("malformed commit request was accepted")
			}
			if _, err := client.CallNoCommit(test.from, test.to, test.value, test.data, 21_000, test.gasPrice, "SHANGHAI"); err == nil {
				t.Errorf("malformed dry-run request was accepted")
			}
			if _, _, err := client.DryRun(test.from, test.to, test.value, test.data, 21_000, test.gasPrice, "SHANGHAI"); err == nil {
				t.Errorf("malformed dry-run request with delta was accepted")
			}
			if after := client.Sandbox().State(); !before.Equal(after) {
				t.Errorf("rejected request modified the state: %v", before.Diff(after))
			}
		})
	}
}

func TestClient_DryRunReportsDeltaWithoutApplyingIt(t *testing.T) {
	client := newClient(t)
	mustSetBalance(t, client, aliceHex, "1000000000000000000")
	before := client.Sandbox().State()

	result, delta, err := client.DryRun(aliceHex, bobHex, "1000", "", 21_000, "1", "SHANGHAI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("unexpected result %v", result)
	}
	if after := client.Sandbox().State(); !before.Equal(after) {
		t.Errorf("dry-run modified the state: %v", before.Diff(after))
	}

	changes := map[txsandbox.Address]bool{}
	for _, change := range delta {
		changes[change.Address] = change.IsCreated()
	}
	if created, found := changes[alice]; !found || created {
		t.Errorf("missing update of sender in %v", delta)
	}
	if created, found := changes[bob]; !found || !created {
		t.Errorf("missing creation of receiver in %v", delta)
	}
}
