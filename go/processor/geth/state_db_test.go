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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/ledgerlab/txsandbox/go/state"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

func TestStateDbAdapter_PrepareWarmsAccessedAccounts(t *testing.T) {
	from, to, coinbase := common.Address{1}, common.Address{2}, common.Address{3}
	precompile, listed := common.Address{4}, common.Address{5}
	key := common.Hash{6}
	accessList := types.AccessList{{Address: listed, StorageKeys: []common.Hash{key}}}

	tests := map[string]struct {
		rules        params.Rules
		warm         []common.Address
		warmCoinbase bool
	}{
		"istanbul": {rules: params.Rules{IsIstanbul: true}},
		"berlin":   {rules: params.Rules{IsBerlin: true}, warm: []common.Address{from, to, precompile, listed}},
		"shanghai": {rules: params.Rules{IsBerlin: true, IsShanghai: true}, warm: []common.Address{from, to, precompile, listed}, warmCoinbase: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			adapter := newStateDbAdapter(state.NewJournal(state.WorldState{}))
			adapter.Prepare(test.rules, from, coinbase, &to, []common.Address{precompile}, accessList)

			for _, addr := range test.warm {
				if !adapter.AddressInAccessList(addr) {
					t.Errorf("%v should be warm", addr)
				}
			}
			if want, got := test.warmCoinbase, adapter.AddressInAccessList(coinbase); want != got {
				t.Errorf("unexpected coinbase access status, wanted %t, got %t", want, got)
			}
			if want, got := len(test.warm) > 0, adapter.AddressInAccessList(from); want != got {
				t.Errorf("unexpected sender access status, wanted %t, got %t", want, got)
			}
			_, slotWarm := adapter.SlotInAccessList(listed, key)
			if want, got := len(test.warm) > 0, slotWarm; want != got {
				t.Errorf("unexpected slot access status, wanted %t, got %t", want, got)
			}
		})
	}
}

func TestStateDbAdapter_BalanceUpdatesAreApplied(t *testing.T) {
	world := state.WorldState{}
	adapter := newStateDbAdapter(state.NewJournal(world))
	addr := common.Address{1}

	adapter.AddBalance(addr, uint256.NewInt(10), tracing.BalanceChangeUnspecified)
	adapter.SubBalance(addr, uint256.NewInt(3), tracing.BalanceChangeUnspecified)

	if want, got := uint64(7), adapter.GetBalance(addr).Uint64(); want != got {
		t.Errorf("unexpected balance, wanted %d, got %d", want, got)
	}
	if want, got := txsandbox.NewValue(7), world.GetBalance(txsandbox.Address(addr)); want != got {
		t.Errorf("unexpected balance in world state, wanted %v, got %v", want, got)
	}
}

func TestStateDbAdapter_RevertRestoresRefund(t *testing.T) {
	adapter := newStateDbAdapter(state.NewJournal(state.WorldState{}))
	adapter.AddRefund(10)
	snapshot := adapter.Snapshot()
	adapter.AddRefund(5)
	adapter.SetNonce(common.Address{1}, 3)

	adapter.RevertToSnapshot(snapshot)

	if want, got := uint64(10), adapter.GetRefund(); want != got {
		t.Errorf("unexpected refund, wanted %d, got %d", want, got)
	}
	if want, got := uint64(0), adapter.GetNonce(common.Address{1}); want != got {
		t.Errorf("unexpected nonce, wanted %d, got %d", want, got)
	}
}

func TestStateDbAdapter_Selfdestruct6780OnlyDestroysNewContracts(t *testing.T) {
	world := state.WorldState{}
	old, fresh := common.Address{1}, common.Address{2}
	world.SetBalance(txsandbox.Address(old), txsandbox.NewValue(1))
	adapter := newStateDbAdapter(state.NewJournal(world))

	adapter.CreateAccount(fresh)
	adapter.CreateContract(fresh)
	adapter.Selfdestruct6780(old)
	adapter.Selfdestruct6780(fresh)

	if adapter.HasSelfDestructed(old) {
		t.Errorf("pre-existing account was destroyed")
	}
	if !adapter.HasSelfDestructed(fresh) {
		t.Errorf("new contract was not destroyed")
	}
}

func TestStateDbAdapter_EmptyAccountsHaveNoBalanceNonceOrCode(t *testing.T) {
	world := state.WorldState{}
	world.SetAccount(txsandbox.Address{1}, state.Account{Nonce: 1})
	world.SetAccount(txsandbox.Address{2}, state.Account{Code: txsandbox.Code{0}})
	world.SetBalance(txsandbox.Address{3}, txsandbox.NewValue(1))
	world.SetAccount(txsandbox.Address{4}, state.Account{})
	adapter := newStateDbAdapter(state.NewJournal(world))

	tests := map[common.Address]bool{
		{1}: false,
		{2}: false,
		{3}: false,
		{4}: true,
		{5}: true,
	}
	for addr, want := range tests {
		if got := adapter.Empty(addr); want != got {
			t.Errorf("unexpected emptiness of %v, wanted %t, got %t", addr, want, got)
		}
	}
	if !adapter.Exist(common.Address{4}) || adapter.Exist(common.Address{5}) {
		t.Errorf("unexpected account existence")
	}
}

func TestStateDbAdapter_LogsAreForwarded(t *testing.T) {
	journal := state.NewJournal(state.WorldState{})
	adapter := newStateDbAdapter(journal)
	adapter.AddLog(&types.Log{
		Address: common.Address{1},
		Topics:  []common.Hash{{2}, {3}},
		Data:    []byte{4},
	})

	logs := journal.GetLogs()
	if want, got := 1, len(logs); want != got {
		t.Fatalf("unexpected number of logs, wanted %d, got %d", want, got)
	}
	if logs[0].Address != (txsandbox.Address{1}) || len(logs[0].Topics) != 2 || logs[0].Topics[1] != (txsandbox.Hash{3}) {
		t.Errorf("unexpected log %v", logs[0])
	}
}
