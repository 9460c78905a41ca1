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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/stateless"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/trie/utils"
	"github.com/holiman/uint256"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

// stateDbAdapter adapts the txsandbox.TransactionContext interface for its
// usage as a geth vm.StateDB. The refund counter is maintained by the
// adapter since it is only meaningful for the duration of a transaction.
type stateDbAdapter struct {
	context       txsandbox.TransactionContext
	refund        uint64
	refundBackups map[txsandbox.Snapshot]uint64
}

var _ vm.StateDB = (*stateDbAdapter)(nil)

func newStateDbAdapter(context txsandbox.TransactionContext) *stateDbAdapter {
	return &stateDbAdapter{
		context:       context,
		refundBackups: map[txsandbox.Snapshot]uint64{},
	}
}

func (s *stateDbAdapter) CreateAccount(addr common.Address) {
	s.context.CreateAccount(txsandbox.Address(addr))
}

func (s *stateDbAdapter) CreateContract(addr common.Address) {
	s.context.MarkCreated(txsandbox.Address(addr))
}

func (s *stateDbAdapter) SubBalance(addr common.Address, diff *uint256.Int, _ tracing.BalanceChangeReason) {
	account := txsandbox.Address(addr)
	cur := s.context.GetBalance(account)
	s.context.SetBalance(account, txsandbox.Sub(cur, txsandbox.ValueFromUint256(diff)))
}

func (s *stateDbAdapter) AddBalance(addr common.Address, diff *uint256.Int, _ tracing.BalanceChangeReason) {
	account := txsandbox.Address(addr)
	cur := s.context.GetBalance(account)
	s.context.SetBalance(account, txsandbox.Add(cur, txsandbox.ValueFromUint256(diff)))
}

func (s *stateDbAdapter) GetBalance(addr common.Address) *uint256.Int {
	return s.context.GetBalance(txsandbox.Address(addr)).ToUint256()
}

func (s *stateDbAdapter) GetNonce(addr common.Address) uint64 {
	return s.context.GetNonce(txsandbox.Address(addr))
}

func (s *stateDbAdapter) SetNonce(addr common.Address, nonce uint64) {
	s.context.SetNonce(txsandbox.Address(addr), nonce)
}

func (s *stateDbAdapter) GetCodeHash(addr common.Address) common.Hash {
	return common.Hash(s.context.GetCodeHash(txsandbox.Address(addr)))
}

func (s *stateDbAdapter) GetCode(addr common.Address) []byte {
	return s.context.GetCode(txsandbox.Address(addr))
}

func (s *stateDbAdapter) SetCode(addr common.Address, code []byte) {
	s.context.SetCode(txsandbox.Address(addr), code)
}

func (s *stateDbAdapter) GetCodeSize(addr common.Address) int {
	return s.context.GetCodeSize(txsandbox.Address(addr))
}

func (s *stateDbAdapter) AddRefund(value uint64) {
	s.refund += value
}

func (s *stateDbAdapter) SubRefund(value uint64) {
	s.refund -= value
}

func (s *stateDbAdapter) GetRefund() uint64 {
	return s.refund
}

func (s *stateDbAdapter) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	return common.Hash(s.context.GetCommittedStorage(txsandbox.Address(addr), txsandbox.Key(key)))
}

func (s *stateDbAdapter) GetState(addr common.Address, key common.Hash) common.Hash {
	return common.Hash(s.context.GetStorage(txsandbox.Address(addr), txsandbox.Key(key)))
}

func (s *stateDbAdapter) SetState(addr common.Address, key common.Hash, value common.Hash) {
	s.context.SetStorage(txsandbox.Address(addr), txsandbox.Key(key), txsandbox.Word(value))
}

// GetStorageRoot is only consulted for detecting address collisions on
// contract creation. Storage roots are not tracked; collisions are detected
// through nonces and code.
func (s *stateDbAdapter) GetStorageRoot(addr common.Address) common.Hash {
	return common.Hash{}
}

func (s *stateDbAdapter) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	return common.Hash(s.context.GetTransientStorage(txsandbox.Address(addr), txsandbox.Key(key)))
}

func (s *stateDbAdapter) SetTransientState(addr common.Address, key, value common.Hash) {
	s.context.SetTransientStorage(txsandbox.Address(addr), txsandbox.Key(key), txsandbox.Word(value))
}

func (s *stateDbAdapter) SelfDestruct(addr common.Address) {
	s.context.SelfDestruct(txsandbox.Address(addr))
}

func (s *stateDbAdapter) HasSelfDestructed(addr common.Address) bool {
	return s.context.HasSelfDestructed(txsandbox.Address(addr))
}

// Selfdestruct6780 only destroys accounts created in the same transaction,
// see EIP-6780.
func (s *stateDbAdapter) Selfdestruct6780(addr common.Address) {
	if s.context.IsCreated(txsandbox.Address(addr)) {
		s.context.SelfDestruct(txsandbox.Address(addr))
	}
}

func (s *stateDbAdapter) Exist(addr common.Address) bool {
	return s.context.AccountExists(txsandbox.Address(addr))
}

func (s *stateDbAdapter) Empty(addr common.Address) bool {
	return s.GetBalance(addr).IsZero() && s.GetNonce(addr) == 0 && s.GetCodeSize(addr) == 0
}

func (s *stateDbAdapter) AddressInAccessList(addr common.Address) bool {
	return s.context.IsAddressInAccessList(txsandbox.Address(addr))
}

func (s *stateDbAdapter) SlotInAccessList(addr common.Address, slot common.Hash) (addressOk bool, slotOk bool) {
	return s.context.IsSlotInAccessList(txsandbox.Address(addr), txsandbox.Key(slot))
}

func (s *stateDbAdapter) AddAddressToAccessList(addr common.Address) {
	s.context.AccessAccount(txsandbox.Address(addr))
}

func (s *stateDbAdapter) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	s.context.AccessStorage(txsandbox.Address(addr), txsandbox.Key(slot))
}

// Prepare warms up the accounts and slots accessible without extra costs
// according to EIP-2929, EIP-2930 and EIP-3651. Transient storage needs no
// reset since every transaction context starts without any.
func (s *stateDbAdapter) Prepare(rules params.Rules, sender, coinbase common.Address, dest *common.Address, precompiles []common.Address, txAccesses types.AccessList) {
	if !rules.IsBerlin {
		return
	}
	s.AddAddressToAccessList(sender)
	if dest != nil {
		s.AddAddressToAccessList(*dest)
	}
	for _, addr := range precompiles {
		s.AddAddressToAccessList(addr)
	}
	for _, el := range txAccesses {
		s.AddAddressToAccessList(el.Address)
		for _, key := range el.StorageKeys {
			s.AddSlotToAccessList(el.Address, key)
		}
	}
	if rules.IsShanghai {
		s.AddAddressToAccessList(coinbase)
	}
}

func (s *stateDbAdapter) RevertToSnapshot(snapshot int) {
	s.context.RestoreSnapshot(txsandbox.Snapshot(snapshot))
	s.refund = s.refundBackups[txsandbox.Snapshot(snapshot)]
}

func (s *stateDbAdapter) Snapshot() int {
	id := s.context.CreateSnapshot()
	s.refundBackups[id] = s.refund
	return int(id)
}

func (s *stateDbAdapter) AddLog(log *types.Log) {
	topics := make([]txsandbox.Hash, 0, len(log.Topics))
	for _, cur := range log.Topics {
		topics = append(topics, txsandbox.Hash(cur))
	}
	s.context.EmitLog(txsandbox.Log{
		Address: txsandbox.Address(log.Address),
		Topics:  topics,
		Data:    log.Data,
	})
}

func (s *stateDbAdapter) AddPreimage(common.Hash, []byte) {
	// ignored: preimage recording is disabled
}

func (s *stateDbAdapter) PointCache() *utils.PointCache {
	// only used by EIP-4762, which is beyond Cancun
	return nil
}

func (s *stateDbAdapter) Witness() *stateless.Witness {
	return nil
}
