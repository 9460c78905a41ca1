// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"bytes"
	"slices"

	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

// Journal implements txsandbox.TransactionContext on top of a WorldState.
// Modifications are applied to the underlying state directly and recorded
// as undo operations, enabling snapshots to be restored. Besides the account
// records, a journal keeps the transaction scoped information required by
// the execution engine. A journal is intended to be used for a single
// transaction and is not safe for concurrent use.
type Journal struct {
	state WorldState
	undo  []func()

	// committed holds the pre-transaction value of every slot modified
	// during the transaction.
	committed map[slot]txsandbox.Word
	transient map[slot]txsandbox.Word

	accessedAccounts map[txsandbox.Address]struct{}
	accessedSlots    map[slot]struct{}

	logs []txsandbox.Log

	created    map[txsandbox.Address]struct{}
	destructed map[txsandbox.Address]struct{}
	touched    map[txsandbox.Address]struct{}
}

type slot struct {
	addr txsandbox.Address
	key  txsandbox.Key
}

// NewJournal creates a transaction context operating on the given state.
func NewJournal(state WorldState) *Journal {
	return &Journal{
		state:            state,
		committed:        map[slot]txsandbox.Word{},
		transient:        map[slot]txsandbox.Word{},
		accessedAccounts: map[txsandbox.Address]struct{}{},
		accessedSlots:    map[slot]struct{}{},
		created:          map[txsandbox.Address]struct{}{},
		destructed:       map[txsandbox.Address]struct{}{},
		touched:          map[txsandbox.Address]struct{}{},
	}
}

func (j *Journal) AccountExists(addr txsandbox.Address) bool {
	_, found := j.state[addr]
	return found
}

func (j *Journal) GetBalance(addr txsandbox.Address) txsandbox.Value {
	return j.state[addr].Balance
}

func (j *Journal) SetBalance(addr txsandbox.Address, value txsandbox.Value) {
	j.update(addr, func(account *Account) { account.Balance = value })
}

func (j *Journal) GetNonce(addr txsandbox.Address) uint64 {
	return j.state[addr].Nonce
}

func (j *Journal) SetNonce(addr txsandbox.Address, nonce uint64) {
	j.update(addr, func(account *Account) { account.Nonce = nonce })
}

func (j *Journal) GetCode(addr txsandbox.Address) txsandbox.Code {
	return txsandbox.Code(bytes.Clone(j.state[addr].Code))
}

// GetCodeHash returns the hash of the code of the given account, the zero
// hash if the account does not exist.
func (j *Journal) GetCodeHash(addr txsandbox.Address) txsandbox.Hash {
	account, found := j.state[addr]
	if !found {
		return txsandbox.Hash{}
	}
	return CodeHash(account.Code)
}

func (j *Journal) GetCodeSize(addr txsandbox.Address) int {
	return len(j.state[addr].Code)
}

func (j *Journal) SetCode(addr txsandbox.Address, code txsandbox.Code) {
	code = txsandbox.Code(bytes.Clone(code))
	j.update(addr, func(account *Account) { account.Code = code })
}

func (j *Journal) GetStorage(addr txsandbox.Address, key txsandbox.Key) txsandbox.Word {
	return j.state[addr].Storage[key]
}

func (j *Journal) SetStorage(addr txsandbox.Address, key txsandbox.Key, value txsandbox.Word) {
	j.touch(addr)
	account, found := j.state[addr]
	if !found || account.Storage == nil {
		j.replace(addr, func(account *Account) { account.Storage = Storage{} })
		account = j.state[addr]
	}

	id := slot{addr, key}
	previous, present := account.Storage[key]
	if _, recorded := j.committed[id]; !recorded {
		j.committed[id] = previous
		j.undo = append(j.undo, func() { delete(j.committed, id) })
	}

	if value == (txsandbox.Word{}) {
		delete(account.Storage, key)
	} else {
		account.Storage[key] = value
	}
	j.undo = append(j.undo, func() {
		if present {
			account.Storage[key] = previous
		} else {
			delete(account.Storage, key)
		}
	})
}

// CreateAccount replaces the record of addr by an empty account. Storage
// values present before are retained as committed values.
func (j *Journal) CreateAccount(addr txsandbox.Address) {
	for key, value := range j.state[addr].Storage {
		id := slot{addr, key}
		if _, recorded := j.committed[id]; !recorded {
			j.committed[id] = value
			j.undo = append(j.undo, func() { delete(j.committed, id) })
		}
	}
	j.touch(addr)
	j.replace(addr, func(account *Account) { *account = Account{} })
}

func (j *Journal) MarkCreated(addr txsandbox.Address) {
	addToSet(j, j.created, addr)
}

func (j *Journal) IsCreated(addr txsandbox.Address) bool {
	_, found := j.created[addr]
	return found
}

func (j *Journal) CreateSnapshot() txsandbox.Snapshot {
	return txsandbox.Snapshot(len(j.undo))
}

func (j *Journal) RestoreSnapshot(snapshot txsandbox.Snapshot) {
	for len(j.undo) > int(snapshot) {
		j.undo[len(j.undo)-1]()
		j.undo = j.undo[:len(j.undo)-1]
	}
}

func (j *Journal) GetCommittedStorage(addr txsandbox.Address, key txsandbox.Key) txsandbox.Word {
	if value, found := j.committed[slot{addr, key}]; found {
		return value
	}
	return j.GetStorage(addr, key)
}

func (j *Journal) GetTransientStorage(addr txsandbox.Address, key txsandbox.Key) txsandbox.Word {
	return j.transient[slot{addr, key}]
}

func (j *Journal) SetTransientStorage(addr txsandbox.Address, key txsandbox.Key, value txsandbox.Word) {
	id := slot{addr, key}
	previous, present := j.transient[id]
	j.transient[id] = value
	j.undo = append(j.undo, func() {
		if present {
			j.transient[id] = previous
		} else {
			delete(j.transient, id)
		}
	})
}

func (j *Journal) AccessAccount(addr txsandbox.Address) txsandbox.AccessStatus {
	if j.IsAddressInAccessList(addr) {
		return txsandbox.WarmAccess
	}
	addToSet(j, j.accessedAccounts, addr)
	return txsandbox.ColdAccess
}

// AccessStorage marks the given slot as accessed. The owning account is
// marked as accessed as well.
func (j *Journal) AccessStorage(addr txsandbox.Address, key txsandbox.Key) txsandbox.AccessStatus {
	j.AccessAccount(addr)
	id := slot{addr, key}
	if _, found := j.accessedSlots[id]; found {
		return txsandbox.WarmAccess
	}
	addToSet(j, j.accessedSlots, id)
	return txsandbox.ColdAccess
}

func (j *Journal) IsAddressInAccessList(addr txsandbox.Address) bool {
	_, found := j.accessedAccounts[addr]
	return found
}

func (j *Journal) IsSlotInAccessList(addr txsandbox.Address, key txsandbox.Key) (addressPresent, slotPresent bool) {
	_, slotPresent = j.accessedSlots[slot{addr, key}]
	return j.IsAddressInAccessList(addr), slotPresent
}

// SelfDestruct marks the account as destroyed and clears its balance. The
// record is removed when the transaction is finalized.
func (j *Journal) SelfDestruct(addr txsandbox.Address) bool {
	if !j.AccountExists(addr) {
		return false
	}
	j.SetBalance(addr, txsandbox.Value{})
	if j.HasSelfDestructed(addr) {
		return false
	}
	addToSet(j, j.destructed, addr)
	return true
}

func (j *Journal) HasSelfDestructed(addr txsandbox.Address) bool {
	_, found := j.destructed[addr]
	return found
}

func (j *Journal) EmitLog(log txsandbox.Log) {
	size := len(j.logs)
	j.logs = append(j.logs, log)
	j.undo = append(j.undo, func() { j.logs = j.logs[:size] })
}

func (j *Journal) GetLogs() []txsandbox.Log {
	return slices.Clone(j.logs)
}

// Finalize removes destroyed accounts and, if deleteEmpty is set, touched
// accounts that ended up empty. Afterwards the journal is reset to the state
// of a new transaction; logs are retained.
func (j *Journal) Finalize(deleteEmpty bool) {
	for addr := range j.destructed {
		delete(j.state, addr)
	}
	if deleteEmpty {
		for addr := range j.touched {
			if account, found := j.state[addr]; found && account.IsEmpty() {
				delete(j.state, addr)
			}
		}
	}
	logs := j.logs
	*j = *NewJournal(j.state)
	j.logs = logs
}

// update applies a modification to the record of addr, creating the record
// if needed, and marks the account as touched.
func (j *Journal) update(addr txsandbox.Address, modify func(*Account)) {
	j.touch(addr)
	j.replace(addr, modify)
}

func (j *Journal) replace(addr txsandbox.Address, modify func(*Account)) {
	original, found := j.state[addr]
	modified := original
	modify(&modified)
	j.state[addr] = modified
	j.undo = append(j.undo, func() {
		if found {
			j.state[addr] = original
		} else {
			delete(j.state, addr)
		}
	})
}

func (j *Journal) touch(addr txsandbox.Address) {
	addToSet(j, j.touched, addr)
}

// addToSet adds element to set, recording an undo operation if it was not
// present before.
func addToSet[K comparable](j *Journal, set map[K]struct{}, element K) {
	if _, found := set[element]; found {
		return
	}
	set[element] = struct{}{}
	j.undo = append(j.undo, func() { delete(set, element) })
}
