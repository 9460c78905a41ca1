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

// WorldState is an interface to access and manipulate the state of the block chain.
// The state of the chain is a collection of accounts, each with a balance, a nonce,
// optional code and storage. Addresses without an explicit record behave like
// an account with zero balance, zero nonce, no code and empty storage.
type WorldState interface {
	AccountExists(Address) bool

	GetBalance(Address) Value
	SetBalance(Address, Value)

	GetNonce(Address) uint64
	SetNonce(Address, uint64)

	GetCode(Address) Code
	GetCodeHash(Address) Hash
	GetCodeSize(Address) int
	SetCode(Address, Code)

	GetStorage(Address, Key) Word
	SetStorage(Address, Key, Word)
}

// TransactionContext is an interface to access and manipulate the world state
// while a single transaction is executed. All modifications are journaled and
// may be rolled back to a snapshot. Additionally, a transaction context tracks
// information living only for the duration of a transaction: committed storage
// values, transient storage, access lists, logs, and self-destructs.
type TransactionContext interface {
	WorldState

	// CreateAccount explicitly creates an empty account record at addr.
	CreateAccount(addr Address)
	// MarkCreated records that a contract is deployed at addr in the ongoing
	// transaction.
	MarkCreated(addr Address)
	// IsCreated reports whether addr was deployed in the ongoing transaction.
	IsCreated(addr Address) bool

	CreateSnapshot() Snapshot
	RestoreSnapshot(Snapshot)

	// GetCommittedStorage returns the value of a slot at the beginning of
	// the transaction.
	GetCommittedStorage(Address, Key) Word

	GetTransientStorage(Address, Key) Word
	SetTransientStorage(Address, Key, Word)

	AccessAccount(Address) AccessStatus
	AccessStorage(Address, Key) AccessStatus
	IsAddressInAccessList(Address) bool
	IsSlotInAccessList(Address, Key) (addressPresent, slotPresent bool)

	// SelfDestruct marks addr as destroyed and clears its balance. Returns
	// true if it is the first time destroying addr in the ongoing transaction.
	SelfDestruct(addr Address) bool
	HasSelfDestructed(addr Address) bool

	EmitLog(Log)
	GetLogs() []Log

	// Finalize concludes the transaction: destroyed accounts are removed and,
	// if deleteEmpty is set, empty accounts touched by the transaction as well.
	Finalize(deleteEmpty bool)
}

// AccessStatus is an enum utilized to indicate cold and warm account or
// storage slot accesses.
type AccessStatus bool

const (
	ColdAccess AccessStatus = false
	WarmAccess AccessStatus = true
)

// Snapshot is a type used to represent a snapshot of the world state in a
// transaction context.
type Snapshot int
