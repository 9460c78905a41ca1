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
	"fmt"
	"maps"
	"slices"

	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

// ----------------------------------------------------------------------------
// WorldState
// ----------------------------------------------------------------------------

// WorldState is the account store of a sandbox. It maps addresses to account
// records; an address without a record is an implicit default account with
// zero balance, zero nonce, no code and empty storage. A WorldState is not
// safe for concurrent use.
type WorldState map[txsandbox.Address]Account

// GetBalance returns the balance of the given account, zero if the account
// has no record.
func (s WorldState) GetBalance(addr txsandbox.Address) txsandbox.Value {
	return s[addr].Balance
}

// SetBalance replaces the record of the given account by one holding only
// the given balance. Nonce, code and storage are reset.
func (s WorldState) SetBalance(addr txsandbox.Address, balance txsandbox.Value) {
	s[addr] = Account{Balance: balance}
}

// GetAccount returns a copy of the record of the given account and whether
// an explicit record exists.
func (s WorldState) GetAccount(addr txsandbox.Address) (Account, bool) {
	account, found := s[addr]
	return account.Clone(), found
}

// SetAccount replaces the record of the given account by a copy of account.
func (s WorldState) SetAccount(addr txsandbox.Address, account Account) {
	s[addr] = account.Clone()
}

// Clone creates a deep copy of the world state sharing no mutable data with
// the original.
func (s WorldState) Clone() WorldState {
	if s == nil {
		return nil
	}
	res := make(WorldState, len(s))
	for k, v := range s {
		res[k] = v.Clone()
	}
	return res
}

func (s WorldState) Equal(other WorldState) bool {
	return equalMapsIgnoringZero(s, other, func(a, b Account) bool {
		return a.Equal(&b)
	})
}

// Diff lists human-readable differences between the two states in a
// deterministic order.
func (s WorldState) Diff(other WorldState) []string {
	return diffMaps("", s, other, func(address txsandbox.Address, a, b Account) []string {
		if a.Equal(&b) {
			return nil
		}
		return a.Diff(fmt.Sprintf("%v/", address), &b)
	})
}

// ----------------------------------------------------------------------------
// Account
// ----------------------------------------------------------------------------

// Account represents an account in the world state. The default account is
// an empty account.
type Account struct {
	Balance txsandbox.Value
	Nonce   uint64
	Code    txsandbox.Code
	Storage Storage
}

// IsEmpty reports whether the account has zero balance, zero nonce and no
// code. Storage is not considered.
func (a *Account) IsEmpty() bool {
	return a.Balance.IsZero() && a.Nonce == 0 && len(a.Code) == 0
}

func (a *Account) Equal(other *Account) bool {
	return a.Balance == other.Balance &&
		a.Nonce == other.Nonce &&
		bytes.Equal(a.Code, other.Code) &&
		a.Storage.Equal(other.Storage)
}

func (a *Account) Clone() Account {
	return Account{
		Balance: a.Balance,
		Nonce:   a.Nonce,
		Code:    bytes.Clone(a.Code),
		Storage: a.Storage.Clone(),
	}
}

func (a *Account) Diff(prefix string, other *Account) []string {
	var res []string
	if a.Balance != other.Balance {
		res = append(res, fmt.Sprintf("different balance: %v != %v", a.Balance, other.Balance))
	}
	if a.Nonce != other.Nonce {
		res = append(res, fmt.Sprintf("different nonce: %v != %v", a.Nonce, other.Nonce))
	}
	if !bytes.Equal(a.Code, other.Code) {
		res = append(res, fmt.Sprintf("different code: 0x%x != 0x%x", []byte(a.Code), []byte(other.Code)))
	}
	res = append(res, a.Storage.Diff("Storage/", other.Storage)...)
	for i, diff := range res {
		res[i] = prefix + diff
	}
	return res
}

// ----------------------------------------------------------------------------
// Storage
// ----------------------------------------------------------------------------

// Storage represents the storage of an account in the world state. Zero-valued
// entries are equivalent to missing entries.
type Storage map[txsandbox.Key]txsandbox.Word

func (s Storage) Equal(other Storage) bool {
	return equalMapsIgnoringZero(s, other, func(a, b txsandbox.Word) bool {
		return a == b
	})
}

func (s Storage) Clone() Storage {
	return maps.Clone(s)
}

func (s Storage) Diff(prefix string, other Storage) []string {
	return diffMaps(prefix, s, other, func(k txsandbox.Key, a, b txsandbox.Word) []string {
		if a == b {
			return nil
		}
		return []string{
			fmt.Sprintf("different value for key %v: %v != %v", k, a, b),
		}
	})
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// equalMapsIgnoringZero compares two maps, ignoring zero-valued entries.
func equalMapsIgnoringZero[K comparable, V any](a, b map[K]V, equal func(V, V) bool) bool {
	for k, v := range a {
		if !equal(v, b[k]) {
			return false
		}
	}
	for k, v := range b {
		if !equal(v, a[k]) {
			return false
		}
	}
	return true
}

// diffMaps compares two maps and returns a sorted list of differences.
func diffMaps[K comparable, V any](prefix string, a, b map[K]V, diff func(K, V, V) []string) []string {
	var diffs []string
	for k, v := range a {
		diffs = append(diffs, diff(k, v, b[k])...)
	}
	for k, v := range b {
		if _, overlap := a[k]; !overlap {
			diffs = append(diffs, diff(k, a[k], v)...)
		}
	}
	for i, diff := range diffs {
		diffs[i] = prefix + diff
	}
	slices.Sort(diffs)
	return diffs
}
