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
	"slices"
	"strings"

	"github.com/ledgerlab/txsandbox/go/txsandbox"
	"golang.org/x/exp/maps"
)

// Delta summarizes the changes between two world states, ordered by address.
type Delta []AccountDelta

// AccountDelta describes how a single account changed. Before and After are
// nil if the account had no record on the respective side.
type AccountDelta struct {
	Address txsandbox.Address
	Before  *Account
	After   *Account
	Storage []SlotDelta
}

// SlotDelta describes a changed storage slot.
type SlotDelta struct {
	Key    txsandbox.Key
	Before txsandbox.Word
	After  txsandbox.Word
}

// Delta computes the changes turning s into after. Accounts whose records
// are identical on both sides are omitted.
func (s WorldState) Delta(after WorldState) Delta {
	addresses := maps.Keys(s)
	for addr := range after {
		if _, found := s[addr]; !found {
			addresses = append(addresses, addr)
		}
	}
	slices.SortFunc(addresses, func(a, b txsandbox.Address) int {
		return bytes.Compare(a[:], b[:])
	})

	var res Delta
	for _, addr := range addresses {
		before, hasBefore := s[addr]
		current, hasAfter := after[addr]
		if hasBefore && hasAfter && before.Equal(&current) {
			continue
		}
		entry := AccountDelta{Address: addr}
		if hasBefore {
			clone := before.Clone()
			entry.Before = &clone
		}
		if hasAfter {
			clone := current.Clone()
			entry.After = &clone
		}
		entry.Storage = storageDelta(before.Storage, current.Storage)
		res = append(res, entry)
	}
	return res
}

func storageDelta(before, after Storage) []SlotDelta {
	keys := maps.Keys(before)
	for key := range after {
		if _, found := before[key]; !found {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b txsandbox.Key) int {
		return bytes.Compare(a[:], b[:])
	})
	var res []SlotDelta
	for _, key := range keys {
		if before[key] != after[key] {
			res = append(res, SlotDelta{Key: key, Before: before[key], After: after[key]})
		}
	}
	return res
}

// IsEmpty reports whether no account changed.
func (d Delta) IsEmpty() bool {
	return len(d) == 0
}

// IsCreated reports whether the account had no record before.
func (d *AccountDelta) IsCreated() bool {
	return d.Before == nil && d.After != nil
}

// IsDeleted reports whether the account has no record afterwards.
func (d *AccountDelta) IsDeleted() bool {
	return d.Before != nil && d.After == nil
}

func (d *AccountDelta) String() string {
	var before, after Account
	if d.Before != nil {
		before = *d.Before
	}
	if d.After != nil {
		after = *d.After
	}
	var changes []string
	switch {
	case d.IsCreated():
		changes = append(changes, "created")
	case d.IsDeleted():
		changes = append(changes, "deleted")
	}
	if before.Balance != after.Balance {
		changes = append(changes, fmt.Sprintf("balance %v -> %v", before.Balance, after.Balance))
	}
	if before.Nonce != after.Nonce {
		changes = append(changes, fmt.Sprintf("nonce %d -> %d", before.Nonce, after.Nonce))
	}
	if !bytes.Equal(before.Code, after.Code) {
		changes = append(changes, fmt.Sprintf("code size %d -> %d", len(before.Code), len(after.Code)))
	}
	if len(d.Storage) > 0 {
		changes = append(changes, fmt.Sprintf("%d slots", len(d.Storage)))
	}
	return fmt.Sprintf("%v: %s", d.Address, strings.Join(changes, ", "))
}
