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
	"encoding/hex"
	"testing"

	"github.com/ledgerlab/txsandbox/go/txsandbox"
	"pgregory.net/rand"
)

func TestKeccak256_KnownHashes(t *testing.T) {
	tests := map[string]string{
		"":    "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		"abc": "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
	}
	for input, want := range tests {
		hash := Keccak256([]byte(input))
		if got := hex.EncodeToString(hash[:]); want != got {
			t.Errorf("unexpected hash of %q: wanted %s, got %s", input, want, got)
		}
	}
}

func TestCodeHash_EmptyCode(t *testing.T) {
	if want, got := Keccak256(nil), CodeHash(nil); want != got {
		t.Errorf("wanted %v, got %v", want, got)
	}
	if want, got := EmptyCodeHash, CodeHash(txsandbox.Code{}); want != got {
		t.Errorf("wanted %v, got %v", want, got)
	}
}

func TestCodeHash_CachedResultsMatchDirectHashing(t *testing.T) {
	r := rand.New()
	codes := make([]txsandbox.Code, 50)
	for i := range codes {
		codes[i] = make(txsandbox.Code, 1+r.Intn(100))
		_, _ = r.Read(codes[i])
	}
	for round := 0; round < 3; round++ {
		for _, code := range codes {
			if want, got := Keccak256(code), CodeHash(code); want != got {
				t.Fatalf("unexpected hash for 0x%x: wanted %v, got %v", []byte(code), want, got)
			}
		}
	}
}
