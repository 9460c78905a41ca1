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
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
	"golang.org/x/crypto/sha3"
)

// codeHashCacheSize bounds the number of code hashes retained across all
// journals of the process.
const codeHashCacheSize = 1 << 10

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

// Keccak256 computes the legacy Keccak-256 hash of the given data.
func Keccak256(data []byte) txsandbox.Hash {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res txsandbox.Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}

// EmptyCodeHash is the hash of empty code.
var EmptyCodeHash = Keccak256(nil)

var codeHashCache = func() *lru.Cache[string, txsandbox.Hash] {
	cache, err := lru.New[string, txsandbox.Hash](codeHashCacheSize)
	if err != nil {
		panic(err)
	}
	return cache
}()

// CodeHash returns the hash of the given code. Results are kept in a
// process-wide LRU cache keyed by the code itself.
func CodeHash(code txsandbox.Code) txsandbox.Hash {
	if len(code) == 0 {
		return EmptyCodeHash
	}
	key := string(code)
	if hash, found := codeHashCache.Get(key); found {
		return hash
	}
	hash := Keccak256(code)
	codeHashCache.Add(key, hash)
	return hash
}
