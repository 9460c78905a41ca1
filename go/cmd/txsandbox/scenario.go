// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ledgerlab/txsandbox/go/sandbox"
	"github.com/ledgerlab/txsandbox/go/state"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

const (
	defaultGasLimit = 30_000_000
	zeroAddress     = "0x0000000000000000000000000000000000000000"
)

// scenario describes a sequence of transactions executed on a sandbox seeded
// with a set of accounts.
type scenario struct {
	// Revision is the tag of the revision used for transactions not naming
	// their own. Unknown tags resolve to the latest revision.
	Revision     string                            `json:"revision,omitempty"`
	Accounts     map[txsandbox.Address]accountSpec `json:"accounts,omitempty"`
	Transactions []transactionSpec                 `json:"transactions"`
}

type accountSpec struct {
	Balance amount                           `json:"balance"`
	Nonce   uint64                           `json:"nonce,omitempty"`
	Code    string                           `json:"code,omitempty"`
	Storage map[txsandbox.Key]txsandbox.Word `json:"storage,omitempty"`
}

// transactionSpec lists the options of a transaction. Missing options are
// filled in with defaults by sanitize.
type transactionSpec struct {
	From     *string `json:"from,omitempty"`
	To       *string `json:"to,omitempty"`
	Value    *amount `json:"value,omitempty"`
	Data     *string `json:"txData,omitempty"`
	GasLimit *uint64 `json:"gasLimit,omitempty"`
	GasPrice *amount `json:"gasPrice,omitempty"`
	Revision string  `json:"revision,omitempty"`
	// NoCommit requests a speculative execution leaving the state unchanged.
	NoCommit bool `json:"noCommit,omitempty"`
}

// amount is a number given either as a JSON string, in decimal or 0x-prefixed
// hex, or as a plain JSON integer.
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte{'"'}) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	// Numbers like 1e18 are accepted as long as they denote an integer.
	value, ok := new(big.Float).SetPrec(512).SetString(n.String())
	if !ok || !value.IsInt() {
		return fmt.Errorf("invalid amount %v, must be an integer", n)
	}
	integer, _ := value.Int(nil)
	*a = amount(integer.String())
	return nil
}

func loadScenario(path string, logger log.Logger) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseScenario(data, logger)
}

func parseScenario(data []byte, logger log.Logger) (*scenario, error) {
	res := &scenario{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(res); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	for i := range res.Transactions {
		res.Transactions[i].sanitize(logger.New("tx", i))
	}
	return res, nil
}

// sanitize fills in defaults for missing options. A recipient of "0x" is
// treated like a missing one and requests a contract creation.
func (t *transactionSpec) sanitize(logger log.Logger) {
	if t.From == nil {
		logger.Warn("The from field was not set, using the zero address")
		t.From = ref(zeroAddress)
	}
	if t.To == nil || *t.To == "0x" {
		t.To = ref("")
	}
	if t.Value == nil {
		t.Value = ref(amount("0"))
	}
	if t.Data == nil {
		logger.Warn("The data field was not set, using empty data")
		t.Data = ref("")
	}
	if t.GasLimit == nil {
		logger.Warn("The gasLimit field was not set", "default", defaultGasLimit)
		t.GasLimit = ref(uint64(defaultGasLimit))
	}
	if t.GasPrice == nil {
		logger.Warn("The gasPrice field was not set, using zero")
		t.GasPrice = ref(amount("0"))
	}
}

// step is the result of a single executed transaction. Delta is only set for
// transactions which were not committed.
type step struct {
	Index  int
	Result sandbox.Result
	Delta  state.Delta
}

// replay seeds the sandbox operated by the given client with the scenario's
// accounts and executes all transactions in order. The observer, if not nil,
// is called after each transaction.
func (s *scenario) replay(client *sandbox.Client, observe func(step)) error {
	if err := s.seed(client); err != nil {
		return err
	}
	for i, tx := range s.Transactions {
		revision := tx.Revision
		if revision == "" {
			revision = s.Revision
		}

		var result sandbox.Result
		var delta state.Delta
		var err error
		if tx.NoCommit {
			result, delta, err = client.DryRun(*tx.From, *tx.To, string(*tx.Value), *tx.Data, *tx.GasLimit, string(*tx.GasPrice), revision)
		} else {
			result, err = client.CallCommit(*tx.From, *tx.To, string(*tx.Value), *tx.Data, *tx.GasLimit, string(*tx.GasPrice), revision)
		}
		if err != nil {
			return fmt.Errorf("transaction %d failed: %w", i, err)
		}
		if observe != nil {
			observe(step{Index: i, Result: result, Delta: delta})
		}
	}
	return nil
}

// seed installs the scenario's accounts. Accounts with only a balance are set
// through the client, others are installed as complete records.
func (s *scenario) seed(client *sandbox.Client) error {
	for addr, spec := range s.Accounts {
		if spec.Balance == "" {
			spec.Balance = "0"
		}
		if spec.Nonce == 0 && spec.Code == "" && len(spec.Storage) == 0 {
			if _, err := client.SetBalance(addr.String(), string(spec.Balance)); err != nil {
				return fmt.Errorf("invalid balance of %v: %w", addr, err)
			}
			continue
		}
		balance, err := txsandbox.ParseValue(string(spec.Balance))
		if err != nil {
			return fmt.Errorf("invalid balance of %v: %w", addr, err)
		}
		code, err := txsandbox.ParseData(spec.Code)
		if err != nil {
			return fmt.Errorf("invalid code of %v: %w", addr, err)
		}
		client.Sandbox().SetAccount(addr, state.Account{
			Balance: balance,
			Nonce:   spec.Nonce,
			Code:    txsandbox.Code(code),
			Storage: state.Storage(spec.Storage),
		})
	}
	return nil
}

func ref[T any](value T) *T {
	return &value
}
