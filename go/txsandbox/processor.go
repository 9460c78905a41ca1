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

//go:generate mockgen -source processor.go -destination processor_mock.go -package txsandbox

// Processor is an interface for a component capable of executing transactions.
// Implementations execute an individual transaction to progress the world state
// provided through a transaction context. In particular, they handle the charging
// of gas fees, the checking of nonces, value transfers, contract calls, and the
// creation of new contracts.
type Processor interface {
	// Run executes the transaction under the rules of the given revision in
	// the specified context. The execution engine is invoked exactly once.
	// Reverts and halts are reported through the returned Outcome; a non-nil
	// error signals that no outcome could be produced, in which case the
	// context is left as it was before the call.
	Run(Revision, Transaction, TransactionContext) (Outcome, error)
}

// Transaction summarizes the parameters of a transaction to be executed.
// Nonce, chain id, priority fee and access lists are not part of a request;
// the engine fills in its defaults for those.
type Transaction struct {
	Sender    Address  // the sender of the transaction, paying for its execution
	Recipient *Address // the receiver of a transaction, nil if a new contract is to be created
	Value     Value    // the amount of network currency to transfer to the recipient
	Input     Data     // the input data for the transaction, the init code for creations
	GasLimit  uint64   // the maximum amount of gas that can be used by the transaction
	GasPrice  Value    // the price of a unit of gas for this transaction
}

// IsCreate reports whether the transaction deploys a new contract.
func (t Transaction) IsCreate() bool {
	return t.Recipient == nil
}
