// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package sandbox provides an in-memory execution environment for single
// Ethereum transactions. A Sandbox owns a world state that can be seeded
// directly and progressed by executing transactions, either committing their
// effects or speculatively on an isolated copy.
package sandbox

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ledgerlab/txsandbox/go/processor/geth"
	"github.com/ledgerlab/txsandbox/go/state"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

// Config summarizes the parameters of a new Sandbox. The zero value is a
// valid configuration selecting the geth processor and the root logger.
type Config struct {
	// Processor is the engine executing transactions. If nil, the processor
	// registered under ProcessorName is used.
	Processor txsandbox.Processor
	// ProcessorName selects a registered processor if Processor is nil.
	// Defaults to geth.ProcessorName.
	ProcessorName string
	// Logger receives debug information on executed transactions. Defaults
	// to the root logger.
	Logger log.Logger
}

// Sandbox is a handle on an isolated world state and the processor used to
// execute transactions on it.
//
// A Sandbox is owned by a single caller and performs no internal locking.
// Callers sharing an instance among goroutines need to serialize all calls,
// including the read-only ones.
type Sandbox struct {
	store     state.WorldState
	processor txsandbox.Processor
	logger    log.Logger
}

// New creates a sandbox with an empty world state.
func New(config Config) (*Sandbox, error) {
	processor := config.Processor
	if processor == nil {
		name := config.ProcessorName
		if name == "" {
			name = geth.ProcessorName
		}
		var err error
		processor, err = txsandbox.NewProcessor(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create sandbox: %w", err)
		}
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Root()
	}
	return &Sandbox{
		store:     state.WorldState{},
		processor: processor,
		logger:    logger,
	}, nil
}

// GetBalance returns the balance of the given account, zero for accounts
// never touched before.
func (s *Sandbox) GetBalance(addr txsandbox.Address) txsandbox.Value {
	return s.store.GetBalance(addr)
}

// SetBalance replaces the account at addr by one holding only the given
// balance. Nonce, code and storage of a previous record are discarded.
func (s *Sandbox) SetBalance(addr txsandbox.Address, balance txsandbox.Value) {
	s.store.SetBalance(addr, balance)
}

// GetAccount returns a copy of the record of addr and whether it exists.
func (s *Sandbox) GetAccount(addr txsandbox.Address) (state.Account, bool) {
	return s.store.GetAccount(addr)
}

// SetAccount replaces the record of addr by a copy of the given account.
func (s *Sandbox) SetAccount(addr txsandbox.Address, account state.Account) {
	s.store.SetAccount(addr, account)
}

// GetNonce returns the nonce of the given account, zero for accounts not
// present in the state.
func (s *Sandbox) GetNonce(addr txsandbox.Address) uint64 {
	return s.store[addr].Nonce
}

// GetCode returns a copy of the code deployed at the given account, nil for
// accounts without code.
func (s *Sandbox) GetCode(addr txsandbox.Address) txsandbox.Code {
	return bytes.Clone(s.store[addr].Code)
}

// GetStorage returns the value of the given slot, zero for unset slots.
func (s *Sandbox) GetStorage(addr txsandbox.Address, key txsandbox.Key) txsandbox.Word {
	return s.store[addr].Storage[key]
}

// State returns a copy of the current world state.
func (s *Sandbox) State() state.WorldState {
	return s.store.Clone()
}

// ExecuteAndCommit runs the given transaction on the sandbox's world state.
// All effects of the execution, including gas charges of reverted or halted
// transactions, are retained. If an error is returned, the world state is
// left unmodified.
func (s *Sandbox) ExecuteAndCommit(tx txsandbox.Transaction, revision txsandbox.Revision) (txsandbox.Outcome, error) {
	outcome, err := s.execute(s.store, tx, revision)
	if err != nil {
		return txsandbox.Outcome{}, err
	}
	s.logger.Debug("Transaction committed", "revision", revision, "outcome", outcome)
	return outcome, nil
}

// ExecuteDryRun runs the given transaction on a copy of the sandbox's world
// state. The returned delta lists the changes the transaction would have
// made. The sandbox's world state is never modified.
func (s *Sandbox) ExecuteDryRun(tx txsandbox.Transaction, revision txsandbox.Revision) (txsandbox.Outcome, state.Delta, error) {
	view := s.store.Clone()
	outcome, err := s.execute(view, tx, revision)
	if err != nil {
		return txsandbox.Outcome{}, nil, err
	}
	return outcome, s.store.Delta(view), nil
}

// CallCommit is like ExecuteAndCommit but reports the outcome as a result
// record.
func (s *Sandbox) CallCommit(tx txsandbox.Transaction, revision txsandbox.Revision) (Result, error) {
	outcome, err := s.ExecuteAndCommit(tx, revision)
	if err != nil {
		return Result{}, err
	}
	return Normalize(outcome)
}

// CallNoCommit executes the given transaction speculatively and reports the
// outcome as a result record. The state changes of the execution are
// dropped.
func (s *Sandbox) CallNoCommit(tx txsandbox.Transaction, revision txsandbox.Revision) (Result, error) {
	outcome, delta, err := s.ExecuteDryRun(tx, revision)
	if err != nil {
		return Result{}, err
	}
	s.logger.Debug("Transaction dry-run", "revision", revision, "outcome", outcome, "modified", len(delta))
	return Normalize(outcome)
}

// execute invokes the processor exactly once on a journal of the given state.
func (s *Sandbox) execute(world state.WorldState, tx txsandbox.Transaction, revision txsandbox.Revision) (txsandbox.Outcome, error) {
	context := state.NewJournal(world)
	snapshot := context.CreateSnapshot()
	outcome, err := s.processor.Run(revision, tx, context)
	if err != nil {
		context.RestoreSnapshot(snapshot)
		s.logger.Debug("Transaction failed", "revision", revision, "err", err)
		return txsandbox.Outcome{}, err
	}
	return outcome, nil
}
