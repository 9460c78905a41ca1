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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

// ProcessorName is the name under which this processor is registered.
const ProcessorName = "geth"

func init() {
	txsandbox.MustRegisterProcessorFactory(ProcessorName, func() txsandbox.Processor {
		return NewProcessor()
	})
}

// Processor executes transactions using the state transition and the EVM
// implementation of go-ethereum.
type Processor struct {
	logger log.Logger
}

// NewProcessor creates a processor logging through the default logger.
func NewProcessor() *Processor {
	return NewProcessorWithLogger(log.Root())
}

func NewProcessorWithLogger(logger log.Logger) *Processor {
	return &Processor{logger: logger}
}

func (p *Processor) Run(
	revision txsandbox.Revision,
	transaction txsandbox.Transaction,
	context txsandbox.TransactionContext,
) (txsandbox.Outcome, error) {
	env := BuildEnvironment(transaction, revision)
	env.Message.Nonce = context.GetNonce(transaction.Sender)

	stateDb := newStateDbAdapter(context)
	snapshot := context.CreateSnapshot()

	evm := vm.NewEVM(env.Block, core.NewEVMTxContext(&env.Message), stateDb, env.ChainConfig, vm.Config{})
	gasPool := new(core.GasPool).AddGas(env.Message.GasLimit)
	result, err := core.ApplyMessage(evm, &env.Message, gasPool)

	if err != nil {
		context.RestoreSnapshot(snapshot)
		reason, isHalt := classifyRejection(err, &env.Message)
		if !isHalt {
			return txsandbox.Outcome{}, fmt.Errorf("%w: %w", txsandbox.ErrEngineFailure, err)
		}
		p.logger.Debug("Transaction rejected", "revision", revision, "reason", reason, "err", err)
		return txsandbox.NewHalt(0, reason), nil
	}

	outcome, err := p.makeOutcome(env, result)
	if err != nil {
		context.RestoreSnapshot(snapshot)
		return txsandbox.Outcome{}, err
	}
	context.Finalize(env.Rules.IsEIP158)
	return outcome, nil
}

func (p *Processor) makeOutcome(env Environment, result *core.ExecutionResult) (txsandbox.Outcome, error) {
	msg := &env.Message
	if result.Err == nil {
		if msg.To == nil {
			created := txsandbox.Address(crypto.CreateAddress(msg.From, msg.Nonce))
			return txsandbox.NewCreateSuccess(result.UsedGas, created, result.ReturnData), nil
		}
		return txsandbox.NewCallSuccess(result.UsedGas, result.ReturnData), nil
	}

	if errors.Is(result.Err, vm.ErrExecutionReverted) {
		return txsandbox.NewRevert(result.UsedGas, result.ReturnData), nil
	}

	reason, found := classifyExecution(result.Err, msg.To, vm.ActivePrecompiles(env.Rules))
	if !found {
		return txsandbox.Outcome{}, fmt.Errorf("%w: unclassified execution error: %w", txsandbox.ErrEngineFailure, result.Err)
	}
	p.logger.Trace("Transaction halted", "revision", env.Revision, "reason", reason, "err", result.Err)
	return txsandbox.NewHalt(result.UsedGas, reason), nil
}
