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
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

// chainId is the chain id reported by the CHAINID instruction. Requests do
// not carry a chain id, the engine's mainnet default is used.
const chainId = 1

// Environment is the complete input of a single engine invocation. It is
// derived from a transaction request and a revision and never reused.
type Environment struct {
	Revision    txsandbox.Revision
	ChainConfig *params.ChainConfig
	Rules       params.Rules
	Block       vm.BlockContext
	Message     core.Message
}

// BuildEnvironment translates a transaction request into the input of the
// execution engine. It is a pure function of its arguments. The nonce of the
// resulting message is zero; it has to be filled in from the state the
// transaction is executed on.
func BuildEnvironment(tx txsandbox.Transaction, revision txsandbox.Revision) Environment {
	chainConfig := MakeChainConfig(revision)
	block := makeBlockContext(revision)
	return Environment{
		Revision:    revision,
		ChainConfig: chainConfig,
		Rules:       chainConfig.Rules(block.BlockNumber, block.Random != nil, block.Time),
		Block:       block,
		Message:     makeMessage(tx),
	}
}

// MakeChainConfig returns a chain config in which all forks up to and
// including the given revision are active at genesis, and no later fork is.
func MakeChainConfig(revision txsandbox.Revision) *params.ChainConfig {
	activeFrom := func(fork txsandbox.Revision) *big.Int {
		if revision >= fork {
			return big.NewInt(0)
		}
		return nil
	}
	activeAt := func(fork txsandbox.Revision) *uint64 {
		if revision >= fork {
			return new(uint64)
		}
		return nil
	}

	chainConfig := &params.ChainConfig{
		ChainID:             big.NewInt(chainId),
		HomesteadBlock:      activeFrom(txsandbox.R02_Homestead),
		DAOForkBlock:        activeFrom(txsandbox.R03_DAOFork),
		DAOForkSupport:      revision >= txsandbox.R03_DAOFork,
		EIP150Block:         activeFrom(txsandbox.R04_Tangerine),
		EIP155Block:         activeFrom(txsandbox.R05_SpuriousDragon),
		EIP158Block:         activeFrom(txsandbox.R05_SpuriousDragon),
		ByzantiumBlock:      activeFrom(txsandbox.R06_Byzantium),
		ConstantinopleBlock: activeFrom(txsandbox.R07_Constantinople),
		PetersburgBlock:     activeFrom(txsandbox.R08_Petersburg),
		IstanbulBlock:       activeFrom(txsandbox.R09_Istanbul),
		MuirGlacierBlock:    activeFrom(txsandbox.R10_MuirGlacier),
		BerlinBlock:         activeFrom(txsandbox.R11_Berlin),
		LondonBlock:         activeFrom(txsandbox.R12_London),
		ArrowGlacierBlock:   activeFrom(txsandbox.R13_ArrowGlacier),
		GrayGlacierBlock:    activeFrom(txsandbox.R14_GrayGlacier),
		MergeNetsplitBlock:  activeFrom(txsandbox.R15_Merge),
		ShanghaiTime:        activeAt(txsandbox.R16_Shanghai),
		CancunTime:          activeAt(txsandbox.R17_Cancun),
	}

	// Go-ethereum considers Petersburg active alongside Constantinople if no
	// Petersburg block is configured.
	if revision == txsandbox.R07_Constantinople {
		chainConfig.PetersburgBlock = new(big.Int).SetUint64(math.MaxUint64)
	}
	if revision >= txsandbox.R15_Merge {
		chainConfig.TerminalTotalDifficulty = big.NewInt(0)
	}
	return chainConfig
}

func makeBlockContext(revision txsandbox.Revision) vm.BlockContext {
	block := vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     func(uint64) common.Hash { return common.Hash{} },
		GasLimit:    params.MaxGasLimit,
		BlockNumber: big.NewInt(0),
		Time:        0,
		Difficulty:  big.NewInt(0),
		BaseFee:     big.NewInt(0),
		BlobBaseFee: big.NewInt(0),
	}
	// The engine derives the activation of the merge from the presence of
	// the random beacon value.
	if revision >= txsandbox.R15_Merge {
		block.Random = &common.Hash{}
	}
	return block
}

func makeMessage(tx txsandbox.Transaction) core.Message {
	var recipient *common.Address
	if tx.Recipient != nil {
		to := common.Address(*tx.Recipient)
		recipient = &to
	}
	return core.Message{
		From:      common.Address(tx.Sender),
		To:        recipient,
		Value:     tx.Value.ToBig(),
		GasLimit:  tx.GasLimit,
		GasPrice:  tx.GasPrice.ToBig(),
		GasFeeCap: tx.GasPrice.ToBig(),
		GasTipCap: tx.GasPrice.ToBig(),
		Data:      append([]byte(nil), tx.Input...),
	}
}
