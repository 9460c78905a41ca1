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
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ledgerlab/txsandbox/go/sandbox"
	"github.com/urfave/cli/v2"
)

var runCmd = addProfiling(cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "Execute the transactions of a scenario and print their results",
	ArgsUsage: "<scenario.json>",
	Flags: []cli.Flag{
		processorFlag,
		showDeltaFlag,
	},
})

func doRun(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("expected a single scenario file, got %d arguments", context.Args().Len())
	}
	name, err := processorFlag.Fetch(context)
	if err != nil {
		return err
	}

	logger := log.Root()
	scenario, err := loadScenario(context.Args().First(), logger)
	if err != nil {
		return err
	}
	sb, err := sandbox.New(sandbox.Config{ProcessorName: name, Logger: logger})
	if err != nil {
		return err
	}
	return runScenario(context.App.Writer, scenario, sandbox.NewClient(sb), showDeltaFlag.Fetch(context))
}

// runScenario replays the scenario and prints one line per transaction
// holding its JSON encoded result.
func runScenario(out io.Writer, scenario *scenario, client *sandbox.Client, showDelta bool) error {
	var printErr error
	err := scenario.replay(client, func(step step) {
		encoded, err := json.Marshal(step.Result)
		if err != nil {
			printErr = err
			return
		}
		fmt.Fprintf(out, "%d: %s\n", step.Index, encoded)
		if showDelta {
			for i := range step.Delta {
				fmt.Fprintf(out, "\t%v\n", &step.Delta[i])
			}
		}
	})
	if err != nil {
		return err
	}
	return printErr
}
