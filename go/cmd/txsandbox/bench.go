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
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dsnet/golib/unitconv"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ledgerlab/txsandbox/go/sandbox"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var benchCmd = addProfiling(cli.Command{
	Action:    doBench,
	Name:      "bench",
	Usage:     "Repeatedly replay a scenario on fresh sandboxes and report the throughput",
	ArgsUsage: "<scenario.json>",
	Flags: []cli.Flag{
		processorFlag,
		jobsFlag,
		iterationsFlag,
	},
})

func doBench(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("expected a single scenario file, got %d arguments", context.Args().Len())
	}
	name, err := processorFlag.Fetch(context)
	if err != nil {
		return err
	}
	scenario, err := loadScenario(context.Args().First(), log.Root())
	if err != nil {
		return err
	}

	jobs := jobsFlag.Fetch(context)
	iterations := iterationsFlag.Fetch(context)
	fmt.Fprintf(context.App.Writer, "Replaying %d transactions %d times using %d jobs ...\n", len(scenario.Transactions), iterations, jobs)

	var executed atomic.Int64
	start := time.Now()
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		last, lastTime := int64(0), start
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				current := executed.Load()
				rate := float64(current-last) / now.Sub(lastTime).Seconds()
				elapsed := now.Sub(start)
				fmt.Fprintf(context.App.Writer,
					"[t=%4d:%02d] - Processing ~%s transactions per second, total %d\n",
					int(elapsed.Seconds())/60, int(elapsed.Seconds())%60,
					unitconv.FormatPrefix(rate, unitconv.SI, 0), current,
				)
				last, lastTime = current, now
			}
		}
	}()

	err = benchScenario(scenario, name, jobs, iterations, &executed)
	close(done)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	total := executed.Load()
	fmt.Fprintf(context.App.Writer, "Executed %d transactions in %v, ~%s transactions per second\n",
		total, elapsed.Round(time.Millisecond), unitconv.FormatPrefix(float64(total)/elapsed.Seconds(), unitconv.SI, 1))
	return nil
}

// benchScenario replays the scenario the given number of times, each on a
// fresh sandbox. Sandboxes are not shared among jobs. Replays stop at the
// first failure.
func benchScenario(scenario *scenario, processor string, jobs, iterations int, executed *atomic.Int64) error {
	logger := log.Root()
	group := new(errgroup.Group)
	group.SetLimit(jobs)
	for i := 0; i < iterations; i++ {
		group.Go(func() error {
			sb, err := sandbox.New(sandbox.Config{ProcessorName: processor, Logger: logger})
			if err != nil {
				return err
			}
			return scenario.replay(sandbox.NewClient(sb), func(step) {
				executed.Add(1)
			})
		})
	}
	return group.Wait()
}
