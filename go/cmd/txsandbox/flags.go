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
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ledgerlab/txsandbox/go/processor/geth"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
)

type processorFlagType struct {
	cli.StringFlag
}

var processorFlag = &processorFlagType{
	cli.StringFlag{
		Name:    "processor",
		Aliases: []string{"p"},
		Usage:   "name of the registered processor executing transactions",
		Value:   geth.ProcessorName,
	},
}

// Fetch returns the selected processor name after checking that a processor
// is registered under it.
func (f *processorFlagType) Fetch(context *cli.Context) (string, error) {
	name := context.String(f.Name)
	if txsandbox.GetProcessorFactory(name) == nil {
		return "", fmt.Errorf("%w %q, use one of: %v", txsandbox.ErrUnknownProcessor, name, maps.Keys(txsandbox.GetAllRegisteredProcessorFactories()))
	}
	return name, nil
}

type jobsFlagType struct {
	cli.IntFlag
}

var jobsFlag = &jobsFlagType{
	cli.IntFlag{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "number of scenario replays run simultaneously",
		Value:   runtime.NumCPU(),
	},
}

func (f *jobsFlagType) Fetch(context *cli.Context) int {
	jobs := context.Int(f.Name)
	if jobs <= 0 {
		return runtime.NumCPU()
	}
	return jobs
}

type iterationsFlagType struct {
	cli.IntFlag
}

var iterationsFlag = &iterationsFlagType{
	cli.IntFlag{
		Name:    "iterations",
		Aliases: []string{"n"},
		Usage:   "number of times the scenario is replayed",
		Value:   1000,
	},
}

func (f *iterationsFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.Name)
}

type showDeltaFlagType struct {
	cli.BoolFlag
}

var showDeltaFlag = &showDeltaFlagType{
	cli.BoolFlag{
		Name:  "show-delta",
		Usage: "print the state changes of transactions which are not committed",
	},
}

func (f *showDeltaFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.Name)
}

type verbosityFlagType struct {
	cli.IntFlag
}

var verbosityFlag = &verbosityFlagType{
	cli.IntFlag{
		Name:  "verbosity",
		Usage: "log level, 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	},
}

func (f *verbosityFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.Name)
}

// setupLogging installs a terminal logger on stderr as the default logger.
// Colors are only used if stderr is a terminal.
func setupLogging(context *cli.Context) error {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	level := log.FromLegacyLevel(verbosityFlag.Fetch(context))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)))
	return nil
}

var cpuProfileFlag = &cli.StringFlag{
	Name:      "cpuprofile",
	Usage:     "store CPU profile in the provided filename",
	TakesFile: true,
}

// addProfiling adds the cpuprofile flag to the given command and wraps its
// action to record a CPU profile if requested.
func addProfiling(command cli.Command) cli.Command {
	command.Flags = append(command.Flags, cpuProfileFlag)

	action := command.Action
	command.Action = func(context *cli.Context) error {
		if filename := context.String(cpuProfileFlag.Name); filename != "" {
			f, err := os.Create(filename)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}
		return action(context)
	}
	return command
}
