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

	"github.com/ledgerlab/txsandbox/go/txsandbox"
	"github.com/urfave/cli/v2"
)

var revisionsCmd = cli.Command{
	Action: doListRevisions,
	Name:   "revisions",
	Usage:  "List the accepted revision tags",
}

func doListRevisions(context *cli.Context) error {
	for _, tag := range txsandbox.RevisionTags() {
		fmt.Fprintf(context.App.Writer, "%-16s %v\n", tag, txsandbox.ParseRevisionTag(tag))
	}
	fmt.Fprintf(context.App.Writer, "Unknown tags resolve to %v\n", txsandbox.LatestRevision)
	return nil
}

var haltsCmd = cli.Command{
	Action: doListHalts,
	Name:   "halts",
	Usage:  "List the reasons reported for halted transactions",
}

func doListHalts(context *cli.Context) error {
	for _, reason := range txsandbox.AllHaltReasons() {
		fmt.Fprintln(context.App.Writer, reason)
	}
	return nil
}
