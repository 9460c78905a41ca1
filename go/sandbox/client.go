// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sandbox

import (
	"fmt"
	"math/big"

	"github.com/ledgerlab/txsandbox/go/state"
	"github.com/ledgerlab/txsandbox/go/txsandbox"
)

// Client exposes a Sandbox through string-typed operations as used by
// foreign callers. Addresses and payloads are hex-encoded, amounts are
// decimal or 0x-prefixed hex numbers, and revisions are named by tags. All
// inputs are parsed before the sandbox is accessed, so malformed requests
// have no effect.
type Client struct {
	sandbox *Sandbox
}

// NewClient creates a client operating on the given sandbox.
func NewClient(sandbox *Sandbox) *Client {
	return &Client{sandbox: sandbox}
}

// Sandbox returns the sandbox operated on by this client.
func (c *Client) Sandbox() *Sandbox {
	return c.sandbox
}

// GetBalance returns the balance of the hex-encoded address. Unknown
// accounts have a zero balance.
func (c *Client) GetBalance(address string) (*big.Int, error) {
	addr, err := txsandbox.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	return c.sandbox.GetBalance(addr).ToBig(), nil
}

// SetBalance replaces the account at the given address by one holding only
// the given balance. The result is true if the balance was set.
func (c *Client) SetBalance(address string, balance string) (bool, error) {
	addr, err := txsandbox.ParseAddress(address)
	if err != nil {
		return false, err
	}
	value, err := txsandbox.ParseValue(balance)
	if err != nil {
		return false, err
	}
	c.sandbox.SetBalance(addr, value)
	return true, nil
}

// CallCommit executes a transaction and commits its effects. An empty
// recipient requests the creation of a contract using data as init code.
func (c *Client) CallCommit(
	from, to, value, data string,
	gasLimit uint64,
	gasPrice string,
	tag string,
) (Result, error) {
	tx, revision, err := c.parseRequest(from, to, value, data, gasLimit, gasPrice, tag)
	if err != nil {
		return Result{}, err
	}
	return c.sandbox.CallCommit(tx, revision)
}

// CallNoCommit is like CallCommit but leaves the sandbox's state unchanged.
func (c *Client) CallNoCommit(
	from, to, value, data string,
	gasLimit uint64,
	gasPrice string,
	tag string,
) (Result, error) {
	tx, revision, err := c.parseRequest(from, to, value, data, gasLimit, gasPrice, tag)
	if err != nil {
		return Result{}, err
	}
	return c.sandbox.CallNoCommit(tx, revision)
}

// DryRun is like CallNoCommit but additionally reports the state changes the
// transaction would have caused.
func (c *Client) DryRun(
	from, to, value, data string,
	gasLimit uint64,
	gasPrice string,
	tag string,
) (Result, state.Delta, error) {
	tx, revision, err := c.parseRequest(from, to, value, data, gasLimit, gasPrice, tag)
	if err != nil {
		return Result{}, nil, err
	}
	outcome, delta, err := c.sandbox.ExecuteDryRun(tx, revision)
	if err != nil {
		return Result{}, nil, err
	}
	result, err := Normalize(outcome)
	if err != nil {
		return Result{}, nil, err
	}
	return result, delta, nil
}

func (c *Client) parseRequest(
	from, to, value, data string,
	gasLimit uint64,
	gasPrice string,
	tag string,
) (txsandbox.Transaction, txsandbox.Revision, error) {
	sender, err := txsandbox.ParseAddress(from)
	if err != nil {
		return txsandbox.Transaction{}, 0, fmt.Errorf("invalid sender: %w", err)
	}
	recipient, err := txsandbox.ParseRecipient(to)
	if err != nil {
		return txsandbox.Transaction{}, 0, fmt.Errorf("invalid recipient: %w", err)
	}
	amount, err := txsandbox.ParseValue(value)
	if err != nil {
		return txsandbox.Transaction{}, 0, fmt.Errorf("invalid value: %w", err)
	}
	input, err := txsandbox.ParseData(data)
	if err != nil {
		return txsandbox.Transaction{}, 0, err
	}
	price, err := txsandbox.ParseValue(gasPrice)
	if err != nil {
		return txsandbox.Transaction{}, 0, fmt.Errorf("invalid gas price: %w", err)
	}

	revision, known := txsandbox.LookupRevisionTag(tag)
	if !known {
		c.sandbox.logger.Warn("Unknown revision tag, using latest", "tag", tag, "revision", revision)
	}

	return txsandbox.Transaction{
		Sender:    sender,
		Recipient: recipient,
		Value:     amount,
		Input:     input,
		GasLimit:  gasLimit,
		GasPrice:  price,
	}, revision, nil
}
