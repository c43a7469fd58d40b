/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import "context"

// Mode selects how a Proposal is invoked.
type Mode int

const (
	// EvaluateMode runs the proposal on one peer without recording it.
	EvaluateMode Mode = iota
	// SubmitMode endorses the proposal and sends it for ordering.
	SubmitMode
)

func (m Mode) String() string {
	if m == SubmitMode {
		return "submit"
	}
	return "evaluate"
}

// Invocation is the result of Invoke. An evaluation carries its result
// immediately; a submission carries a pending Commit, and the ledger outcome
// is only known through Commit.Status.
type Invocation struct {
	result []byte
	commit *Commit
}

// Immediate returns the result of an evaluation. ok is false for a
// submission.
func (i *Invocation) Immediate() (result []byte, ok bool) {
	if i.commit != nil {
		return nil, false
	}
	return i.result, true
}

// Pending returns the Commit of a submission. ok is false for an
// evaluation.
func (i *Invocation) Pending() (commit *Commit, ok bool) {
	return i.commit, i.commit != nil
}

// Invoke evaluates or submits p according to mode.
func (c *Contract) Invoke(ctx context.Context, p Proposal, mode Mode) (*Invocation, error) {
	if mode == SubmitMode {
		_, commit, err := c.submitAsync(ctx, p)
		if err != nil {
			return nil, err
		}
		return &Invocation{commit: commit}, nil
	}

	result, err := c.EvaluateTransaction(ctx, p)
	if err != nil {
		return nil, err
	}
	return &Invocation{result: result}, nil
}
