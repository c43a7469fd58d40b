/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"time"

	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// RetryPolicy bounds the resubmission of transactions rejected because of
// read conflicts with concurrent transactions.
type RetryPolicy struct {
	// MaxAttempts is the total number of submissions. Values below 2
	// disable retries.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

// Retryable reports whether err is a commit rejection caused by a read
// conflict. A fresh submission of the same proposal may succeed.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) || e.Kind != CommitRejected {
		return false
	}
	return e.Code == peer.TxValidationCode_MVCC_READ_CONFLICT || e.Code == peer.TxValidationCode_PHANTOM_READ_CONFLICT
}

// SubmitWithRetry submits a transaction and waits for it to commit,
// resubmitting it with exponential backoff while it is rejected for a read
// conflict. Each attempt is a new transaction with its own ID. The returned
// Commit is that of the successful attempt.
func (c *Contract) SubmitWithRetry(ctx context.Context, policy RetryPolicy, name string, args ...string) ([]byte, *Commit, error) {
	p := NewProposal(name, args...)
	interval := policy.InitialInterval

	for attempt := 1; ; attempt++ {
		result, commit, err := c.submitAndWait(ctx, p)
		if err == nil {
			return result, commit, nil
		}
		if !Retryable(err) || attempt >= policy.MaxAttempts {
			return nil, nil, err
		}

		logger.Warnw("Retrying transaction after read conflict", "function", name, "attempt", attempt, "backoff", interval, "error", err)
		select {
		case <-c.gateway.clock.After(interval):
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, nil, &Error{Kind: DeadlineExceeded, Op: "submit", Err: ctx.Err()}
			}
			return nil, nil, err
		}

		interval *= 2
		if policy.MaxInterval > 0 && interval > policy.MaxInterval {
			interval = policy.MaxInterval
		}
	}
}

func (c *Contract) submitAndWait(ctx context.Context, p Proposal) ([]byte, *Commit, error) {
	result, commit, err := c.submitAsync(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	status, err := commit.Status(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := status.Err(); err != nil {
		return nil, nil, err
	}

	return result, commit, nil
}
