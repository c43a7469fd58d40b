/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

// TxState is the furthest point a transaction reached. Submitted
// transactions move from Proposed to Endorsed to Ordered and end as
// Committed or Rejected; evaluations end as Evaluated.
type TxState int

const (
	Proposed TxState = iota
	Endorsed
	Ordered
	Committed
	Rejected
	Evaluated
)

var txStateNames = [...]string{
	Proposed:  "proposed",
	Endorsed:  "endorsed",
	Ordered:   "ordered",
	Committed: "committed",
	Rejected:  "rejected",
	Evaluated: "evaluated",
}

func (s TxState) String() string {
	if s < 0 || int(s) >= len(txStateNames) {
		return "unknown"
	}
	return txStateNames[s]
}

// Terminal reports whether no further transitions are possible.
func (s TxState) Terminal() bool {
	return s == Committed || s == Rejected || s == Evaluated
}
