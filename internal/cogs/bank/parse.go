package bank

import (
	"errors"
	"strconv"
	"strings"
)

// AmountOp tells the set command what to do with a parsed amount.
type AmountOp int

const (
	OpSet AmountOp = iota
	OpDeposit
	OpWithdraw
)

var errBadAmount = errors.New(`amount must be "N", "+N" or "-N"`)

// ParseAmount interprets the set command's argument: a bare number sets
// the balance, a leading + deposits, a leading - withdraws. "+0" and
// "-0" are rejected.
func ParseAmount(arg string) (AmountOp, int64, error) {
	if arg == "" {
		return OpSet, 0, errBadAmount
	}

	if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
		sum, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return OpSet, 0, errBadAmount
		}
		switch {
		case sum > 0:
			return OpDeposit, sum, nil
		case sum < 0:
			return OpWithdraw, -sum, nil
		default:
			return OpSet, 0, errBadAmount
		}
	}

	sum, err := strconv.ParseUint(arg, 10, 63)
	if err != nil {
		return OpSet, 0, errBadAmount
	}
	return OpSet, int64(sum), nil
}
