package classifier

import "errors"

var (
	// ErrTransport marks a failed metadata or event query. The contributor gets
	// a failure outcome instead of a verdict; the batch carries on.
	ErrTransport = errors.New("transport failure")

	// ErrRateLimited is a transport failure caused by the remote rate limit
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrBudgetExhausted means the process-wide query budget ran out
	ErrBudgetExhausted = errors.New("query budget exhausted")
)

// IsTransportFailure reports whether err is a per-contributor query failure
func IsTransportFailure(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrBudgetExhausted)
}
