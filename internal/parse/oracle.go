package parse

import "context"

// Candidate is one (name, price) pair as reported by the oracle, before
// re-validation. Price stays a string so the collision check sees the
// literal the oracle produced.
type Candidate struct {
	Name  string
	Price string
}

// Oracle is the external text-understanding fallback. Implementations make
// a single request per call and handle their own retries; errors wrapped
// with ErrAuth are non-retryable and abort the caller.
type Oracle interface {
	Extract(ctx context.Context, text string) ([]Candidate, error)
}
