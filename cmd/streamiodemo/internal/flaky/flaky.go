// Package flaky wraps a streamio.RawReader with an injected transient
// failure rate, retried in place with github.com/avast/retry-go/v4,
// standing in for a real flaky-network transport in the demo CLI.
package flaky

import (
	"errors"
	"math/rand"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/altmount-labs/streamio/buffer"
	"github.com/altmount-labs/streamio/ioerr"
)

// Reader fails a configurable fraction of its ReadAtMostTo calls before
// ever touching the wrapped RawReader, so a failed attempt never leaves
// dst partially mutated and retrying is always safe.
type Reader struct {
	inner           readAtMostToer
	failProbability float64
	rng             *rand.Rand
	retryOpts       []retry.Option
}

type readAtMostToer interface {
	ReadAtMostTo(dst *buffer.Buffer, maxBytes int64) (int64, error)
}

// New wraps inner, failing each pull with probability failProbability
// (0..1) before retrying up to attempts times with retry-go's default
// backoff (exponential with jitter) starting from backoff.
func New(inner readAtMostToer, failProbability float64, attempts uint, backoff time.Duration) *Reader {
	return &Reader{
		inner:           inner,
		failProbability: failProbability,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		retryOpts: []retry.Option{
			retry.Attempts(attempts),
			retry.Delay(backoff),
			retry.LastErrorOnly(true),
		},
	}
}

func (r *Reader) ReadAtMostTo(dst *buffer.Buffer, maxBytes int64) (int64, error) {
	var n int64
	err := retry.Do(func() error {
		if r.rng.Float64() < r.failProbability {
			return ioerr.Wrap(ioerr.GenericIO, "simulated transient network failure", errors.New("connection reset by peer"))
		}
		var innerErr error
		n, innerErr = r.inner.ReadAtMostTo(dst, maxBytes)
		return innerErr
	}, r.retryOpts...)
	return n, err
}
