// Package chaintime supplies the monotonic block counter used for
// collection expiry comparisons. The registry never reads wall-clock
// time directly; it compares block numbers supplied by this collaborator.
package chaintime

import (
	"context"
	"fmt"
	"time"

	id "locregistry/pkg/domain"
)

// SystemChainTime derives the current block from elapsed wall-clock time
// since a configured genesis instant.
type SystemChainTime struct {
	genesis       time.Time
	blockDuration time.Duration
}

func New(genesis time.Time, blockDuration time.Duration) (*SystemChainTime, error) {
	if blockDuration <= 0 {
		return nil, fmt.Errorf("block duration must be positive")
	}
	return &SystemChainTime{genesis: genesis, blockDuration: blockDuration}, nil
}

func (c *SystemChainTime) CurrentBlock(_ context.Context) (id.BlockNumber, error) {
	elapsed := time.Since(c.genesis)
	if elapsed < 0 {
		return 0, nil
	}
	return id.BlockNumber(elapsed / c.blockDuration), nil
}

// Fixed returns a ChainTime pinned at one block, for tests and tooling.
type Fixed id.BlockNumber

func (f Fixed) CurrentBlock(_ context.Context) (id.BlockNumber, error) {
	return id.BlockNumber(f), nil
}
