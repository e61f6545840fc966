package chaintime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "locregistry/pkg/domain"
)

func TestNewRejectsNonPositiveDuration(t *testing.T) {
	_, err := New(time.Now(), 0)
	require.Error(t, err)
	_, err = New(time.Now(), -time.Second)
	require.Error(t, err)
}

func TestCurrentBlockCountsFromGenesis(t *testing.T) {
	clock, err := New(time.Now().Add(-time.Minute), 6*time.Second)
	require.NoError(t, err)

	block, err := clock.CurrentBlock(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, block, id.BlockNumber(10))
	assert.Less(t, block, id.BlockNumber(12))
}

func TestGenesisInFutureReadsAsBlockZero(t *testing.T) {
	clock, err := New(time.Now().Add(time.Hour), 6*time.Second)
	require.NoError(t, err)

	block, err := clock.CurrentBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id.BlockNumber(0), block)
}

func TestFixedIsPinned(t *testing.T) {
	block, err := Fixed(42).CurrentBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id.BlockNumber(42), block)
}
