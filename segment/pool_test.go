package segment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolTakeThenReleaseRoundTrips(t *testing.T) {
	p := NewPoolWithOptions("test", 1, defaultMaxPerShard)
	require.Equal(t, 0, p.Len())

	s := p.Take()
	s.Release()
	assert.Equal(t, 1, p.Len())

	again := p.Take()
	assert.Same(t, s, again, "the only pooled segment must be the one just released")
}

func TestPoolOverflowEvictsOldest(t *testing.T) {
	single := NewPoolWithOptions("single", 1, defaultMaxPerShard)

	held := make([]*Segment, 0, defaultMaxPerShard+10)
	for i := 0; i < defaultMaxPerShard+10; i++ {
		held = append(held, single.Take())
	}
	for _, s := range held {
		s.Release()
	}

	assert.LessOrEqual(t, single.Len(), defaultMaxPerShard, "a single shard must never exceed its configured capacity")
}

func TestNewPoolWithOptionsHonorsExplicitPartitionsAndCapacity(t *testing.T) {
	p := NewPoolWithOptions("custom", 3, 5)
	assert.Len(t, p.shards, 3)

	for i := 0; i < 20; i++ {
		p.Take().Release()
	}
	assert.LessOrEqual(t, p.Len(), 15, "total pooled segments must respect partitions * max-per-partition")
}

func TestNewPoolWithOptionsZeroPartitionsFallsBackToGOMAXPROCS(t *testing.T) {
	p := NewPoolWithOptions("fallback", 0, 0)
	assert.GreaterOrEqual(t, len(p.shards), 1)
}

func TestPoolConcurrentTakeRelease(t *testing.T) {
	p := NewPool("concurrent")
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := p.Take()
				s.Data[0] = byte(j)
				s.Release()
			}
		}()
	}
	wg.Wait()
}

func TestDefaultPoolIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
