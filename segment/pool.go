package segment

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultMaxPerShard bounds how many unshared segments a single shard will
// hold before overflow is silently discarded, per spec §4.1's "pool
// overflow silently discards" failure model, when a Pool is built with
// NewPool rather than NewPoolWithOptions.
const defaultMaxPerShard = 256

// Pool is a process-wide recycling cache for Segment storage, partitioned
// into shards the way spec §4.1 allows ("partitioned by CPU/hash to reduce
// contention") so Take/Recycle from independent goroutines rarely touch the
// same shard's lock. Each shard is a bounded LRU keyed by insertion
// sequence: once a shard is full, the oldest pooled segment is evicted
// (simply dropped, not re-queued) rather than growing unbounded — the same
// policy altmount's getBuffer/putBuffer comment calls out for why it avoids
// an unbounded sync.Pool for segment-sized buffers.
type Pool struct {
	shards []*shard
	seq    atomic.Uint64

	name string
}

type shard struct {
	mu   sync.Mutex
	free *lru.Cache[uint64, *Segment]
}

// NewPool creates a Pool with one shard per logical CPU and the default
// per-shard capacity. name is used only for diagnostic logging (see
// Take/recycle's slog.Debug calls).
func NewPool(name string) *Pool {
	return NewPoolWithOptions(name, 0, defaultMaxPerShard)
}

// NewPoolWithOptions creates a Pool with explicit shard count and
// per-shard capacity, the knobs internal/config.SegmentConfig exposes as
// pool_partitions and max_pooled_per_partition. partitions <= 0 means one
// shard per logical CPU (NewPool's default); maxPerPartition <= 0 falls
// back to defaultMaxPerShard.
func NewPoolWithOptions(name string, partitions, maxPerPartition int) *Pool {
	n := partitions
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n < 1 {
		n = 1
	}
	if maxPerPartition <= 0 {
		maxPerPartition = defaultMaxPerShard
	}
	p := &Pool{shards: make([]*shard, n), name: name}
	for i := range p.shards {
		c, err := lru.New[uint64, *Segment](maxPerPartition)
		if err != nil {
			// Only returns an error for a non-positive size, which
			// maxPerPartition is guaranteed not to be by this point.
			panic(err)
		}
		p.shards[i] = &shard{free: c}
	}
	return p
}

func (p *Pool) shardFor(hint uint64) *shard {
	return p.shards[hint%uint64(len(p.shards))]
}

// Take returns a fresh or recycled Segment with Pos=Limit=0, shared=false,
// owner=true and no links, per spec §4.1's take() contract.
func (p *Pool) Take() *Segment {
	hint := p.seq.Add(1)
	sh := p.shardFor(hint)

	sh.mu.Lock()
	var recycled *Segment
	if sh.free.Len() > 0 {
		keys := sh.free.Keys()
		k := keys[len(keys)-1]
		if v, ok := sh.free.Peek(k); ok {
			recycled = v
			sh.free.Remove(k)
		}
	}
	sh.mu.Unlock()

	if recycled != nil {
		slog.Debug("segment take (recycled)", "pool", p.name)
		return recycled
	}

	slog.Debug("segment take (fresh)", "pool", p.name)
	s := newOwned(p)
	s.Pos, s.Limit = 0, 0
	return s
}

// recycle resets and enqueues s for reuse. s must be unshared and unlinked;
// callers reach this only through Segment.Release once refs hits zero.
func (p *Pool) recycle(s *Segment) {
	if s.shared.Load() {
		// Shared storage is never recycled directly; its backing array
		// is simply dropped for GC once the last sharer releases it.
		return
	}

	s.Pos, s.Limit = 0, 0
	s.Next, s.Prev = nil, nil
	s.owner = true
	s.refs.Store(1)

	hint := p.seq.Add(1)
	sh := p.shardFor(hint)

	sh.mu.Lock()
	sh.free.Add(hint, s)
	sh.mu.Unlock()

	slog.Debug("segment recycle", "pool", p.name)
}

// Len reports the total number of segments currently pooled across all
// shards; exposed for tests and metrics, not part of the spec's contract.
func (p *Pool) Len() int {
	total := 0
	for _, sh := range p.shards {
		sh.mu.Lock()
		total += sh.free.Len()
		sh.mu.Unlock()
	}
	return total
}

// Diagnostics reports this pool's live shape for a log hook to attach to
// every record, without the pool itself needing to know anything about
// slog.Handler wiring. Satisfies internal/slogutil.DiagnosticsSource by
// structural typing.
func (p *Pool) Diagnostics() []slog.Attr {
	return []slog.Attr{
		slog.String("pool", p.name),
		slog.Int("partitions", len(p.shards)),
		slog.Int("pooled_segments", p.Len()),
	}
}

var defaultPool = NewPool("default")

// Default returns the process-wide default segment Pool used by buffer.New.
func Default() *Pool { return defaultPool }
