package syncengine

import (
	"sync/atomic"
	"time"
)

// Counters are the atomic performance counters spec §4.4.6 names, safe to
// read from a progress observer concurrently with the batch loop.
type Counters struct {
	blocksProcessed     atomic.Uint64
	notesDecrypted      atomic.Uint64
	commitmentsApplied  atomic.Uint64
	batchesProcessed    atomic.Uint64
	lastBatchMs         atomic.Uint64
	totalTimeMs         atomic.Uint64
}

// Snapshot is a point-in-time read of Counters plus the derived rates spec
// §4.4.6 lists (blocks_per_second, avg_batch_ms).
type Snapshot struct {
	BlocksProcessed    uint64
	NotesDecrypted     uint64
	CommitmentsApplied uint64
	BatchesProcessed   uint64
	LastBatchMs        uint64
	TotalTimeMs        uint64
	BlocksPerSecond    float64
	AvgBatchMs         float64
}

func (c *Counters) recordBatch(blocks, notes, commitments uint64, dur time.Duration) {
	c.blocksProcessed.Add(blocks)
	c.notesDecrypted.Add(notes)
	c.commitmentsApplied.Add(commitments)
	c.batchesProcessed.Add(1)
	ms := uint64(dur.Milliseconds())
	c.lastBatchMs.Store(ms)
	c.totalTimeMs.Add(ms)
}

// Read takes a consistent-enough snapshot for progress reporting.
func (c *Counters) Read() Snapshot {
	s := Snapshot{
		BlocksProcessed:    c.blocksProcessed.Load(),
		NotesDecrypted:     c.notesDecrypted.Load(),
		CommitmentsApplied: c.commitmentsApplied.Load(),
		BatchesProcessed:   c.batchesProcessed.Load(),
		LastBatchMs:        c.lastBatchMs.Load(),
		TotalTimeMs:        c.totalTimeMs.Load(),
	}
	if s.TotalTimeMs > 0 {
		s.BlocksPerSecond = float64(s.BlocksProcessed) / (float64(s.TotalTimeMs) / 1000.0)
	}
	if s.BatchesProcessed > 0 {
		s.AvgBatchMs = float64(s.TotalTimeMs) / float64(s.BatchesProcessed)
	}
	return s
}
