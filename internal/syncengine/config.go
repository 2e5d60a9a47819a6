package syncengine

import (
	"runtime"
	"time"

	"github.com/piratenetwork/lightwallet-core/internal/decrypt"
)

// Config holds the tunables spec §6 lists under "Sync:".
type Config struct {
	BatchSize                    int
	MinBatchSize                 int
	MaxBatchSize                 int
	UseServerBatchRecommendations bool
	CheckpointInterval           uint64
	MiniCheckpointEvery          int
	MaxParallelDecrypt           int
	LazyMemoDecode               bool
	HeavyBlockThresholdBytes     uint64
	MaxBatchMemoryBytes          uint64

	// FrontierSnapshotRetain is FRONTIER_SNAPSHOT_RETAIN (spec §4.4.2 step 9).
	FrontierSnapshotRetain int

	// ReorgCheckInterval is how often (in batches) the engine compares the
	// locally cached block hash at a recent height with the remote value.
	ReorgCheckInterval int

	TailFollowPollInterval      time.Duration
	TailFollowErrorPollInterval time.Duration

	FetchMaxAttempts     int
	FetchBaseBackoff     time.Duration
}

// DefaultConfig mirrors the teacher's DefaultSyncConfig shape, populated
// with the spec's documented defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:                    100,
		MinBatchSize:                 10,
		MaxBatchSize:                 500,
		UseServerBatchRecommendations: false,
		CheckpointInterval:           1000,
		MiniCheckpointEvery:          10,
		MaxParallelDecrypt:           decrypt.DefaultMaxParallel(runtime.NumCPU()),
		LazyMemoDecode:               false,
		HeavyBlockThresholdBytes:     50 * 1024,
		MaxBatchMemoryBytes:          64 * 1024 * 1024,
		FrontierSnapshotRetain:       10,
		ReorgCheckInterval:           20,
		TailFollowPollInterval:       10 * time.Second,
		TailFollowErrorPollInterval:  30 * time.Second,
		FetchMaxAttempts:             3,
		FetchBaseBackoff:             100 * time.Millisecond,
	}
}
