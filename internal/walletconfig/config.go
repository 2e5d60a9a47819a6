// Package walletconfig loads the wallet core's configuration from a file,
// environment variables and CLI flags, in that increasing order of
// precedence, following the same flat Config-struct-with-documented-defaults
// shape as cmd/ccoind's parseFlags but bound through viper/cobra instead of
// the standard flag package (spec §11).
package walletconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/internal/syncengine"
)

// TransportMode selects how the wallet reaches its indexer.
type TransportMode string

const (
	TransportDirect TransportMode = "direct"
	TransportSOCKS5 TransportMode = "socks5"
	TransportTor    TransportMode = "tor"
)

// Config holds every recognized option from spec §6 plus the ambient
// logging/database paths from §6's env vars.
type Config struct {
	// Sync
	BatchSize                    int
	MinBatchSize                 int
	MaxBatchSize                 int
	UseServerBatchRecommendations bool
	CheckpointInterval           int
	MiniCheckpointEvery          int
	MaxParallelDecrypt           int
	LazyMemoDecode               bool
	HeavyBlockThresholdBytes     uint64
	MaxBatchMemoryBytes          uint64
	FrontierSnapshotRetain       int

	// Transport
	TransportMode TransportMode
	SOCKS5Addr    string
	TLSEnabled    bool
	TLSSPKIPin    string

	// Retry
	RetryMaxAttempts      int
	RetryInitialBackoff   time.Duration
	RetryMaxBackoff       time.Duration
	RetryBackoffMultiplier float64

	// Logging
	LogLevel      string
	DebugLogPath  string

	// Data — PIRATE_WALLET_DB_DIR/PIRATE_WALLET_DB_PATH name where wallet
	// state lives; the postgres-backed notestore.Store this core uses reads
	// its own connection settings below, so these two are mostly consumed
	// by the frontier-snapshot and debug-log path defaults a local
	// deployment derives from them.
	DBDir  string
	DBPath string

	// Database (notestore backing store)
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Indexer
	IndexerAddr string
}

// defaults mirrors parseFlags's per-field default values, bound as viper
// defaults instead of flag.*Var default arguments.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"sync.batch_size":                        500,
		"sync.min_batch_size":                    50,
		"sync.max_batch_size":                    2000,
		"sync.use_server_batch_recommendations":  true,
		"sync.checkpoint_interval":               1000,
		"sync.mini_checkpoint_every":              10,
		"sync.max_parallel_decrypt":               4,
		"sync.lazy_memo_decode":                   true,
		"sync.heavy_block_threshold_bytes":        uint64(512 * 1024),
		"sync.max_batch_memory_bytes":             uint64(64 * 1024 * 1024),
		"sync.frontier_snapshot_retain":           5,
		"transport.mode":                          string(TransportDirect),
		"transport.socks5_addr":                   "",
		"transport.tls_enabled":                   true,
		"transport.tls_spki_pin":                  "",
		"retry.max_attempts":                      5,
		"retry.initial_backoff":                   "500ms",
		"retry.max_backoff":                        "30s",
		"retry.backoff_multiplier":                2.0,
		"log.level":                                "info",
		"log.debug_log_path":                       "",
		"db.dir":                                    "",
		"db.path":                                   "",
		"db.host":                                   "localhost",
		"db.port":                                   5432,
		"db.user":                                   "pirate_wallet",
		"db.password":                               "",
		"db.name":                                   "pirate_wallet",
		"db.sslmode":                                "disable",
		"indexer.addr":                              "",
	}
}

// envBindings maps each §6 environment variable to its viper key.
var envBindings = map[string]string{
	"PIRATE_WALLET_DB_DIR":  "db.dir",
	"PIRATE_WALLET_DB_PATH": "db.path",
	"PIRATE_DEBUG_LOG_PATH": "log.debug_log_path",
}

// New builds a viper instance seeded with defaults, an optional config file,
// and the §6 environment variable overrides, ready to be bound to a cobra
// command's flags by BindFlags.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for env, key := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("walletconfig: reading %s: %w", configFile, err)
		}
	}
	return v, nil
}

// BindFlags registers the §6 keys as persistent flags on cmd and binds them
// into v, so CLI flags take precedence over the config file and environment.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.PersistentFlags()
	flags.Int("batch-size", v.GetInt("sync.batch_size"), "starting adaptive batch size")
	flags.Int("min-batch-size", v.GetInt("sync.min_batch_size"), "minimum adaptive batch size")
	flags.Int("max-batch-size", v.GetInt("sync.max_batch_size"), "maximum adaptive batch size")
	flags.Bool("use-server-batch-recommendations", v.GetBool("sync.use_server_batch_recommendations"), "honor indexer block-group hints")
	flags.Int("checkpoint-interval", v.GetInt("sync.checkpoint_interval"), "heights between full checkpoints")
	flags.Int("mini-checkpoint-every", v.GetInt("sync.mini_checkpoint_every"), "batches between mini checkpoints")
	flags.Int("max-parallel-decrypt", v.GetInt("sync.max_parallel_decrypt"), "trial-decryption worker count")
	flags.Bool("lazy-memo-decode", v.GetBool("sync.lazy_memo_decode"), "defer memo field decoding until read")
	flags.String("transport-mode", v.GetString("transport.mode"), "indexer transport: direct, socks5, tor")
	flags.String("socks5-addr", v.GetString("transport.socks5_addr"), "SOCKS5 proxy address")
	flags.Bool("tls-enabled", v.GetBool("transport.tls_enabled"), "require TLS to the indexer")
	flags.String("tls-spki-pin", v.GetString("transport.tls_spki_pin"), "expected base64 SPKI pin, empty disables pinning")
	flags.Int("retry-max-attempts", v.GetInt("retry.max_attempts"), "maximum retry attempts per RPC")
	flags.Duration("retry-initial-backoff", v.GetDuration("retry.initial_backoff"), "initial retry backoff")
	flags.Duration("retry-max-backoff", v.GetDuration("retry.max_backoff"), "maximum retry backoff")
	flags.Float64("retry-backoff-multiplier", v.GetFloat64("retry.backoff_multiplier"), "retry backoff growth factor")
	flags.String("log-level", v.GetString("log.level"), "log level (debug, info, warning, error)")
	flags.String("indexer-addr", v.GetString("indexer.addr"), "lightwalletd-compatible gRPC address")

	for _, name := range []string{
		"batch-size", "min-batch-size", "max-batch-size", "use-server-batch-recommendations",
		"checkpoint-interval", "mini-checkpoint-every", "max-parallel-decrypt", "lazy-memo-decode",
		"transport-mode", "socks5-addr", "tls-enabled", "tls-spki-pin",
		"retry-max-attempts", "retry-initial-backoff", "retry-max-backoff", "retry-backoff-multiplier",
		"log-level", "indexer-addr",
	} {
		if err := v.BindPFlag(flagKeyFor(name), flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func flagKeyFor(flagName string) string {
	switch flagName {
	case "batch-size":
		return "sync.batch_size"
	case "min-batch-size":
		return "sync.min_batch_size"
	case "max-batch-size":
		return "sync.max_batch_size"
	case "use-server-batch-recommendations":
		return "sync.use_server_batch_recommendations"
	case "checkpoint-interval":
		return "sync.checkpoint_interval"
	case "mini-checkpoint-every":
		return "sync.mini_checkpoint_every"
	case "max-parallel-decrypt":
		return "sync.max_parallel_decrypt"
	case "lazy-memo-decode":
		return "sync.lazy_memo_decode"
	case "transport-mode":
		return "transport.mode"
	case "socks5-addr":
		return "transport.socks5_addr"
	case "tls-enabled":
		return "transport.tls_enabled"
	case "tls-spki-pin":
		return "transport.tls_spki_pin"
	case "retry-max-attempts":
		return "retry.max_attempts"
	case "retry-initial-backoff":
		return "retry.initial_backoff"
	case "retry-max-backoff":
		return "retry.max_backoff"
	case "retry-backoff-multiplier":
		return "retry.backoff_multiplier"
	case "log-level":
		return "log.level"
	case "indexer-addr":
		return "indexer.addr"
	default:
		return ""
	}
}

// Load materializes a Config from v, after flags have been parsed and bound.
func Load(v *viper.Viper) (*Config, error) {
	mode := TransportMode(strings.ToLower(v.GetString("transport.mode")))
	switch mode {
	case TransportDirect, TransportSOCKS5, TransportTor:
	default:
		return nil, fmt.Errorf("walletconfig: invalid transport.mode %q", mode)
	}

	return &Config{
		BatchSize:                     v.GetInt("sync.batch_size"),
		MinBatchSize:                  v.GetInt("sync.min_batch_size"),
		MaxBatchSize:                  v.GetInt("sync.max_batch_size"),
		UseServerBatchRecommendations: v.GetBool("sync.use_server_batch_recommendations"),
		CheckpointInterval:            v.GetInt("sync.checkpoint_interval"),
		MiniCheckpointEvery:           v.GetInt("sync.mini_checkpoint_every"),
		MaxParallelDecrypt:            v.GetInt("sync.max_parallel_decrypt"),
		LazyMemoDecode:                v.GetBool("sync.lazy_memo_decode"),
		HeavyBlockThresholdBytes:      v.GetUint64("sync.heavy_block_threshold_bytes"),
		MaxBatchMemoryBytes:           v.GetUint64("sync.max_batch_memory_bytes"),
		FrontierSnapshotRetain:        v.GetInt("sync.frontier_snapshot_retain"),

		TransportMode: mode,
		SOCKS5Addr:    v.GetString("transport.socks5_addr"),
		TLSEnabled:    v.GetBool("transport.tls_enabled"),
		TLSSPKIPin:    v.GetString("transport.tls_spki_pin"),

		RetryMaxAttempts:       v.GetInt("retry.max_attempts"),
		RetryInitialBackoff:    v.GetDuration("retry.initial_backoff"),
		RetryMaxBackoff:        v.GetDuration("retry.max_backoff"),
		RetryBackoffMultiplier: v.GetFloat64("retry.backoff_multiplier"),

		LogLevel:     v.GetString("log.level"),
		DebugLogPath: v.GetString("log.debug_log_path"),

		DBDir:  v.GetString("db.dir"),
		DBPath: v.GetString("db.path"),

		DBHost:     v.GetString("db.host"),
		DBPort:     v.GetInt("db.port"),
		DBUser:     v.GetString("db.user"),
		DBPassword: v.GetString("db.password"),
		DBName:     v.GetString("db.name"),
		DBSSLMode:  v.GetString("db.sslmode"),

		IndexerAddr: v.GetString("indexer.addr"),
	}, nil
}

// ToNoteStoreConfig projects the database settings onto notestore.Config.
func (c *Config) ToNoteStoreConfig() *notestore.Config {
	nc := notestore.DefaultConfig()
	nc.Host = c.DBHost
	nc.Port = c.DBPort
	nc.User = c.DBUser
	nc.Password = c.DBPassword
	nc.Database = c.DBName
	nc.SSLMode = c.DBSSLMode
	return nc
}

// ToSyncEngineConfig projects the viper-sourced settings onto
// syncengine.Config, filling the fields this package does not expose as
// top-level keys (reorg cadence, tail-follow polling) from syncengine's own
// defaults. The fetch retry count and base backoff come from the retry keys.
func (c *Config) ToSyncEngineConfig() *syncengine.Config {
	sc := syncengine.DefaultConfig()
	sc.BatchSize = c.BatchSize
	sc.MinBatchSize = c.MinBatchSize
	sc.MaxBatchSize = c.MaxBatchSize
	sc.UseServerBatchRecommendations = c.UseServerBatchRecommendations
	sc.CheckpointInterval = uint64(c.CheckpointInterval)
	sc.MiniCheckpointEvery = c.MiniCheckpointEvery
	sc.MaxParallelDecrypt = c.MaxParallelDecrypt
	sc.LazyMemoDecode = c.LazyMemoDecode
	sc.HeavyBlockThresholdBytes = c.HeavyBlockThresholdBytes
	sc.MaxBatchMemoryBytes = c.MaxBatchMemoryBytes
	sc.FrontierSnapshotRetain = c.FrontierSnapshotRetain
	sc.FetchMaxAttempts = c.RetryMaxAttempts
	sc.FetchBaseBackoff = c.RetryInitialBackoff
	return sc
}
