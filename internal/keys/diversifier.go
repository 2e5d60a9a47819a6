package keys

import (
	"encoding/binary"
	"sync"
	"time"
)

// MaxDiversifierIndex is the top of the wallet's index counter: Next
// saturates there, and NextFreshIndex reports ErrDiversifierExhausted once
// the counter reaches it, so the last index handed out is one below. ZIP-32
// diversifier indices are 88 bits wide on the wire; the wallet only ever
// allocates sequentially out of a 32-bit counter (pkg/types.Diversifier
// carries the full 11-byte width for wire compatibility).
const MaxDiversifierIndex uint32 = 1<<32 - 1

// DefaultGapLimit bounds how far ahead of the highest used index the wallet
// will scan for activity before giving up, mirroring the gap limit used by
// BIP-44-style HD wallets.
const DefaultGapLimit uint32 = 20

// DiversifierIndex is the sequential index the wallet derives a diversifier
// from.
type DiversifierIndex uint32

// Next returns the following index, saturating at MaxDiversifierIndex.
func (d DiversifierIndex) Next() DiversifierIndex {
	if uint32(d) == MaxDiversifierIndex {
		return d
	}
	return d + 1
}

// IsMax reports whether d is MaxDiversifierIndex, where the counter stops.
func (d DiversifierIndex) IsMax() bool {
	return uint32(d) == MaxDiversifierIndex
}

// Bytes encodes the index little-endian, the same byte order the reference
// wallet uses for its persisted diversifier index.
func (d DiversifierIndex) Bytes() [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(d))
	return b
}

// DiversifierIndexFromBytes decodes a little-endian index.
func DiversifierIndexFromBytes(b [4]byte) DiversifierIndex {
	return DiversifierIndex(binary.LittleEndian.Uint32(b[:]))
}

// AddressUsage tracks how one diversifier index has been used so the
// rotation service can avoid handing the same external address out twice
// (spec §3: "never reuse a previously-shared external diversifier for a new
// payee unless policy permits").
type AddressUsage struct {
	Index        DiversifierIndex
	ShareCount   uint32
	HasReceived  bool
	HasSpent     bool
	LastShared   time.Time
	FirstReceive time.Time
	Label        string
}

// ShouldAvoid reports whether this address has accrued enough history that
// handing it out again would hurt privacy.
func (u *AddressUsage) ShouldAvoid() bool {
	return u.HasReceived || u.HasSpent || u.ShareCount > 1
}

// IsVirgin reports whether the address has never been shared or used.
func (u *AddressUsage) IsVirgin() bool {
	return u.ShareCount == 0 && !u.HasReceived && !u.HasSpent
}

// MarkShared records that the address was just handed out to a payer.
func (u *AddressUsage) MarkShared(now time.Time) {
	u.ShareCount++
	u.LastShared = now
}

// MarkReceived records the first time funds land at this address.
func (u *AddressUsage) MarkReceived(now time.Time) {
	if !u.HasReceived {
		u.HasReceived = true
		u.FirstReceive = now
	}
}

// MarkSpent records that a note at this address has been spent from.
func (u *AddressUsage) MarkSpent() {
	u.HasSpent = true
}

// RotationPolicy controls when the tracker is willing to recommend reusing
// the current address instead of minting a fresh one.
type RotationPolicy uint8

const (
	// RotationAlwaysFresh never reuses an address once it has been shared.
	RotationAlwaysFresh RotationPolicy = iota
	// RotationReuseUntilReceived keeps handing out the same address until
	// it first receives funds.
	RotationReuseUntilReceived
	// RotationManual never auto-rotates; the caller decides.
	RotationManual
)

// Tracker manages diversifier allocation and address-reuse bookkeeping for
// one key group. It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	current   DiversifierIndex
	highest   DiversifierIndex
	policy    RotationPolicy
	gapLimit  uint32
	usage     map[DiversifierIndex]*AddressUsage
}

// NewTracker creates a tracker starting at index 0 under the given policy.
func NewTracker(policy RotationPolicy) *Tracker {
	return &Tracker{
		policy:   policy,
		gapLimit: DefaultGapLimit,
		usage:    make(map[DiversifierIndex]*AddressUsage),
	}
}

// RestoreTracker rebuilds a tracker from persisted state (current/highest
// index and previously recorded usage), used on wallet load.
func RestoreTracker(policy RotationPolicy, current, highest DiversifierIndex, usage map[DiversifierIndex]*AddressUsage) *Tracker {
	t := NewTracker(policy)
	t.current = current
	t.highest = highest
	if usage != nil {
		t.usage = usage
	}
	return t
}

// WithGapLimit overrides the default scan gap limit.
func (t *Tracker) WithGapLimit(limit uint32) *Tracker {
	t.gapLimit = limit
	return t
}

// NextFreshIndex allocates the next index that is not already flagged
// should-avoid under the tracker's policy, advancing the internal counter.
func (t *Tracker) NextFreshIndex() (DiversifierIndex, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		if t.current.IsMax() {
			return 0, ErrDiversifierExhausted
		}
		idx := t.current
		t.current = t.current.Next()

		if t.policy != RotationManual {
			if u, ok := t.usage[idx]; ok && u.ShouldAvoid() {
				continue
			}
		}
		if idx > t.highest {
			t.highest = idx
		}
		return idx, nil
	}
}

// CurrentExternal returns the address index that should be reused under
// ReuseUntilReceived policy, or allocates a fresh one otherwise.
func (t *Tracker) CurrentExternal() (DiversifierIndex, error) {
	t.mu.Lock()
	if t.policy == RotationReuseUntilReceived {
		idx := t.highest
		if u, ok := t.usage[idx]; !ok || !u.HasReceived {
			t.mu.Unlock()
			return idx, nil
		}
	}
	t.mu.Unlock()
	return t.NextFreshIndex()
}

// RecordUsage merges a usage mutation into the tracker, creating the entry
// if this is the first time the index has been touched.
func (t *Tracker) RecordUsage(idx DiversifierIndex, mutate func(*AddressUsage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.usage[idx]
	if !ok {
		u = &AddressUsage{Index: idx}
		t.usage[idx] = u
	}
	mutate(u)
}

// Highest returns the highest index ever allocated.
func (t *Tracker) Highest() DiversifierIndex {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.highest
}

// GapLimit returns the configured scan gap limit.
func (t *Tracker) GapLimit() uint32 {
	return t.gapLimit
}

// EncodeCursor serializes current and highest (8 bytes, LE u32 pairs) for
// persistence across process restarts. Per-index usage records are not
// included; a restored tracker starts with an empty usage map and relies on
// CurrentExternal/NextFreshIndex's forward-only allocation rather than
// reuse-detection for indices issued before the restart.
func (t *Tracker) EncodeCursor() [8]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out [8]byte
	binary.LittleEndian.PutUint32(out[0:4], uint32(t.current))
	binary.LittleEndian.PutUint32(out[4:8], uint32(t.highest))
	return out
}

// DecodeCursor restores a tracker from a blob produced by EncodeCursor.
func DecodeCursor(policy RotationPolicy, cursor [8]byte) *Tracker {
	current := DiversifierIndex(binary.LittleEndian.Uint32(cursor[0:4]))
	highest := DiversifierIndex(binary.LittleEndian.Uint32(cursor[4:8]))
	return RestoreTracker(policy, current, highest, nil)
}
