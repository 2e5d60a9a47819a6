package syncengine

import (
	"context"
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/piratenetwork/lightwallet-core/internal/decrypt"
	"github.com/piratenetwork/lightwallet-core/internal/frontier"
	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
	"github.com/piratenetwork/lightwallet-core/pkg/walletrpc"
)

// batchOutcome summarizes one processBatch call for counters and adaptive
// sizing.
type batchOutcome struct {
	notesDecrypted     int
	commitmentsApplied int
	isHeavy            bool
}

// averageBlockBytes estimates the per-block payload size from the summed
// size of outputs/actions (spec §4.4.2 "heavy-batch detection").
func averageBlockBytes(blocks []walletrpc.CompactBlock) uint64 {
	if len(blocks) == 0 {
		return 0
	}
	var total uint64
	for _, b := range blocks {
		for _, tx := range b.Txs {
			for _, o := range tx.SaplingOutputs {
				total += uint64(len(o.Cmu) + len(o.EphemeralKey) + len(o.CiphertextPrefix))
			}
			for _, a := range tx.OrchardActions {
				total += uint64(len(a.Nullifier) + len(a.Cmx) + len(a.EphemeralKey) + len(a.CiphertextPrefix))
			}
		}
	}
	return total / uint64(len(blocks))
}

// appliedNote is one newly-discovered owned note, carrying everything the
// persistence and enrichment steps need beyond the trial-decryption result.
type appliedNote struct {
	note     *decrypt.DecryptedNote
	position uint64
	txHash   types.Hash
	txIndex  uint64
	height   uint64
}

// processBatch runs spec §4.4.2 steps 2-8 over one fetched range: trial
// decryption, frontier advancement, nullifier derivation, persistence,
// memo/nullifier enrichment, outgoing-memo recovery and spend detection.
// Step 9 (progress/checkpoint bookkeeping) is driven by the caller since it
// spans multiple batches.
func (e *Engine) processBatch(ctx context.Context, blocks []walletrpc.CompactBlock) (batchOutcome, error) {
	var outcome batchOutcome
	outcome.isHeavy = averageBlockBytes(blocks) > e.cfg.HeavyBlockThresholdBytes

	notes, err := decrypt.Batch(ctx, blocks, e.ivks, e.cfg.MaxParallelDecrypt)
	if err != nil {
		return outcome, err
	}
	outcome.notesDecrypted = len(notes)

	owned := make(map[ownedKey]*decrypt.DecryptedNote, len(notes))
	for i := range notes {
		owned[ownedKey{notes[i].Pool, notes[i].TxIndex, notes[i].ActionIndex}] = &notes[i]
	}

	var applied []appliedNote
	// owningTx accumulates one transaction row per owning transaction (spec
	// §4.4.2 step 5: "upsert a transaction row with the block timestamp"),
	// keyed by txid so a tx contributing both a Sapling and an Orchard note
	// is only upserted once.
	owningTx := make(map[types.Hash]*notestore.TxRecord)

	for _, blk := range blocks {
		for _, tx := range blk.Txs {
			var txHash types.Hash
			copy(txHash[:], tx.Hash)

			for outIdx, out := range tx.SaplingOutputs {
				var cmu types.Hash
				copy(cmu[:], out.Cmu)
				pos, err := e.frontierWallet.Sapling.Append(cmu)
				if err != nil {
					return outcome, err
				}
				outcome.commitmentsApplied++
				if n, ok := owned[ownedKey{types.PoolSapling, tx.Index, outIdx}]; ok {
					e.frontierWallet.Sapling.Mark(pos)
					applied = append(applied, appliedNote{note: n, position: pos, txHash: txHash, txIndex: tx.Index, height: blk.Height})
					owningTx[txHash] = &notestore.TxRecord{TxID: txHash, Height: blk.Height, Timestamp: uint64(blk.Time)}
				}
			}
			for actIdx, act := range tx.OrchardActions {
				var cmx types.Hash
				copy(cmx[:], act.Cmx)
				pos, err := e.frontierWallet.Orchard.Append(cmx)
				if err != nil {
					return outcome, err
				}
				outcome.commitmentsApplied++
				if n, ok := owned[ownedKey{types.PoolOrchard, tx.Index, actIdx}]; ok {
					e.frontierWallet.Orchard.Mark(pos)
					applied = append(applied, appliedNote{note: n, position: pos, txHash: txHash, txIndex: tx.Index, height: blk.Height})
					owningTx[txHash] = &notestore.TxRecord{TxID: txHash, Height: blk.Height, Timestamp: uint64(blk.Time)}
				}
			}
		}
	}

	for _, a := range applied {
		var nullifier types.Hash
		if a.note.Pool == types.PoolSapling {
			nullifier = deriveSaplingNullifier(e.ivks.Sapling, a.position, a.note.Diversifier, a.note.Value, a.note.SeedMaterial)
		}
		// Orchard nullifiers stay zero until full-transaction enrichment
		// (spec §4.4.2 step 6), handled by enrichNote below.

		tree := e.frontierWallet.Tree(a.note.Pool)
		var witnessPath []byte
		if path, err := tree.Witness(a.position); err == nil {
			witnessPath = frontier.EncodePath(path)
		}

		n := &notestore.Note{
			AccountID:    e.account,
			Pool:         a.note.Pool,
			TxID:         a.txHash,
			OutputIndex:  uint32(a.note.ActionIndex),
			Height:       a.note.Height,
			Value:        a.note.Value,
			Diversifier:  a.note.Diversifier,
			SeedMaterial: a.note.SeedMaterial,
			Commitment:   a.note.Commitment,
			Position:     a.position,
			WitnessPath:  witnessPath,
			Anchor:       tree.Root(),
			Nullifier:    nullifier,
			Memo:         a.note.Memo,
		}
		noteID, err := e.store.InsertNote(ctx, n)
		if err != nil {
			return outcome, err
		}

		if !nullifier.IsZero() {
			if err := e.reconcileSpend(ctx, noteID, nullifier); err != nil {
				return outcome, err
			}
		}

		if e.needsEnrichment(a.note.Pool, nullifier, n.Memo) {
			if err := e.enrichNote(ctx, noteID, a); err != nil {
				return outcome, err
			}
		}
	}

	for _, t := range owningTx {
		if err := e.store.UpsertTransaction(ctx, t); err != nil {
			return outcome, err
		}
	}

	if err := e.applySpends(ctx, blocks); err != nil {
		return outcome, err
	}

	return outcome, nil
}

type ownedKey struct {
	pool    types.Pool
	txIndex uint64
	index   int
}

// needsEnrichment decides whether a newly-inserted note needs a full-
// transaction fetch (spec §4.4.2 step 6): Orchard notes always do, since
// their nullifier cannot be derived from compact data at all; Sapling
// notes only do when the caller requested eager memo decoding.
func (e *Engine) needsEnrichment(pool types.Pool, nullifier types.Hash, memo types.Memo) bool {
	if pool == types.PoolOrchard {
		return nullifier.IsZero()
	}
	return !e.cfg.LazyMemoDecode && memo == (types.Memo{})
}

// enrichNote implements spec §4.4.2 step 6: fetch the full transaction,
// re-run full decryption to recover the memo and (for Orchard) ρ, verify
// the commitment, derive the Orchard nullifier, and update the note row.
// A full-ciphertext decryption failure means the compact hit was a false
// positive; the note is deleted rather than left half-populated.
func (e *Engine) enrichNote(ctx context.Context, noteID types.NoteID, a appliedNote) error {
	fullTx, err := fetchFullTx(ctx, e.indexer, a.height, a.txHash[:], a.txIndex)
	if err != nil {
		e.logger.Warnw("full transaction fetch failed during enrichment",
			"txid", a.txHash, "pool", a.note.Pool, "err", err)
		return e.store.DeleteNote(ctx, noteID)
	}

	switch a.note.Pool {
	case types.PoolSapling:
		idx := a.note.ActionIndex
		if idx < 0 || idx >= len(fullTx.SaplingOutputs) {
			e.logger.Warnw("enrichment index out of range, treating as false positive", "txid", a.txHash, "index", idx)
			return e.store.DeleteNote(ctx, noteID)
		}
		full, ok := decrypt.TrialDecryptFullSapling(fullTx.SaplingOutputs[idx], e.ivks.Sapling)
		if !ok {
			e.logger.Warnw("full-ciphertext decryption failed, discarding compact false positive", "txid", a.txHash, "pool", "sapling")
			return e.store.DeleteNote(ctx, noteID)
		}
		if full.Memo != (types.Memo{}) {
			if err := e.store.UpdateNoteMemo(ctx, noteID, full.Memo); err != nil {
				return err
			}
		}
		return nil

	case types.PoolOrchard:
		idx := a.note.ActionIndex
		if idx < 0 || idx >= len(fullTx.OrchardActions) {
			e.logger.Warnw("enrichment index out of range, treating as false positive", "txid", a.txHash, "index", idx)
			return e.store.DeleteNote(ctx, noteID)
		}
		full, ok := decrypt.TrialDecryptFullOrchard(fullTx.OrchardActions[idx], e.ivks.Orchard)
		if !ok {
			e.logger.Warnw("full-ciphertext decryption failed, discarding compact false positive", "txid", a.txHash, "pool", "orchard")
			return e.store.DeleteNote(ctx, noteID)
		}
		if full.Memo != (types.Memo{}) {
			if err := e.store.UpdateNoteMemo(ctx, noteID, full.Memo); err != nil {
				return err
			}
		}
		nullifier := deriveOrchardNullifier(e.ivks.Orchard, full.Rho, full.Diversifier, full.Value, full.SeedMaterial)
		if err := e.store.UpdateNoteNullifier(ctx, noteID, nullifier); err != nil {
			return err
		}
		return e.reconcileSpend(ctx, noteID, nullifier)
	}
	return nil
}

// reconcileSpend checks the unlinked-nullifier table for a spend that
// arrived before this note's nullifier was known, marking the note spent
// immediately if one is found (spec §4.4.2 step 8's "reconcile during
// step 4/6 of a later batch").
func (e *Engine) reconcileSpend(ctx context.Context, noteID types.NoteID, nullifier types.Hash) error {
	spendingTxID, _, found, err := e.store.ReconcileUnlinkedNullifier(ctx, e.account, nullifier)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	_, err = e.store.MarkNoteSpentByNullifier(ctx, e.account, nullifier, spendingTxID)
	return err
}

// applySpends matches every nullifier in every Sapling spend and Orchard
// action across the batch against stored owned notes (spec §4.4.2 step 8).
// A nullifier with no matching note yet — an Orchard spend racing its own
// note's enrichment, or a spend simply received before the note it spends —
// is recorded in the unlinked-nullifier table for reconciliation once the
// note's nullifier is known. Transactions that spent an owned note also
// trigger outgoing-memo recovery (step 7).
func (e *Engine) applySpends(ctx context.Context, blocks []walletrpc.CompactBlock) error {
	var ovks *decrypt.OVKs
	for _, blk := range blocks {
		for _, tx := range blk.Txs {
			var txHash types.Hash
			copy(txHash[:], tx.Hash)

			nullifiers := collectSpendNullifiers(tx)
			if len(nullifiers) == 0 {
				continue
			}

			var anySpent bool
			for _, nf := range nullifiers {
				matched, err := e.store.MarkNoteSpentByNullifier(ctx, e.account, nf, txHash)
				if err != nil {
					return err
				}
				if matched {
					anySpent = true
					continue
				}
				if err := e.store.InsertUnlinkedNullifier(ctx, e.account, nf, txHash, blk.Height); err != nil {
					return err
				}
			}

			if !anySpent {
				continue
			}
			if ovks == nil {
				loaded, err := e.loadOVKs(ctx)
				if err != nil {
					return err
				}
				ovks = loaded
			}
			if err := e.recoverOutgoingMemo(ctx, blk.Height, tx, txHash, *ovks); err != nil {
				return err
			}
		}
	}
	return nil
}

func collectSpendNullifiers(tx walletrpc.CompactTx) []types.Hash {
	var nullifiers []types.Hash
	for off := 0; off+types.HashSize <= len(tx.SaplingSpendNullifiers); off += types.HashSize {
		var nf types.Hash
		copy(nf[:], tx.SaplingSpendNullifiers[off:off+types.HashSize])
		nullifiers = append(nullifiers, nf)
	}
	for _, act := range tx.OrchardActions {
		if len(act.Nullifier) != types.HashSize {
			continue
		}
		var nf types.Hash
		copy(nf[:], act.Nullifier)
		nullifiers = append(nullifiers, nf)
	}
	return nullifiers
}

// loadOVKs fetches the account's outgoing viewing keys from the store.
// They are not kept on Engine (constructed from IVKs alone) since outgoing
// recovery is only needed once a batch actually contains one of our
// spends.
func (e *Engine) loadOVKs(ctx context.Context) (*decrypt.OVKs, error) {
	ak, err := e.store.GetAccountKey(ctx, e.account)
	if err != nil {
		return nil, err
	}
	var out decrypt.OVKs
	copy(out.Sapling[:], ak.SaplingOVK)
	copy(out.Orchard[:], ak.OrchardOVK)
	return &out, nil
}

// recoverOutgoingMemo implements spec §4.4.2 step 7: attempt output-
// recovery decryption with the wallet's OVKs across every output/action of
// a transaction that spent one of our notes, storing the first non-zero
// memo recovered as a per-transaction memo.
func (e *Engine) recoverOutgoingMemo(ctx context.Context, height uint64, tx walletrpc.CompactTx, txHash types.Hash, ovks decrypt.OVKs) error {
	fullTx, err := fetchFullTx(ctx, e.indexer, height, txHash[:], tx.Index)
	if err != nil {
		e.logger.Warnw("full transaction fetch failed during outgoing-memo recovery", "txid", txHash, "err", err)
		return nil
	}

	for i := range fullTx.SaplingOutputs {
		full, ok := decrypt.RecoverOutgoingSapling(fullTx.SaplingOutputs[i], ovks.Sapling)
		if !ok || full.Memo == (types.Memo{}) {
			continue
		}
		return e.store.UpsertTxMemo(ctx, txHash, full.Memo)
	}
	for i := range fullTx.OrchardActions {
		full, ok := decrypt.RecoverOutgoingOrchard(fullTx.OrchardActions[i], ovks.Orchard)
		if !ok || full.Memo == (types.Memo{}) {
			continue
		}
		return e.store.UpsertTxMemo(ctx, txHash, full.Memo)
	}
	return nil
}

// deriveSaplingNullifier is a structural stand-in for the real
// nullifier-deriving-key-based PRF (spec §4.4.2 step 4: "the account's
// nullifier-deriving key, diversifier, value, and rseed"); this wallet
// core has no nullifier-deriving key distinct from the IVK (internal/keys
// does not derive one — see DESIGN.md), so the IVK stands in for it here,
// keyed the same way decrypt.reconstructCommitment is.
func deriveSaplingNullifier(ivk [32]byte, position uint64, diversifier types.Diversifier, value uint64, rseed [32]byte) types.Hash {
	h, _ := blake2b.New256(ivk[:])
	var posBytes [8]byte
	binary.LittleEndian.PutUint64(posBytes[:], position)
	h.Write(posBytes[:])
	h.Write(diversifier[:])
	var valBytes [8]byte
	binary.LittleEndian.PutUint64(valBytes[:], value)
	h.Write(valBytes[:])
	h.Write(rseed[:])
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// deriveOrchardNullifier is deriveSaplingNullifier's Orchard counterpart:
// the same structural stand-in PRF, with ρ hashed in place of leaf position
// (spec §4.4.2 step 6: "derive the Orchard nullifier from (FVK, address,
// value, ρ, rseed)").
func deriveOrchardNullifier(ivk [64]byte, rho [32]byte, diversifier types.Diversifier, value uint64, rseed [32]byte) types.Hash {
	h, _ := blake2b.New256(ivk[:])
	h.Write(rho[:])
	h.Write(diversifier[:])
	var valBytes [8]byte
	binary.LittleEndian.PutUint64(valBytes[:], value)
	h.Write(valBytes[:])
	h.Write(rseed[:])
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// batchEnd resolves the end height of the next batch starting at cur,
// per spec §4.4.2: a server-recommended group end when enabled (capped at
// max_batch_size), otherwise the adaptive size.
func (e *Engine) batchEnd(ctx context.Context, cur, targetHeight uint64) uint64 {
	if e.cfg.UseServerBatchRecommendations {
		if hint, err := e.indexer.GetLiteWalletBlockGroup(ctx, cur); err == nil && hint.EndHeight >= cur {
			end := hint.EndHeight
			if max := cur + uint64(e.cfg.MaxBatchSize) - 1; end > max {
				end = max
			}
			if end > targetHeight {
				end = targetHeight
			}
			return end
		}
	}

	n := e.nextBatchSize()
	end := cur + uint64(n) - 1
	if end > targetHeight {
		end = targetHeight
	}
	return end
}

// nextBatchSize implements the adaptive half of spec §4.4.2's sizing
// policy: the current adaptive size clamped to [min, max], then reduced to
// fit the memory guard. The server-recommended path is handled by batchEnd.
func (e *Engine) nextBatchSize() int {
	n := e.currentBatchSize
	if n < e.cfg.MinBatchSize {
		n = e.cfg.MinBatchSize
	}
	if n > e.cfg.MaxBatchSize {
		n = e.cfg.MaxBatchSize
	}
	if e.cfg.HeavyBlockThresholdBytes > 0 && e.cfg.MaxBatchMemoryBytes > 0 {
		maxByMemory := e.cfg.MaxBatchMemoryBytes / e.cfg.HeavyBlockThresholdBytes
		if maxByMemory > 0 && uint64(n) > maxByMemory {
			n = int(maxByMemory)
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// adjustBatchSize implements the shrink/grow policy following heavy-batch
// detection (spec §4.4.2 step 1).
func (e *Engine) adjustBatchSize(heavy bool) {
	if heavy {
		e.consecutiveHeavy++
		shrunk := e.currentBatchSize - e.currentBatchSize*3/4
		if shrunk < e.cfg.MinBatchSize {
			shrunk = e.cfg.MinBatchSize
		}
		e.currentBatchSize = shrunk
		return
	}
	e.consecutiveHeavy = 0
	grown := e.currentBatchSize + e.cfg.BatchSize/4
	if grown > e.cfg.BatchSize {
		grown = e.cfg.BatchSize
	}
	if grown > e.cfg.MaxBatchSize {
		grown = e.cfg.MaxBatchSize
	}
	e.currentBatchSize = grown
}

// maybeCheckpoint implements spec §4.4.2 step 9's snapshot cadence: every
// mini_checkpoint_every batches, or immediately on the second consecutive
// heavy batch.
func (e *Engine) maybeCheckpoint(ctx context.Context, height uint64, heavy bool) error {
	e.batchesSinceSnapshot++
	forceByHeavy := heavy && e.consecutiveHeavy >= 2
	due := e.cfg.MiniCheckpointEvery > 0 && e.batchesSinceSnapshot >= e.cfg.MiniCheckpointEvery

	if !due && !forceByHeavy {
		return nil
	}

	e.frontierWallet.Sapling.Checkpoint(height)
	e.frontierWallet.Orchard.Checkpoint(height)

	blob := e.frontierWallet.Serialize()
	if err := e.store.SaveFrontierSnapshot(ctx, height, blob); err != nil {
		return err
	}
	if err := e.store.PruneOldSnapshots(ctx, e.cfg.FrontierSnapshotRetain); err != nil {
		return err
	}
	e.lastSnapshotHeight_ = height
	e.batchesSinceSnapshot = 0
	return nil
}
