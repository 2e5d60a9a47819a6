// Package walletrpc defines the indexer wire contract the sync engine
// consumes (spec §6): compact block streaming, transaction fetch, tree
// state, batch-size hints, broadcast and chain-info. The transport is
// gRPC; wire messages are encoded with raw protobuf primitives
// (google.golang.org/protobuf/encoding/protowire) rather than
// protoc-generated bindings, since no code generator runs in this
// pipeline — each message implements its own Marshal/Unmarshal using the
// same varint/length-delimited primitives protoc-generated code would.
package walletrpc

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// BlockID identifies a compact block by height and hash.
type BlockID struct {
	Height uint64
	Hash   []byte
}

func (b *BlockID) Marshal() []byte {
	var out []byte
	out = protowire.AppendTag(out, 1, protowire.VarintType)
	out = protowire.AppendVarint(out, b.Height)
	if len(b.Hash) > 0 {
		out = protowire.AppendTag(out, 2, protowire.BytesType)
		out = protowire.AppendBytes(out, b.Hash)
	}
	return out
}

func (b *BlockID) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b.Height = v
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b.Hash = append([]byte(nil), v...)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

// CompactSaplingOutput carries the fields needed for Sapling trial
// decryption: the commitment, the ephemeral key, and the first 52 bytes of
// ciphertext (leadbyte || diversifier(11) || value(8) || rseed(32)).
type CompactSaplingOutput struct {
	Cmu               []byte
	EphemeralKey      []byte
	CiphertextPrefix  []byte
}

// CompactOrchardAction carries the fields needed for Orchard trial
// decryption.
type CompactOrchardAction struct {
	Nullifier        []byte
	Cmx              []byte
	EphemeralKey     []byte
	CiphertextPrefix []byte
}

// CompactTx is one transaction's worth of compact data.
type CompactTx struct {
	Index            uint64
	Hash             []byte
	SaplingSpendNullifiers []byte // concatenated 32-byte nullifiers
	SaplingOutputs   []CompactSaplingOutput
	OrchardActions   []CompactOrchardAction
}

// CompactBlock is the stripped-down block the indexer streams for
// light-wallet scanning.
type CompactBlock struct {
	Height   uint64
	Hash     []byte
	PrevHash []byte
	Time     uint32
	Txs      []CompactTx
}

// TreeState is the hex-encoded Sapling/Orchard frontier at a given height,
// as returned by get_tree_state / get_bridge_tree_state.
type TreeState struct {
	Height         uint64
	Hash           []byte
	SaplingTree    string
	OrchardTree    string
}

// BlockGroupHint is the server's suggested end height for the next batch
// (get_lite_wallet_block_group), targeting ~4 MB of data.
type BlockGroupHint struct {
	StartHeight uint64
	EndHeight   uint64
}

// SendResult is the outcome of broadcasting a raw transaction.
type SendResult struct {
	ErrorCode    int32
	ErrorMessage string
	Txid         []byte
}

// LightdInfo is the indexer's self-description.
type LightdInfo struct {
	ChainName               string
	SaplingActivationHeight uint64
	BlockHeight             uint64
	EstimatedHeight         uint64
}

// RawTransaction is a full transaction as returned by get_transaction, used
// for memo and Orchard-nullifier enrichment. Data is itself a wire-encoded
// FullTx (DecodeFullTx), the full-ciphertext counterpart of CompactTx.
type RawTransaction struct {
	Data   []byte
	Height uint64
}

// DecodeFullTx parses Data into the full-ciphertext transaction shape the
// enrichment and outgoing-memo-recovery passes decrypt against.
func (r *RawTransaction) DecodeFullTx() (*FullTx, error) {
	var t FullTx
	if err := t.Unmarshal(r.Data); err != nil {
		return nil, err
	}
	return &t, nil
}

// FullSaplingOutput carries everything a compact output omits: the full
// note ciphertext (leadbyte || diversifier(11) || value(8) || rseed(32) ||
// memo(512)) and the OVK-recoverable out-ciphertext, used by spec §4.4.2
// steps 6 and 7.
type FullSaplingOutput struct {
	Cmu            []byte
	EphemeralKey   []byte
	CiphertextFull []byte
	OutCiphertext  []byte
}

// FullOrchardAction is the Orchard analogue of FullSaplingOutput; its full
// ciphertext additionally carries ρ, which the compact form never does.
type FullOrchardAction struct {
	Nullifier      []byte
	Cmx            []byte
	EphemeralKey   []byte
	CiphertextFull []byte
	OutCiphertext  []byte
}

// FullTx is one transaction's full-ciphertext data, decoded from a
// RawTransaction for memo/nullifier enrichment and outgoing-memo recovery.
type FullTx struct {
	Index          uint64
	Hash           []byte
	SaplingOutputs []FullSaplingOutput
	OrchardActions []FullOrchardAction
}
