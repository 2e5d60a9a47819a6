package walletrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrNotWireMessage is returned by the codec when asked to marshal or
// unmarshal a value that doesn't implement wireMessage.
var ErrNotWireMessage = errors.New("walletrpc: value does not implement wireMessage")

// rawCodec marshals the package's hand-rolled wireMessage types using
// protowire primitives, in place of a protoc-generated codec. It is
// installed per-call via grpc.ForceCodec so the transport still goes
// through real gRPC framing, flow control and keepalive.
type rawCodec struct{}

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, ErrNotWireMessage
	}
	return m.Marshal(), nil
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(wireMessage)
	if !ok {
		return ErrNotWireMessage
	}
	return m.Unmarshal(data)
}

func (rawCodec) Name() string { return "pirate-rawwire" }

// Client talks to the compact-block indexer described in spec §6. Streams
// and unary calls are both driven directly through grpc.ClientConn rather
// than generated stubs.
type Client struct {
	conn    *grpc.ClientConn
	service string // fully qualified gRPC service name, e.g. "cash.z.wallet.sdk.rpc.CompactTxStreamer"
}

// Dial opens a connection to the indexer. useTLS selects transport
// security; when false, a plaintext connection is used (regtest / local
// development only).
func Dial(ctx context.Context, target string, useTLS bool, service string) (*Client, error) {
	var creds credentials.TransportCredentials
	if useTLS {
		creds = credentials.NewTLS(nil)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.DialContext(ctx, target,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, fmt.Errorf("walletrpc: dial %s: %w", target, err)
	}
	return &Client{conn: conn, service: service}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) method(name string) string {
	return "/" + c.service + "/" + name
}

// LatestBlock returns the indexer's view of the current chain tip.
func (c *Client) LatestBlock(ctx context.Context) (*BlockID, error) {
	req := &emptyMessage{}
	resp := &BlockID{}
	if err := c.conn.Invoke(ctx, c.method("GetLatestBlock"), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// BlockRangeStream is the client side of the block_range streaming RPC.
type BlockRangeStream struct {
	stream grpc.ClientStream
}

// Recv reads the next compact block, returning io.EOF once the range is
// exhausted.
func (s *BlockRangeStream) Recv() (*CompactBlock, error) {
	out := &CompactBlock{}
	if err := s.stream.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}

// blockRangeStreamDesc describes the server-streaming block_range RPC,
// hand-written in place of a protoc-generated descriptor.
var blockRangeStreamDesc = grpc.StreamDesc{
	StreamName:    "GetBlockRange",
	ServerStreams: true,
}

// BlockRange streams compact blocks in [startHeight, endHeight].
func (c *Client) BlockRange(ctx context.Context, startHeight, endHeight uint64) (*BlockRangeStream, error) {
	stream, err := c.conn.NewStream(ctx, &blockRangeStreamDesc, c.method("GetBlockRange"))
	if err != nil {
		return nil, err
	}
	req := &blockRange{Start: BlockID{Height: startHeight}, End: BlockID{Height: endHeight}}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &BlockRangeStream{stream: stream}, nil
}

// GetTransaction fetches a full transaction by hash, for memo and
// Orchard-nullifier enrichment.
func (c *Client) GetTransaction(ctx context.Context, hash []byte) (*RawTransaction, error) {
	req := &txFilter{Hash: hash}
	resp := &RawTransaction{}
	if err := c.conn.Invoke(ctx, c.method("GetTransaction"), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetTransactionByHeightIndex is the (height, index) fallback for
// GetTransaction.
func (c *Client) GetTransactionByHeightIndex(ctx context.Context, height uint64, index uint32) (*RawTransaction, error) {
	req := &txFilter{Height: height, Index: index}
	resp := &RawTransaction{}
	if err := c.conn.Invoke(ctx, c.method("GetTransaction"), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetTreeState fetches the Sapling/Orchard frontier at a height.
func (c *Client) GetTreeState(ctx context.Context, height uint64) (*TreeState, error) {
	req := &BlockID{Height: height}
	resp := &TreeState{}
	if err := c.conn.Invoke(ctx, c.method("GetTreeState"), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBridgeTreeState is the bridge-tree variant of GetTreeState, tried
// first during startup per spec §4.4.1 step 4, falling back to
// GetTreeState on failure.
func (c *Client) GetBridgeTreeState(ctx context.Context, height uint64) (*TreeState, error) {
	req := &BlockID{Height: height}
	resp := &TreeState{}
	if err := c.conn.Invoke(ctx, c.method("GetBridgeTreeState"), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetLiteWalletBlockGroup asks the server for a suggested batch end
// height targeting ~4 MB of data.
func (c *Client) GetLiteWalletBlockGroup(ctx context.Context, startHeight uint64) (*BlockGroupHint, error) {
	req := &BlockID{Height: startHeight}
	resp := &BlockGroupHint{}
	if err := c.conn.Invoke(ctx, c.method("GetLiteWalletBlockGroup"), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendTransaction broadcasts a raw, signed transaction.
func (c *Client) SendTransaction(ctx context.Context, raw []byte) (*SendResult, error) {
	req := &rawTxRequest{Data: raw}
	resp := &SendResult{}
	if err := c.conn.Invoke(ctx, c.method("SendTransaction"), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetLightdInfo returns the indexer's chain self-description.
func (c *Client) GetLightdInfo(ctx context.Context) (*LightdInfo, error) {
	req := &emptyMessage{}
	resp := &LightdInfo{}
	if err := c.conn.Invoke(ctx, c.method("GetLightdInfo"), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DialTimeout is the default wall clock for establishing the indexer
// connection.
const DialTimeout = 15 * time.Second

// emptyMessage is the zero-field request for RPCs that take no arguments.
type emptyMessage struct{}

func (*emptyMessage) Marshal() []byte            { return nil }
func (*emptyMessage) Unmarshal(data []byte) error { return nil }

// blockRange is the request message for the GetBlockRange stream.
type blockRange struct {
	Start BlockID
	End   BlockID
}

func (r *blockRange) Marshal() []byte {
	var out []byte
	out = appendEmbeddedField(out, 1, &r.Start)
	out = appendEmbeddedField(out, 2, &r.End)
	return out
}

func (r *blockRange) Unmarshal(data []byte) error {
	return errors.New("walletrpc: blockRange is client-to-server only")
}

// txFilter selects a transaction either by hash or by (height, index).
type txFilter struct {
	Hash   []byte
	Height uint64
	Index  uint32
}

func (f *txFilter) Marshal() []byte {
	var out []byte
	out = appendBytesField(out, 1, f.Hash)
	out = appendVarintField(out, 2, f.Height)
	out = appendVarintField(out, 3, uint64(f.Index))
	return out
}

func (f *txFilter) Unmarshal(data []byte) error {
	return errors.New("walletrpc: txFilter is client-to-server only")
}

// rawTxRequest wraps a serialized transaction for broadcast.
type rawTxRequest struct {
	Data []byte
}

func (r *rawTxRequest) Marshal() []byte {
	return appendBytesField(nil, 1, r.Data)
}

func (r *rawTxRequest) Unmarshal(data []byte) error {
	return errors.New("walletrpc: rawTxRequest is client-to-server only")
}

var _ io.Closer = (*Client)(nil)
