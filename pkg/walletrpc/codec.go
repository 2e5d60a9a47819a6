package walletrpc

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// wireMessage is implemented by every request/response type exchanged with
// the indexer, so a single generic grpc codec (see client.go) can carry
// them all without per-message reflection.
type wireMessage interface {
	Marshal() []byte
	Unmarshal([]byte) error
}

func appendBytesField(dst []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return dst
	}
	dst = protowire.AppendTag(dst, num, protowire.BytesType)
	dst = protowire.AppendBytes(dst, v)
	return dst
}

func appendStringField(dst []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return dst
	}
	return appendBytesField(dst, num, []byte(v))
}

func appendVarintField(dst []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return dst
	}
	dst = protowire.AppendTag(dst, num, protowire.VarintType)
	dst = protowire.AppendVarint(dst, v)
	return dst
}

func appendEmbeddedField(dst []byte, num protowire.Number, msg wireMessage) []byte {
	payload := msg.Marshal()
	if len(payload) == 0 {
		return dst
	}
	dst = protowire.AppendTag(dst, num, protowire.BytesType)
	dst = protowire.AppendBytes(dst, payload)
	return dst
}

func (o *CompactSaplingOutput) Marshal() []byte {
	var out []byte
	out = appendBytesField(out, 1, o.Cmu)
	out = appendBytesField(out, 2, o.EphemeralKey)
	out = appendBytesField(out, 3, o.CiphertextPrefix)
	return out
}

func (o *CompactSaplingOutput) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1, 2, 3:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			switch num {
			case 1:
				o.Cmu = append([]byte(nil), v...)
			case 2:
				o.EphemeralKey = append([]byte(nil), v...)
			case 3:
				o.CiphertextPrefix = append([]byte(nil), v...)
			}
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

func (a *CompactOrchardAction) Marshal() []byte {
	var out []byte
	out = appendBytesField(out, 1, a.Nullifier)
	out = appendBytesField(out, 2, a.Cmx)
	out = appendBytesField(out, 3, a.EphemeralKey)
	out = appendBytesField(out, 4, a.CiphertextPrefix)
	return out
}

func (a *CompactOrchardAction) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1, 2, 3, 4:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b := append([]byte(nil), v...)
			switch num {
			case 1:
				a.Nullifier = b
			case 2:
				a.Cmx = b
			case 3:
				a.EphemeralKey = b
			case 4:
				a.CiphertextPrefix = b
			}
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

func (t *CompactTx) Marshal() []byte {
	var out []byte
	out = appendVarintField(out, 1, t.Index)
	out = appendBytesField(out, 2, t.Hash)
	out = appendBytesField(out, 3, t.SaplingSpendNullifiers)
	for i := range t.SaplingOutputs {
		out = appendEmbeddedField(out, 4, &t.SaplingOutputs[i])
	}
	for i := range t.OrchardActions {
		out = appendEmbeddedField(out, 5, &t.OrchardActions[i])
	}
	return out
}

func (t *CompactTx) Unmarshal(data []byte) error {
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
			t.Index = v
			data = data[n:]
		case 2, 3:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if num == 2 {
				t.Hash = append([]byte(nil), v...)
			} else {
				t.SaplingSpendNullifiers = append([]byte(nil), v...)
			}
			data = data[n:]
		case 4:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var o CompactSaplingOutput
			if err := o.Unmarshal(v); err != nil {
				return err
			}
			t.SaplingOutputs = append(t.SaplingOutputs, o)
			data = data[n:]
		case 5:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var a CompactOrchardAction
			if err := a.Unmarshal(v); err != nil {
				return err
			}
			t.OrchardActions = append(t.OrchardActions, a)
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

func (b *CompactBlock) Marshal() []byte {
	var out []byte
	out = appendVarintField(out, 1, b.Height)
	out = appendBytesField(out, 2, b.Hash)
	out = appendBytesField(out, 3, b.PrevHash)
	out = appendVarintField(out, 4, uint64(b.Time))
	for i := range b.Txs {
		out = appendEmbeddedField(out, 5, &b.Txs[i])
	}
	return out
}

func (b *CompactBlock) Unmarshal(data []byte) error {
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
		case 2, 3:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if num == 2 {
				b.Hash = append([]byte(nil), v...)
			} else {
				b.PrevHash = append([]byte(nil), v...)
			}
			data = data[n:]
		case 4:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b.Time = uint32(v)
			data = data[n:]
		case 5:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var tx CompactTx
			if err := tx.Unmarshal(v); err != nil {
				return err
			}
			b.Txs = append(b.Txs, tx)
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

func (t *TreeState) Marshal() []byte {
	var out []byte
	out = appendVarintField(out, 1, t.Height)
	out = appendBytesField(out, 2, t.Hash)
	out = appendStringField(out, 3, t.SaplingTree)
	out = appendStringField(out, 4, t.OrchardTree)
	return out
}

func (t *TreeState) Unmarshal(data []byte) error {
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
			t.Height = v
			data = data[n:]
		case 2, 3, 4:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			switch num {
			case 2:
				t.Hash = append([]byte(nil), v...)
			case 3:
				t.SaplingTree = string(v)
			case 4:
				t.OrchardTree = string(v)
			}
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

func (g *BlockGroupHint) Marshal() []byte {
	var out []byte
	out = appendVarintField(out, 1, g.StartHeight)
	out = appendVarintField(out, 2, g.EndHeight)
	return out
}

func (g *BlockGroupHint) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		if num == 1 {
			g.StartHeight = v
		} else if num == 2 {
			g.EndHeight = v
		}
		_ = typ
		data = data[n:]
	}
	return nil
}

func (s *SendResult) Marshal() []byte {
	var out []byte
	out = appendVarintField(out, 1, uint64(int64(s.ErrorCode)))
	out = appendStringField(out, 2, s.ErrorMessage)
	out = appendBytesField(out, 3, s.Txid)
	return out
}

func (s *SendResult) Unmarshal(data []byte) error {
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
			s.ErrorCode = int32(v)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			s.ErrorMessage = string(v)
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			s.Txid = append([]byte(nil), v...)
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

func (l *LightdInfo) Marshal() []byte {
	var out []byte
	out = appendStringField(out, 1, l.ChainName)
	out = appendVarintField(out, 2, l.SaplingActivationHeight)
	out = appendVarintField(out, 3, l.BlockHeight)
	out = appendVarintField(out, 4, l.EstimatedHeight)
	return out
}

func (l *LightdInfo) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			l.ChainName = string(v)
			data = data[n:]
		case 2, 3, 4:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			switch num {
			case 2:
				l.SaplingActivationHeight = v
			case 3:
				l.BlockHeight = v
			case 4:
				l.EstimatedHeight = v
			}
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

func (r *RawTransaction) Marshal() []byte {
	var out []byte
	out = appendBytesField(out, 1, r.Data)
	out = appendVarintField(out, 2, r.Height)
	return out
}

func (r *RawTransaction) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.Data = append([]byte(nil), v...)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.Height = v
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

func (o *FullSaplingOutput) Marshal() []byte {
	var out []byte
	out = appendBytesField(out, 1, o.Cmu)
	out = appendBytesField(out, 2, o.EphemeralKey)
	out = appendBytesField(out, 3, o.CiphertextFull)
	out = appendBytesField(out, 4, o.OutCiphertext)
	return out
}

func (o *FullSaplingOutput) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1, 2, 3, 4:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b := append([]byte(nil), v...)
			switch num {
			case 1:
				o.Cmu = b
			case 2:
				o.EphemeralKey = b
			case 3:
				o.CiphertextFull = b
			case 4:
				o.OutCiphertext = b
			}
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

func (a *FullOrchardAction) Marshal() []byte {
	var out []byte
	out = appendBytesField(out, 1, a.Nullifier)
	out = appendBytesField(out, 2, a.Cmx)
	out = appendBytesField(out, 3, a.EphemeralKey)
	out = appendBytesField(out, 4, a.CiphertextFull)
	out = appendBytesField(out, 5, a.OutCiphertext)
	return out
}

func (a *FullOrchardAction) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1, 2, 3, 4, 5:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b := append([]byte(nil), v...)
			switch num {
			case 1:
				a.Nullifier = b
			case 2:
				a.Cmx = b
			case 3:
				a.EphemeralKey = b
			case 4:
				a.CiphertextFull = b
			case 5:
				a.OutCiphertext = b
			}
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

func (t *FullTx) Marshal() []byte {
	var out []byte
	out = appendVarintField(out, 1, t.Index)
	out = appendBytesField(out, 2, t.Hash)
	for i := range t.SaplingOutputs {
		out = appendEmbeddedField(out, 3, &t.SaplingOutputs[i])
	}
	for i := range t.OrchardActions {
		out = appendEmbeddedField(out, 4, &t.OrchardActions[i])
	}
	return out
}

func (t *FullTx) Unmarshal(data []byte) error {
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
			t.Index = v
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			t.Hash = append([]byte(nil), v...)
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var o FullSaplingOutput
			if err := o.Unmarshal(v); err != nil {
				return err
			}
			t.SaplingOutputs = append(t.SaplingOutputs, o)
			data = data[n:]
		case 4:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var a FullOrchardAction
			if err := a.Unmarshal(v); err != nil {
				return err
			}
			t.OrchardActions = append(t.OrchardActions, a)
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
