package txbuilder

import (
	"github.com/piratenetwork/lightwallet-core/internal/keys"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// Output is one requested payment: a pool, a recipient address already
// decoded from bech32, a value, and an optional memo (spec §4.6 "Inputs").
type Output struct {
	Pool      types.Pool
	Recipient keys.PaymentAddress
	Value     uint64
	Memo      []byte
}

func (o Output) validate() error {
	if o.Value == 0 {
		return ErrInvalidAmount
	}
	if len(o.Memo) > types.MemoSize {
		return ErrMemoTooLong
	}
	return nil
}
