package walletrpc

import "testing"

func TestCompactBlockRoundTrip(t *testing.T) {
	b := &CompactBlock{
		Height:   123456,
		Hash:     []byte{0x01, 0x02},
		PrevHash: []byte{0x03, 0x04},
		Time:     1700000000,
		Txs: []CompactTx{
			{
				Index: 0,
				Hash:  []byte{0xaa},
				SaplingOutputs: []CompactSaplingOutput{
					{Cmu: []byte{1, 2, 3}, EphemeralKey: []byte{4, 5}, CiphertextPrefix: make([]byte, 52)},
				},
				OrchardActions: []CompactOrchardAction{
					{Nullifier: []byte{9}, Cmx: []byte{8}, EphemeralKey: []byte{7}, CiphertextPrefix: make([]byte, 52)},
				},
			},
		},
	}

	data := b.Marshal()
	var out CompactBlock
	if err := out.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.Height != b.Height || out.Time != b.Time {
		t.Fatalf("height/time mismatch: got %+v", out)
	}
	if len(out.Txs) != 1 || len(out.Txs[0].SaplingOutputs) != 1 || len(out.Txs[0].OrchardActions) != 1 {
		t.Fatalf("nested message counts mismatch: got %+v", out)
	}
	if string(out.Txs[0].SaplingOutputs[0].Cmu) != string(b.Txs[0].SaplingOutputs[0].Cmu) {
		t.Fatal("sapling output cmu mismatch after round trip")
	}
}

func TestLightdInfoRoundTrip(t *testing.T) {
	l := &LightdInfo{
		ChainName:               "pirate-mainnet",
		SaplingActivationHeight: 152855,
		BlockHeight:             2000500,
		EstimatedHeight:         2000510,
	}
	data := l.Marshal()
	var out LightdInfo
	if err := out.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != *l {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, *l)
	}
}
