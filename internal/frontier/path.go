package frontier

import (
	"encoding/binary"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// EncodePath serializes an authentication path into the flat form stored in
// a note's WitnessPath column: position (u64 LE), then Depth sibling hashes,
// then Depth path bits packed one byte each (0/1).
func EncodePath(p *Path) []byte {
	out := make([]byte, 0, 8+Depth*types.HashSize+Depth)
	var posBuf [8]byte
	binary.LittleEndian.PutUint64(posBuf[:], p.Position)
	out = append(out, posBuf[:]...)
	for _, s := range p.Siblings {
		out = append(out, s[:]...)
	}
	for _, b := range p.PathBits {
		if b {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}
	return out
}

// DecodePath is the inverse of EncodePath.
func DecodePath(buf []byte) (*Path, error) {
	want := 8 + Depth*types.HashSize + Depth
	if len(buf) != want {
		return nil, ErrCorruptSnapshot
	}
	p := &Path{
		Position: binary.LittleEndian.Uint64(buf[:8]),
		Siblings: make([]types.Hash, Depth),
		PathBits: make([]bool, Depth),
	}
	off := 8
	for i := 0; i < Depth; i++ {
		copy(p.Siblings[i][:], buf[off:off+types.HashSize])
		off += types.HashSize
	}
	for i := 0; i < Depth; i++ {
		p.PathBits[i] = buf[off] == 1
		off++
	}
	return p, nil
}
