package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"survivalsim.ai/internal/sim/grid"
)

// Digest hashes everything that determines the future of the simulation:
// counters, the rng stream, every cell and every roster in order.
func (w *World) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, uint64(w.grid.Width()))
	digestWriteU64(h, &tmp, uint64(w.grid.Height()))
	digestWriteU64(h, &tmp, w.tick.Load())
	digestWriteU64(h, &tmp, w.moon)
	digestWriteI64(h, &tmp, int64(w.timeLeft))
	digestWriteU64(h, &tmp, w.rng.State())

	w.grid.Each(func(_ grid.Pos, t grid.Tile) {
		h.Write([]byte{byte(t.Kind), boolByte(t.HasFood), t.Color.R, t.Color.G, t.Color.B, t.Color.A})
		digestWriteI64(h, &tmp, int64(t.Species))
		digestWriteI64(h, &tmp, int64(t.Food))
	})

	digestWriteU64(h, &tmp, uint64(len(w.species)))
	for _, s := range w.species {
		digestWriteU64(h, &tmp, uint64(len(s.members)))
		for _, p := range s.members {
			digestWriteU64(h, &tmp, uint64(p.X)<<32|uint64(p.Y))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
