package mathx

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func Hash3(seed int64, x, y, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xc2b2ae3d27d4eb4f) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// Unit maps a hash to [0,1) using its top 53 bits.
func Unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}

// Rand is a splitmix64 stream. The zero value is usable but every stream
// in the engine is seeded from the world seed so runs replay exactly.
type Rand struct {
	state uint64
}

func NewRand(seed int64) *Rand { return &Rand{state: uint64(seed)} }

func (r *Rand) Uint64() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Intn returns a value in [0,n). n must be positive.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic("mathx: Intn with non-positive n")
	}
	return int(r.Uint64() % uint64(n))
}

// State exposes the stream position for digests.
func (r *Rand) State() uint64 { return r.state }
