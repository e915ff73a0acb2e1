package puzzle

// Rng is a small multiply-with-carry generator. Two 16-bit lag-1 MWC
// streams are combined into a 32-bit output, so the same 32-bit seed
// always yields the same float stream on every platform.
type Rng struct {
	mw int32
	mz int32
}

// NewRng seeds a generator from a 32-bit integer seed.
func NewRng(seed uint32) *Rng {
	return &Rng{
		mw: int32(seed),
		mz: 987654321,
	}
}

// Float returns the next value in [0, 1).
func (r *Rng) Float() float64 {
	r.mz = int32(36969*int64(r.mz&0xffff) + int64(r.mz>>16))
	r.mw = int32(18000*int64(r.mw&0xffff) + int64(r.mw>>16))
	// Addition wraps mod 2^32, matching the combined 32-bit output word.
	out := uint32(int32(uint32(r.mz)<<16) + (r.mw & 0xffff))
	return float64(out) / 4294967296
}

// Intn returns an integer in [0, n) drawn from the float stream.
func (r *Rng) Intn(n int) int {
	return int(r.Float() * float64(n))
}
