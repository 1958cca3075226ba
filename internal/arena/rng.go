package arena

// Rand is a small deterministic PRNG (mulberry32). Battles on different
// machines must replay the exact same draw sequence from the same seed, so we
// keep the whole state in one uint32 and avoid math/rand, whose stream is not
// guaranteed stable across Go releases.
type Rand struct {
	state uint32
}

func NewRand(seed uint32) *Rand {
	return &Rand{state: seed}
}

// Float returns the next draw in [0, 1).
func (r *Rand) Float() float64 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}

// Intn returns the next draw in [0, n). n must be > 0.
func (r *Rand) Intn(n int) int {
	return int(r.Float() * float64(n))
}

// Between returns the next draw in [lo, hi] inclusive.
func (r *Rand) Between(lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}

// Pick returns one element of items uniformly at random.
func Pick[T any](r *Rand, items []T) T {
	return items[r.Intn(len(items))]
}

// HashSeed folds an arbitrary string seed (battle id, rating+timestamp key)
// into the generator's integer seed. FNV-1a: stable, order-dependent, cheap.
func HashSeed(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
