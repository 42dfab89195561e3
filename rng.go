package main

import mathrand "math/rand"

// countingSource wraps the underlying generator so every raw value it hands
// out is counted. Counting here rather than per API call matters: Intn uses
// rejection sampling and can pull more than one raw value per draw.
type countingSource struct {
	src mathrand.Source64
	n   int64
}

func (c *countingSource) Int63() int64    { c.n++; return c.src.Int63() }
func (c *countingSource) Uint64() uint64  { c.n++; return c.src.Uint64() }
func (c *countingSource) Seed(seed int64) { c.src.Seed(seed) }

// Rand is the deterministic random source threaded through one game.
// The position counter tracks raw source pulls so a restored game can
// fast-forward to the exact stream offset it was saved at.
type Rand struct {
	seed int64
	cnt  *countingSource
	src  *mathrand.Rand
}

func newRand(seed int64) *Rand {
	cnt := &countingSource{src: mathrand.NewSource(seed).(mathrand.Source64)}
	return &Rand{seed: seed, cnt: cnt, src: mathrand.New(cnt)}
}

// restoreRand burns pos raw source values so the stream continues where it
// left off.
func restoreRand(seed, pos int64) *Rand {
	r := newRand(seed)
	for r.cnt.n < pos {
		r.cnt.Int63()
	}
	return r
}

func (r *Rand) Seed() int64     { return r.seed }
func (r *Rand) Position() int64 { return r.cnt.n }

// Float64 returns a uniform draw in [0, 1).
func (r *Rand) Float64() float64 {
	return r.src.Float64()
}

// Intn returns a uniform integer in [0, n). n <= 0 returns 0 rather than
// panicking; callers treat that as "no choice to make".
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.src.Intn(n)
}

// Between returns a uniform integer in [low, high]. Inverted bounds collapse
// to low.
func (r *Rand) Between(low, high int) int {
	if high <= low {
		return low
	}
	return low + r.Intn(high-low+1)
}

// Die rolls a single die in [1, sides].
func (r *Rand) Die(sides int) int {
	return r.Intn(sides) + 1
}

// Chance returns true with probability p in [0, 1].
func (r *Rand) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}

type weightedCandidate struct {
	id     string
	weight float64
}

// pickWeighted draws one candidate proportionally to weight. Empty pools and
// pools whose weights sum to zero (or less) yield "".
func pickWeighted(r *Rand, candidates []weightedCandidate) string {
	total := 0.0
	for _, c := range candidates {
		if c.weight > 0 {
			total += c.weight
		}
	}
	if total <= 0 {
		return ""
	}
	roll := r.Float64() * total
	cumulative := 0.0
	for _, c := range candidates {
		if c.weight <= 0 {
			continue
		}
		cumulative += c.weight
		if roll < cumulative {
			return c.id
		}
	}
	// Floating-point edge: fall through to the last positive candidate.
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].weight > 0 {
			return candidates[i].id
		}
	}
	return ""
}
