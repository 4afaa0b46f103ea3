package montecarlo

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Draws is one stream of randomness consumed by the game model.
type Draws interface {
	// InjuryFlag returns a Bernoulli(0.5) sample, 0 or 1.
	InjuryFlag() int
	// TrialWins returns how many of n Bernoulli(p) trials succeed.
	TrialWins(n int, p float64) int
}

// StreamSource hands out independent streams. A sweep asks for one stream
// per row (all games of one home team), so rows can run concurrently.
type StreamSource interface {
	Stream(iteration, row int) Draws
}

// SeededSource derives every stream from a single seed. Equal seeds give
// equal streams regardless of how rows are scheduled.
type SeededSource struct {
	seed uint64
}

func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{seed: seed}
}

// NewRandomSource picks a fresh seed from the runtime generator.
func NewRandomSource() *SeededSource {
	return NewSeededSource(rand.Uint64())
}

func (s *SeededSource) Seed() uint64 { return s.seed }

func (s *SeededSource) Stream(iteration, row int) Draws {
	src := rand.NewPCG(s.seed, uint64(iteration)<<32|uint64(uint32(row)))
	return &distDraws{
		src:    src,
		injury: distuv.Bernoulli{P: 0.5, Src: src},
	}
}

type distDraws struct {
	src    rand.Source
	injury distuv.Bernoulli
}

func (d *distDraws) InjuryFlag() int {
	return int(d.injury.Rand())
}

func (d *distDraws) TrialWins(n int, p float64) int {
	switch {
	case n <= 0:
		return 0
	case p <= 0:
		return 0
	case p >= 1:
		return n
	}
	b := distuv.Binomial{N: float64(n), P: p, Src: d.src}
	return int(b.Rand())
}
