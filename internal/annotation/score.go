package annotation

import (
	"math/rand/v2"
	"time"
)

// RandomSource draws integers in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type wallClockRandom struct {
	now func() time.Time
}

// WallClockRandom seeds a fresh generator from the current time in milliseconds on
// every draw. The scores look varied, nothing more.
func WallClockRandom() RandomSource {
	return wallClockRandom{now: time.Now}
}

func (w wallClockRandom) IntN(n int) int {
	seed := uint64(w.now().UnixMilli())
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).IntN(n)
}

const scoreSteps = 10

// PerformanceScore draws uniformly from {0.1, 0.2, ..., 1.0}.
func PerformanceScore(r RandomSource) float64 {
	step := r.IntN(scoreSteps) + 1
	if step < 1 {
		step = 1
	} else if step > scoreSteps {
		step = scoreSteps
	}
	return float64(step) / scoreSteps
}
