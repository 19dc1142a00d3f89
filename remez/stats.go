package remez

import (
	"time"

	"github.com/montanaflynn/stats"
)

// Phase identifies a timed section of a solver iteration.
type Phase int

const (
	PhaseInversion Phase = iota
	PhaseZeros
	PhaseExtrema
	numPhases
)

func (p Phase) String() string {
	switch p {
	case PhaseInversion:
		return "inversion"
	case PhaseZeros:
		return "zeros"
	case PhaseExtrema:
		return "extrema"
	default:
		return "unknown"
	}
}

// Stats accumulates per-phase wall-clock samples across iterations.
type Stats struct {
	samples [numPhases][]float64
}

func (s *Stats) record(p Phase, d time.Duration) {
	s.samples[p] = append(s.samples[p], float64(d)/float64(time.Millisecond))
}

// PhaseSummary aggregates the samples of one phase. Times are milliseconds.
type PhaseSummary struct {
	Phase  Phase
	Count  int
	Mean   float64
	Median float64
	Max    float64
}

// Summaries returns one summary per phase that has at least one sample.
func (s *Stats) Summaries() []PhaseSummary {
	var out []PhaseSummary
	for p := Phase(0); p < numPhases; p++ {
		data := stats.Float64Data(s.samples[p])
		if len(data) == 0 {
			continue
		}
		mean, _ := stats.Mean(data)
		median, _ := stats.Median(data)
		max, _ := stats.Max(data)
		out = append(out, PhaseSummary{
			Phase:  p,
			Count:  len(data),
			Mean:   mean,
			Median: median,
			Max:    max,
		})
	}
	return out
}

func (s *Stats) clone() *Stats {
	c := new(Stats)
	for p := range s.samples {
		c.samples[p] = append([]float64(nil), s.samples[p]...)
	}
	return c
}
