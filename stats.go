package geogrid

import (
	"gonum.org/v1/gonum/floats"
)

// Stats summarises the present samples of a grid.
type Stats struct {
	Min   float64
	Max   float64
	Mean  float64
	Valid int // number of samples that are not no-data
}

// Stats computes the range and mean of the samples that are not no-data.
// All fields are zero when the grid has no present samples.
func (g *Grid) Stats() Stats {
	values := g.validValues()
	if len(values) == 0 {
		return Stats{}
	}
	return Stats{
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Mean:  floats.Sum(values) / float64(len(values)),
		Valid: len(values),
	}
}

// zRange returns the minimum and maximum present sample, or zeros.
func (g *Grid) zRange() (zMin, zMax float64) {
	s := g.Stats()
	return s.Min, s.Max
}

func (g *Grid) validValues() []float64 {
	if g.IsEmpty() {
		return nil
	}
	values := make([]float64, 0, len(g.samples))
	for _, v := range g.samples {
		if g.IsNoData(v) {
			continue
		}
		values = append(values, float64(v))
	}
	return values
}
