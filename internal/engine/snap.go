package engine

import (
	"math"

	"github.com/inamate/timeline/backend-go/internal/document"
)

// Snapper resolves a candidate time against 0, clip edges and optionally
// the grid.
//
// Candidates are visited in a fixed order: 0, then every clip's start and
// end (tracks in order, clips in store order), then the grid multiples
// around t, lower first. A candidate replaces the current best only when
// it is strictly closer, so on ties the first visited candidate wins.
type Snapper struct {
	Threshold float64
	GridSize  float64
	Grid      bool
}

// Resolve returns the closest candidate within Threshold of t, or t itself
// when none is close enough. Edges of the clip with id exclude are skipped.
func (s Snapper) Resolve(t float64, tracks []document.Track, exclude string) float64 {
	best := t
	bestDist := math.Inf(1)

	consider := func(c float64) {
		d := math.Abs(c - t)
		if d <= s.Threshold && d < bestDist {
			best = c
			bestDist = d
		}
	}

	consider(0)
	for _, tr := range tracks {
		for _, c := range tr.Clips {
			if c.ID == exclude {
				continue
			}
			consider(c.StartTime)
			consider(c.EndTime())
		}
	}

	if s.Grid && s.GridSize > 0 {
		lower := math.Floor(t/s.GridSize) * s.GridSize
		if lower >= 0 {
			consider(lower)
		}
		consider(lower + s.GridSize)
	}

	return best
}
