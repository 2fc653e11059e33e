package sample

import (
	"math"

	"github.com/chazu/nurbs/pkg/quilt"
)

// FindRates returns, per parametric direction, the step used to flatten
// trim curves: the smallest patch step over every breakpoint cell of the
// chain, relative to the cell size.
func FindRates(q *quilt.Quilt, slist, tlist *quilt.Flist) [2]float64 {
	s, t := slist.Values(), tlist.Values()
	var rate [2]float64
	if len(s) < 2 || len(t) < 2 {
		return rate
	}
	rate[0] = 0.4 * (s[len(s)-1] - s[0])
	rate[1] = 0.4 * (t[len(t)-1] - t[0])

	for i := 1; i < len(s); i++ {
		for j := 1; j < len(t); j++ {
			pta := [2]float64{s[i-1], t[j-1]}
			ptb := [2]float64{s[i], t[j]}
			l := NewPatchlist(q, pta, ptb)
			l.GetStepSize()
			for k := 0; k < 2; k++ {
				edge := math.Min(math.Abs(ptb[k]-pta[k]), 1)
				if r := l.Pspec[k].Stepsize / edge; r < rate[k] {
					rate[k] = r
				}
			}
		}
	}
	return rate
}
