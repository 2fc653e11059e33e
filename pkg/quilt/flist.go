package quilt

import "sort"

// Flist is a list of parameter values with a live window [Start, End).
type Flist struct {
	Pts   []float64
	Start int
	End   int
}

// Add appends a value and extends the window over it.
func (f *Flist) Add(v float64) {
	f.Pts = append(f.Pts[:f.End], v)
	f.End = len(f.Pts)
}

// Len is the number of values inside the window.
func (f *Flist) Len() int { return f.End - f.Start }

// Values returns the window.
func (f *Flist) Values() []float64 { return f.Pts[f.Start:f.End] }

// Filter sorts the values and drops exact duplicates.
func (f *Flist) Filter() {
	pts := f.Pts[:f.End]
	sort.Float64s(pts)
	f.Start = 0
	j := 0
	for i := 1; i < len(pts); i++ {
		if pts[i] == pts[i-j-1] {
			j++
		}
		pts[i-j] = pts[i]
	}
	f.End = len(pts) - j
	f.Pts = pts[:f.End]
}

// Taper narrows the window so it starts at from and ends at to. A value
// missing from the list leaves that side of the window empty.
func (f *Flist) Taper(from, to float64) {
	for f.Start < f.End && f.Pts[f.Start] != from {
		f.Start++
	}
	for f.End > f.Start && f.Pts[f.End-1] != to {
		f.End--
	}
}
