package nurbs

import "sort"

// Maplist holds one Mapdesc per map type.
type Maplist struct {
	descs map[MapType]*Mapdesc
}

// NewMaplist returns a list with a default descriptor for every map type.
func NewMaplist() *Maplist {
	l := &Maplist{descs: make(map[MapType]*Mapdesc, len(mapTypeNames))}
	for t := range mapTypeNames {
		l.descs[t] = NewMapdesc(t)
	}
	return l
}

// Find returns the descriptor for t, or nil if t is unknown.
func (l *Maplist) Find(t MapType) *Mapdesc {
	return l.descs[t]
}

// Clone returns a deep copy so one pass cannot change another's properties.
func (l *Maplist) Clone() *Maplist {
	c := &Maplist{descs: make(map[MapType]*Mapdesc, len(l.descs))}
	for t, d := range l.descs {
		c.descs[t] = d.Clone()
	}
	return c
}

// SetProperty sets p on the descriptors of every type in types.
func (l *Maplist) SetProperty(types []MapType, p Property, v float64) error {
	for _, t := range types {
		d := l.Find(t)
		if d == nil {
			continue
		}
		if err := d.SetProperty(p, v); err != nil {
			return err
		}
	}
	return nil
}

// Types returns the known map types in ascending order.
func (l *Maplist) Types() []MapType {
	out := make([]MapType, 0, len(l.descs))
	for t := range l.descs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
