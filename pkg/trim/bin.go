package trim

// Bin is an unordered bag of arcs chained through Arc.Link. A bin holds
// whole loops except while it is being split.
type Bin struct {
	arena *Arena
	head  ArcID
}

// NewBin returns an empty bin over the arcs of a.
func NewBin(a *Arena) *Bin {
	return &Bin{arena: a, head: NoArc}
}

// Arena returns the arena the bin's arcs live in.
func (b *Bin) Arena() *Arena { return b.arena }

// AddArc pushes id onto the bin.
func (b *Bin) AddArc(id ArcID) {
	b.arena.arcs[id].Link = b.head
	b.head = id
}

// RemoveArc pops the most recently added arc, or returns NoArc.
func (b *Bin) RemoveArc() ArcID {
	id := b.head
	if id != NoArc {
		b.head = b.arena.arcs[id].Link
	}
	return id
}

// AddLoop adds every arc of the loop through first.
func (b *Bin) AddLoop(first ArcID) {
	id := first
	for {
		b.AddArc(id)
		id = b.arena.arcs[id].Next
		if id == first {
			return
		}
	}
}

// NumArcs counts the arcs by walking the chain.
func (b *Bin) NumArcs() int {
	n := 0
	for id := b.head; id != NoArc; id = b.arena.arcs[id].Link {
		n++
	}
	return n
}

// IsNonEmpty reports whether the bin holds any arc.
func (b *Bin) IsNonEmpty() bool { return b.head != NoArc }

// Clear empties the bin without touching the arcs.
func (b *Bin) Clear() { b.head = NoArc }

// Each calls fn for every arc in the bin, most recent first.
func (b *Bin) Each(fn func(ArcID)) {
	for id := b.head; id != NoArc; {
		next := b.arena.arcs[id].Link
		fn(id)
		id = next
	}
}

// MarkAll sets the mark on every arc in the bin.
func (b *Bin) MarkAll() {
	b.Each(b.arena.SetMark)
}

// Adopt empties b, moving each arc into the bin of the first unmarked arc
// found along its loop. Arcs whose whole loop is marked are dropped.
func (b *Bin) Adopt() {
	a := b.arena
	b.MarkAll()
	for orphan := b.RemoveArc(); orphan != NoArc; orphan = b.RemoveArc() {
		for parent := a.arcs[orphan].Next; parent != orphan; parent = a.arcs[parent].Next {
			if !a.arcs[parent].Flags.Marked {
				a.arcs[orphan].Link = a.arcs[parent].Link
				a.arcs[parent].Link = orphan
				a.ClearMark(orphan)
				break
			}
		}
	}
}
