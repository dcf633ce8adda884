package collab

// index threads one doubly-linked list per member, plus the all-members list,
// through the registry's records. Track references are positions in registry.tracks.
type index struct {
	tracks []*record
	heads  []int // per member, their most popular remaining track
	top    int   // most popular remaining track overall
}

// newIndex links every track after the previous track of each of its owners in one pass
// over the frequency-sorted registry.
func newIndex(reg *registry) *index {
	idx := &index{
		tracks: reg.tracks,
		heads:  make([]int, len(reg.members)),
		top:    noTrack,
	}

	last := make([]int, len(reg.members))
	for m := range last {
		last[m] = noTrack
		idx.heads[m] = noTrack
	}
	lastAll := noTrack

	for t, rec := range reg.tracks {
		rec.links = make(map[int]*link, len(rec.owners)+1)

		rec.links[everyone] = &link{prev: lastAll, next: noTrack}
		if lastAll == noTrack {
			idx.top = t
		} else {
			reg.tracks[lastAll].links[everyone].next = t
		}
		lastAll = t

		for _, m := range rec.owners {
			rec.links[m] = &link{prev: last[m], next: noTrack}
			if last[m] == noTrack {
				idx.heads[m] = t
			} else {
				reg.tracks[last[m]].links[m].next = t
			}
			last[m] = t
		}
	}

	return idx
}

// head returns the most popular remaining track of member, or of everyone.
func (x *index) head(member int) int {
	if member == everyone {
		return x.top
	}
	return x.heads[member]
}

func (x *index) setHead(member, t int) {
	if member == everyone {
		x.top = t
		return
	}
	x.heads[member] = t
}

// next returns the track after t in member's list.
func (x *index) next(t, member int) int {
	l, ok := x.tracks[t].links[member]
	if !ok {
		return noTrack
	}
	return l.next
}

// remove unlinks t from the list of every member that owns it and from the global list.
// Removing a track twice is a no-op.
func (x *index) remove(t int) {
	rec := x.tracks[t]
	if rec.removed {
		return
	}
	rec.removed = true

	for member, l := range rec.links {
		if l.prev == noTrack {
			x.setHead(member, l.next)
		} else {
			x.tracks[l.prev].links[member].next = l.next
		}
		if l.next != noTrack {
			x.tracks[l.next].links[member].prev = l.prev
		}
	}
}
