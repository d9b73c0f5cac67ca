package kalloc

import (
	"slices"
	"sort"
)

// Assignment maps producers (by registry index) to buffer slots.
type Assignment struct {
	// Slots[i] is the slot of the i-th producer.
	Slots []int

	// Count is the number of distinct slots.
	Count int
}

// Color assigns a slot to every lifetime with first-fit interval coloring.
//
// Lifetimes are visited by ascending Start; equal starts keep their input
// order. Each one reuses the first slot whose previous occupant ended
// strictly before its Start, or opens a new slot. For interval graphs this
// greedy order is optimal: Count equals Peak(lifetimes).
// Time complexity: O(P²) for P producers.
func Color(lifetimes []Lifetime) Assignment {
	order := make([]int, len(lifetimes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lifetimes[order[a]].Start < lifetimes[order[b]].Start
	})

	slots := make([]int, len(lifetimes))
	slotEnd := make([]int, 0, len(lifetimes))
	for _, p := range order {
		lt := lifetimes[p]
		reuse := slices.IndexFunc(slotEnd, func(end int) bool { return end < lt.Start })
		if reuse < 0 {
			reuse = len(slotEnd)
			slotEnd = append(slotEnd, lt.End)
		} else {
			slotEnd[reuse] = lt.End
		}
		slots[p] = reuse
	}

	return Assignment{Slots: slots, Count: len(slotEnd)}
}

// Peak returns the largest number of lifetimes that are live at the same
// schedule position.
func Peak(lifetimes []Lifetime) int {
	if len(lifetimes) == 0 {
		return 0
	}
	type event struct {
		pos   int
		delta int
	}
	events := make([]event, 0, 2*len(lifetimes))
	for _, lt := range lifetimes {
		events = append(events, event{lt.Start, 1}, event{lt.End + 1, -1})
	}
	// Ends sort before starts at the same position: a value released at p
	// (End+1 == p) frees its slot for a value produced at p.
	slices.SortFunc(events, func(a, b event) int {
		if a.pos != b.pos {
			return a.pos - b.pos
		}
		return a.delta - b.delta
	})

	live, peak := 0, 0
	for _, ev := range events {
		live += ev.delta
		peak = max(peak, live)
	}
	return peak
}
