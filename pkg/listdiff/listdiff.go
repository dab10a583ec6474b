// Package listdiff compares two keyed lists and reports what was added,
// removed, kept and moved.
//
// Keys are matched by identity: two entries are the same entry when their
// keys are equal, never because their contents look alike. Duplicate keys are
// paired up in order of appearance.
package listdiff

// Result describes how next differs from prev.
type Result struct {
	// Added holds indices into next, ascending.
	Added []int
	// Removed holds indices into prev, ascending.
	Removed []int
	// Maintained pairs a prev index with its next index, in next order.
	Maintained [][2]int
	// Changed is the subset of Maintained whose index differs.
	Changed [][2]int
}

// HasChanges reports whether anything was added, removed or moved.
func (r Result) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Changed) > 0
}

// Diff compares two lists of comparable keys.
func Diff[K comparable](prev, next []K) Result {
	return DiffFunc(prev, next, func(k K) K { return k })
}

// DiffFunc compares two lists using key to identify entries.
func DiffFunc[T any, K comparable](prev, next []T, key func(T) K) Result {
	positions := make(map[K][]int, len(prev))
	for i, v := range prev {
		k := key(v)
		positions[k] = append(positions[k], i)
	}

	var res Result
	matched := make([]bool, len(prev))
	for j, v := range next {
		k := key(v)
		queue := positions[k]
		if len(queue) == 0 {
			res.Added = append(res.Added, j)
			continue
		}
		i := queue[0]
		positions[k] = queue[1:]
		matched[i] = true

		pair := [2]int{i, j}
		res.Maintained = append(res.Maintained, pair)
		if i != j {
			res.Changed = append(res.Changed, pair)
		}
	}
	for i, ok := range matched {
		if !ok {
			res.Removed = append(res.Removed, i)
		}
	}
	return res
}
