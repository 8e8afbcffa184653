package arena

// Set is the Go counterpart of util/arena/Set.h's arena::managed::set: an
// ordered container that draws its storage from an Arena rather than the
// unmanaged heap, so a group of sets sharing a query's lifetime can be
// reclaimed together via the arena's Reset. Go's built-in map already
// manages its own storage, so Set wraps one and charges estimated growth
// against the arena's tracker on insert, rather than actually allocating
// key storage from arena-owned bytes — the same "accounting, not
// replacement" stance internal/arena.Arena takes for slices.
type Set[V comparable] struct {
	arena *Arena
	less  func(a, b V) bool
	items map[V]struct{}
	order []V
}

// NewSet creates an arena-backed ordered set. less defines iteration
// order for Range, mirroring the original's template<class V,class P>
// comparator parameter.
func NewSet[V comparable](a *Arena, less func(a, b V) bool) *Set[V] {
	return &Set[V]{arena: a, less: less, items: map[V]struct{}{}}
}

const estimatedEntryOverhead = 32

// Insert adds v to the set, charging estimated per-entry overhead against
// the arena if v was not already present. Returns whether v was newly
// inserted.
func (s *Set[V]) Insert(v V) bool {
	if _, ok := s.items[v]; ok {
		return false
	}
	s.items[v] = struct{}{}
	s.order = insertSorted(s.order, v, s.less)
	s.arena.tracker.Consume(estimatedEntryOverhead)
	s.arena.allocated += estimatedEntryOverhead
	return true
}

// Contains reports whether v is in the set.
func (s *Set[V]) Contains(v V) bool {
	_, ok := s.items[v]
	return ok
}

// Remove deletes v from the set, releasing its charged overhead. Returns
// whether v was present.
func (s *Set[V]) Remove(v V) bool {
	if _, ok := s.items[v]; !ok {
		return false
	}
	delete(s.items, v)
	for i, o := range s.order {
		if o == v {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.arena.tracker.Consume(-estimatedEntryOverhead)
	s.arena.allocated -= estimatedEntryOverhead
	return true
}

// Len returns the number of elements in the set.
func (s *Set[V]) Len() int { return len(s.items) }

// Range calls fn for each element in ascending order (per less), stopping
// early if fn returns false.
func (s *Set[V]) Range(fn func(v V) bool) {
	for _, v := range s.order {
		if !fn(v) {
			return
		}
	}
}

func insertSorted[V comparable](order []V, v V, less func(a, b V) bool) []V {
	i := 0
	for i < len(order) && less(order[i], v) {
		i++
	}
	order = append(order, v)
	copy(order[i+1:], order[i:])
	order[i] = v
	return order
}
