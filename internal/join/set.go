package join

import "strings"

type node struct {
	join    *Join
	forward bool
	next    *node
}

// Set is a graph of joins over alias indexes. Each alias holds a linked list of its
// incident joins; every join appears in the lists of both its aliases.
//
// Sets are not safe for concurrent use.
type Set struct {
	graph  []*node
	size   int
	last   *Join
	sorted []*Join
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{}
}

// Len returns the number of joins.
func (s *Set) Len() int { return s.size }

// IsEmpty reports whether the set holds no joins.
func (s *Set) IsEmpty() bool { return s.size == 0 }

// Last returns the most recently added join.
func (s *Set) Last() *Join { return s.last }

// Add adds j. An outer join never replaces an existing join between the same aliases;
// any other join replaces it.
func (s *Set) Add(j *Join) bool {
	if j.Type == Outer {
		if s.Contains(j) {
			return false
		}
		s.addNode(j)
		return true
	}
	if s.replace(j) {
		return true
	}
	s.addNode(j)
	return true
}

// replace swaps j in for the join between the same aliases, keeping its position in both
// adjacency lists.
func (s *Set) replace(j *Join) bool {
	if !s.Contains(j) {
		return false
	}
	for _, idx := range []int{j.Index1, j.Index2} {
		for n := s.graph[idx]; n != nil; n = n.next {
			if n.join.Equal(j) {
				n.join = j
				n.forward = idx == j.Index1
				break
			}
		}
	}
	s.last = j
	s.sorted = nil
	return true
}

// AddAll adds every join of o, returning whether any was added.
func (s *Set) AddAll(o *Set) bool {
	if o == nil || o == s {
		return false
	}
	added := false
	for _, j := range o.Joins() {
		if s.Add(j) {
			added = true
		}
	}
	return added
}

func (s *Set) addNode(j *Join) {
	s.sorted = nil
	n := max(j.Index1, j.Index2) + 1
	for len(s.graph) < n {
		s.graph = append(s.graph, nil)
	}
	s.appendNode(j.Index1, &node{join: j, forward: true})
	s.appendNode(j.Index2, &node{join: j, forward: false})
	s.size++
	s.last = j
}

func (s *Set) appendNode(idx int, nd *node) {
	head := s.graph[idx]
	if head == nil {
		s.graph[idx] = nd
		return
	}
	for head.next != nil {
		head = head.next
	}
	head.next = nd
}

// Contains reports whether a join between the same aliases is present.
func (s *Set) Contains(j *Join) bool {
	if j == nil || j.Index1 >= len(s.graph) || j.Index1 < 0 {
		return false
	}
	for n := s.graph[j.Index1]; n != nil; n = n.next {
		if n.join.Equal(j) {
			return true
		}
	}
	return false
}

// Remove removes the join between the aliases of j, if any.
func (s *Set) Remove(j *Join) bool {
	if j == nil || j.Index1 >= len(s.graph) || j.Index2 >= len(s.graph) ||
		j.Index1 < 0 || j.Index2 < 0 {
		return false
	}
	removed := s.removeNode(j, j.Index1)
	if !removed {
		return false
	}
	s.removeNode(j, j.Index2)
	s.size--
	if s.last != nil && s.last.Equal(j) {
		s.last = nil
	}
	s.collapse()
	s.sorted = nil
	return true
}

// RemoveAll removes every join of o, returning whether any was removed.
func (s *Set) RemoveAll(o *Set) bool {
	if o == nil {
		return false
	}
	if o == s {
		removed := !s.IsEmpty()
		s.Clear()
		return removed
	}
	removed := false
	for _, j := range o.Joins() {
		if s.Remove(j) {
			removed = true
		}
	}
	return removed
}

func (s *Set) removeNode(j *Join, idx int) bool {
	var prev *node
	for n := s.graph[idx]; n != nil; prev, n = n, n.next {
		if !n.join.Equal(j) {
			continue
		}
		if prev == nil {
			s.graph[idx] = n.next
		} else {
			prev.next = n.next
		}
		return true
	}
	return false
}

// collapse trims trailing empty alias slots.
func (s *Set) collapse() {
	n := len(s.graph)
	for n > 0 && s.graph[n-1] == nil {
		n--
	}
	s.graph = s.graph[:n]
}

// Clear removes all joins.
func (s *Set) Clear() {
	s.graph = nil
	s.size = 0
	s.last = nil
	s.sorted = nil
}

// Joins returns the joins in an order where every join after the first of each connected
// component introduces exactly one new alias. Components are visited by ascending alias
// index and each is walked breadth first. A join whose far alias was already introduced
// closes a cycle and is not returned. The slice is cached until the set changes and must
// not be modified.
func (s *Set) Joins() []*Join {
	if s.sorted != nil {
		return s.sorted
	}
	sorted := make([]*Join, 0, s.size)
	n := len(s.graph)
	seen := make([]bool, n*n+n)
	var queue []*node

	enqueue := func(idx int) {
		for nd := s.graph[idx]; nd != nil; nd = nd.next {
			if si := s.seenIndex(nd.join); !seen[si] {
				seen[si] = true
				queue = append(queue, nd)
			}
		}
	}

	for i := 0; i < n; i++ {
		enqueue(i)
		if len(queue) == 0 {
			continue
		}
		seen[i] = true
		for len(queue) > 0 {
			nd := queue[0]
			queue = queue[1:]

			idx := nd.join.Index1
			if nd.forward {
				idx = nd.join.Index2
			}
			if !seen[idx] {
				if nd.forward {
					sorted = append(sorted, nd.join)
				} else {
					sorted = append(sorted, nd.join.Reverse())
				}
				seen[idx] = true
			}
			enqueue(idx)
		}
	}
	s.sorted = sorted
	return sorted
}

// seenIndex maps a join to a slot above the alias slots, independent of direction since
// both nodes share the join.
func (s *Set) seenIndex(j *Join) int {
	n := len(s.graph)
	return j.Index1*n + j.Index2 + n
}

// Clone returns a copy sharing the joins but not the graph.
func (s *Set) Clone() *Set {
	c := NewSet()
	for _, head := range s.graph {
		for nd := head; nd != nil; nd = nd.next {
			if nd.forward {
				c.addNode(nd.join)
			}
		}
	}
	c.last = s.last
	return c
}

func (s *Set) String() string {
	parts := make([]string, 0, s.size)
	for _, j := range s.Joins() {
		parts = append(parts, j.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
