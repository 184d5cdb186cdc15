package substr

// noState marks the end of a dictionary-suffix chain.
const noState = ^uint32(0)

// matcher is an Aho-Corasick automaton over a fixed set of byte patterns.
// It reports every occurrence of every pattern, overlapping ones included.
//
// Layout: states are dense indices, state 0 is the root.
//
//	edges: (state<<8 | byte) -> child state, the trie goto function
//	kids:  child states per state, in insertion order (for the BFS pass)
//	fail:  longest proper suffix of the state's path that is also a trie path
//	dict:  nearest state on the fail chain that ends at least one pattern
//	out:   pattern ids ending exactly at the state, ascending
type matcher struct {
	edges    map[uint64]uint32
	kids     [][]uint32
	label    []byte
	fail     []uint32
	dict     []uint32
	out      [][]uint32
	patterns [][]byte
}

func edgeKey(state uint32, b byte) uint64 { return uint64(state)<<8 | uint64(b) }

// newMatcher builds the trie for patterns and links failure and
// dictionary-suffix transitions breadth first.
func newMatcher(patterns [][]byte) *matcher {
	m := &matcher{
		edges:    make(map[uint64]uint32),
		patterns: patterns,
	}
	m.addState(0)
	for id, p := range patterns {
		state := uint32(0)
		for _, b := range p {
			next, ok := m.edges[edgeKey(state, b)]
			if !ok {
				next = m.addState(b)
				m.edges[edgeKey(state, b)] = next
				m.kids[state] = append(m.kids[state], next)
			}
			state = next
		}
		m.out[state] = append(m.out[state], uint32(id))
	}
	m.link()
	return m
}

func (m *matcher) addState(label byte) uint32 {
	m.kids = append(m.kids, nil)
	m.label = append(m.label, label)
	m.fail = append(m.fail, 0)
	m.dict = append(m.dict, noState)
	m.out = append(m.out, nil)
	return uint32(len(m.out) - 1)
}

func (m *matcher) link() {
	queue := make([]uint32, 0, len(m.out))
	for _, child := range m.kids[0] {
		m.fail[child] = 0
		m.setDict(child)
		queue = append(queue, child)
	}
	for head := 0; head < len(queue); head++ {
		parent := queue[head]
		for _, child := range m.kids[parent] {
			b := m.label[child]
			f := m.fail[parent]
			for {
				if next, ok := m.edges[edgeKey(f, b)]; ok {
					m.fail[child] = next
					break
				}
				if f == 0 {
					m.fail[child] = 0
					break
				}
				f = m.fail[f]
			}
			m.setDict(child)
			queue = append(queue, child)
		}
	}
}

func (m *matcher) setDict(state uint32) {
	f := m.fail[state]
	if len(m.out[f]) > 0 {
		m.dict[state] = f
	} else {
		m.dict[state] = m.dict[f]
	}
}

// step advances from state on b, following failure links as needed.
func (m *matcher) step(state uint32, b byte) uint32 {
	for {
		if next, ok := m.edges[edgeKey(state, b)]; ok {
			return next
		}
		if state == 0 {
			return 0
		}
		state = m.fail[state]
	}
}

// findOverlapping calls fn for every pattern occurrence in text with the
// pattern id and the occurrence's start offset. Occurrences are reported by
// ascending end offset; at the same end, longer patterns come first and
// duplicate patterns come in id order. Empty patterns match at every offset.
func (m *matcher) findOverlapping(text []byte, fn func(id uint32, start int)) {
	state := uint32(0)
	m.emit(state, 0, fn)
	for i, b := range text {
		state = m.step(state, b)
		m.emit(state, i+1, fn)
	}
}

func (m *matcher) emit(state uint32, end int, fn func(id uint32, start int)) {
	for s := state; s != noState; s = m.dict[s] {
		for _, id := range m.out[s] {
			fn(id, end-len(m.patterns[id]))
		}
	}
}
