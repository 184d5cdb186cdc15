package substr

import (
	"iter"
	"unicode/utf8"
)

// prefixIndex maps every proper, non-empty prefix of the unlinked strings to
// the ids carrying that prefix, ascending.
type prefixIndex map[string][]uint32

// splitPoints yields the byte offsets of the character boundaries strictly
// inside s, ascending. Invalid UTF-8 bytes count as one character each.
func splitPoints(s []byte) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < len(s); {
			_, n := utf8.DecodeRune(s[i:])
			i += n
			if i >= len(s) || !yield(i) {
				return
			}
		}
	}
}

func (b *Builder) buildPrefixIndex() prefixIndex {
	index := make(prefixIndex)
	for id, s := range b.strs {
		if b.linked[id] {
			continue
		}
		for split := range splitPoints(s) {
			key := string(s[:split])
			index[key] = append(index[key], uint32(id))
		}
	}
	return index
}

// chainOverlaps places every unlinked string, in id order, at the end of the
// buffer and then keeps extending the chain with an unplaced string whose
// prefix equals a suffix of the last placed one. Only the successor's
// bytes past the shared part are appended.
func (b *Builder) chainOverlaps() {
	index := b.buildPrefixIndex()
	for id, s := range b.strs {
		if b.linked[id] || b.placed[id] {
			continue
		}
		b.place(id, len(b.data))
		b.data = append(b.data, s...)
		for {
			next, overlap, ok := b.nextInChain(id, index)
			if !ok {
				break
			}
			b.place(next, len(b.data)-overlap)
			b.data = append(b.data, b.strs[next][overlap:]...)
			id = next
		}
	}
}

// nextInChain looks for an unplaced string starting with a suffix of id's
// string. Split points are tried in ascending order, so the longest suffix
// wins; among strings sharing that prefix the lowest id wins. It returns the
// successor and the length of the shared bytes.
func (b *Builder) nextInChain(id int, index prefixIndex) (next, overlap int, ok bool) {
	s := b.strs[id]
	for split := range splitPoints(s) {
		suffix := s[split:]
		for _, candidate := range index[string(suffix)] {
			if !b.placed[candidate] {
				return int(candidate), len(suffix), true
			}
		}
	}
	return 0, 0, false
}
