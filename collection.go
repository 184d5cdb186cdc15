package substr

import (
	"iter"
	"unicode/utf8"
)

// Span locates one string inside a Collection's shared buffer.
// It encodes as the two-element array [offset, length].
type Span struct {
	_      struct{} `cbor:",toarray"`
	Offset uint32
	Length uint8
}

func (s Span) end() int { return int(s.Offset) + int(s.Length) }

// Collection is a compact, immutable collection of strings.
//
// All strings live in one buffer; each id maps to a Span within it.
// Strings that occur inside other strings, or that overlap the end of a
// preceding string, share bytes. A Collection is created with a Builder and
// is safe for concurrent reads.
type Collection struct {
	spans []Span
	data  []byte
}

// Len returns the number of strings in the collection.
func (c *Collection) Len() int { return len(c.spans) }

// StorageLen returns the length of the shared buffer in bytes.
func (c *Collection) StorageLen() int { return len(c.data) }

// IsEmpty reports whether the collection holds no strings.
func (c *Collection) IsEmpty() bool { return len(c.spans) == 0 }

// NaiveLen returns the number of bytes the strings would occupy if simply
// concatenated.
func (c *Collection) NaiveLen() int {
	var n int
	for _, s := range c.spans {
		n += int(s.Length)
	}
	return n
}

// Bytes returns the shared buffer. The caller must not modify it.
func (c *Collection) Bytes() []byte { return c.data[:len(c.data):len(c.data)] }

// Span returns the location of the string with the given id.
func (c *Collection) Span(id int) (Span, bool) {
	if id < 0 || id >= len(c.spans) {
		return Span{}, false
	}
	return c.spans[id], true
}

// Get returns the string with the given id, or false if id is out of range.
// The returned slice aliases the shared buffer and must not be modified;
// its capacity is clipped so appending to it copies.
func (c *Collection) Get(id int) ([]byte, bool) {
	s, ok := c.Span(id)
	if !ok {
		return nil, false
	}
	return c.data[s.Offset:s.end():s.end()], true
}

// String returns a copy of the string with the given id.
func (c *Collection) String(id int) (string, bool) {
	b, ok := c.Get(id)
	if !ok {
		return "", false
	}
	return string(b), true
}

// All returns an iterator over (id, string) pairs in ascending id order.
func (c *Collection) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for id := range c.spans {
			b, _ := c.Get(id)
			if !yield(id, b) {
				return
			}
		}
	}
}

// Strings returns an iterator over copies of the strings in id order.
func (c *Collection) Strings() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, b := range c.All() {
			if !yield(string(b)) {
				return
			}
		}
	}
}

// Before returns at most maxLen bytes of the buffer immediately in front of
// the string with the given id. The start is moved toward the string until
// it falls on a UTF-8 character start, so no encoded character is split.
func (c *Collection) Before(id int, maxLen int) ([]byte, bool) {
	s, ok := c.Span(id)
	if !ok {
		return nil, false
	}
	pos := int(s.Offset)
	start := pos - max(maxLen, 0)
	if start < 0 {
		start = 0
	}
	for start < pos && !utf8.RuneStart(c.data[start]) {
		start++
	}
	return c.data[start:pos:pos], true
}

// After returns at most maxLen bytes of the buffer immediately behind the
// string with the given id, cut back to a UTF-8 character start.
func (c *Collection) After(id int, maxLen int) ([]byte, bool) {
	s, ok := c.Span(id)
	if !ok {
		return nil, false
	}
	pos := s.end()
	end := min(pos+max(maxLen, 0), len(c.data))
	for end > pos && end < len(c.data) && !utf8.RuneStart(c.data[end]) {
		end--
	}
	return c.data[pos:end:end], true
}
