package substr

import (
	"fmt"

	"github.com/axiomhq/substr/internal/codec"
)

// wireCollection is the CBOR schema of a Collection.
type wireCollection struct {
	Spans  []Span `cbor:"spans"`
	String []byte `cbor:"string"`
}

// wireBuilder is the CBOR schema of a Builder's working state. Absent links
// and spans encode as null.
type wireBuilder struct {
	Strings     [][]byte `cbor:"strings"`
	ContainedIn []*Link  `cbor:"contained_in"`
	Buffer      []byte   `cbor:"buffer"`
	Spans       []*Span  `cbor:"spans"`
	Built       bool     `cbor:"built"`
}

// MarshalBinary implements encoding.BinaryMarshaler using CBOR.
func (c *Collection) MarshalBinary() ([]byte, error) {
	return codec.Marshal(wireCollection{Spans: c.spans, String: c.data})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Spans reaching past
// the buffer are rejected with ErrCorrupt.
func (c *Collection) UnmarshalBinary(data []byte) error {
	var w wireCollection
	if err := codec.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding collection: %w", err)
	}
	for id, s := range w.Spans {
		if s.end() > len(w.String) {
			return fmt.Errorf("%w: span %d [%d+%d] exceeds buffer of %d bytes",
				ErrCorrupt, id, s.Offset, s.Length, len(w.String))
		}
	}
	if w.String == nil {
		w.String = []byte{}
	}
	*c = Collection{spans: w.Spans, data: w.String}
	return nil
}

// MarshalBinary encodes the Builder's working state using CBOR, for
// inspection. Options are not encoded.
func (b *Builder) MarshalBinary() ([]byte, error) {
	w := wireBuilder{
		Strings:     b.strs,
		ContainedIn: make([]*Link, len(b.strs)),
		Buffer:      b.data,
		Spans:       make([]*Span, len(b.strs)),
		Built:       b.built,
	}
	for id := range b.strs {
		if b.linked[id] {
			w.ContainedIn[id] = &b.links[id]
		}
		if b.placed[id] {
			w.Spans[id] = &b.spans[id]
		}
	}
	return codec.Marshal(w)
}

// UnmarshalBinary restores working state written by MarshalBinary. The
// inputs are validated as by NewBuilder. A restored Builder that was not
// built is reset and builds from scratch; a built one can be verified and
// turned into a Collection. Options set on b are kept.
func (b *Builder) UnmarshalBinary(data []byte) error {
	var w wireBuilder
	if err := codec.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding builder: %w", err)
	}
	if err := validate(w.Strings); err != nil {
		return err
	}
	n := len(w.Strings)
	if len(w.ContainedIn) != n || len(w.Spans) != n {
		return fmt.Errorf("%w: builder tables have %d links and %d spans for %d strings",
			ErrCorrupt, len(w.ContainedIn), len(w.Spans), n)
	}

	restored := newBuilder(w.Strings)
	restored.progress = b.progress
	if b.logger != nil {
		restored.logger = b.logger
	}

	if w.Built {
		for id := range n {
			if l := w.ContainedIn[id]; l != nil {
				if int(l.Container) >= n {
					return fmt.Errorf("%w: link %d points at missing string %d", ErrCorrupt, id, l.Container)
				}
				restored.links[id] = *l
				restored.linked[id] = true
			}
			s := w.Spans[id]
			if s == nil || s.end() > len(w.Buffer) {
				return fmt.Errorf("%w: built state has no valid span for string %d", ErrCorrupt, id)
			}
			restored.spans[id] = *s
			restored.placed[id] = true
		}
		restored.data = w.Buffer
		restored.built = true
	}
	*b = *restored
	return nil
}
