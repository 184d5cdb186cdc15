package substr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"
	"unsafe"
)

// Link records that a string occurs verbatim inside another string.
// Container is the id of the enclosing string and Offset the start of the
// occurrence within it. It encodes as the array [container, offset].
type Link struct {
	_         struct{} `cbor:",toarray"`
	Container uint32
	Offset    uint8
}

// Builder turns a list of strings into a Collection.
//
// Building runs four phases in order, each consuming the state of the
// previous one:
//
//  1. containment: every string found inside another string gets a Link
//     to the first container discovered (ascending text id, then
//     left-to-right within the text).
//  2. overlap: strings without a Link are chained greedily, each successor
//     sharing the longest available suffix/prefix with its predecessor.
//  3. loose: anything still unplaced is appended as is.
//  4. resolve: linked strings inherit a position from their containers,
//     repeated until every multi-hop chain is resolved.
//
// Building is time consuming for large inputs. A Builder is not safe for
// concurrent use.
type Builder struct {
	strs   [][]byte
	links  []Link
	linked []bool
	spans  []Span
	placed []bool
	data   []byte
	built  bool

	progress ProgressFunc
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithProgress installs an observer for build phases. Builders are silent
// by default.
func WithProgress(fn ProgressFunc) Option {
	return func(b *Builder) { b.progress = fn }
}

// WithLogger sets the logger used for verification diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder validates inputs and returns a Builder for them. It fails with
// ErrNoMaxStringLen if inputs is empty and with a *StringTooLongError if any
// string is longer than MaxStringLen. The Builder takes ownership of inputs;
// the caller must not modify them afterwards.
func NewBuilder(inputs [][]byte, opts ...Option) (*Builder, error) {
	if err := validate(inputs); err != nil {
		return nil, err
	}
	b := newBuilder(inputs)
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewBuilderStrings is NewBuilder for strings. The strings are not copied.
func NewBuilderStrings(inputs []string, opts ...Option) (*Builder, error) {
	strs := make([][]byte, len(inputs))
	for i := range inputs {
		strs[i] = unsafe.Slice(unsafe.StringData(inputs[i]), len(inputs[i]))
	}
	return NewBuilder(strs, opts...)
}

func newBuilder(strs [][]byte) *Builder {
	return &Builder{
		strs:   strs,
		links:  make([]Link, len(strs)),
		linked: make([]bool, len(strs)),
		spans:  make([]Span, len(strs)),
		placed: make([]bool, len(strs)),
		logger: slog.New(slog.DiscardHandler),
	}
}

func validate(inputs [][]byte) error {
	if len(inputs) == 0 {
		return ErrNoMaxStringLen
	}
	var longest int
	for _, s := range inputs {
		longest = max(longest, len(s))
	}
	if longest > MaxStringLen {
		return &StringTooLongError{Max: longest}
	}
	return nil
}

// Len returns the number of input strings.
func (b *Builder) Len() int { return len(b.strs) }

// Link returns the containment link recorded for id, if any.
func (b *Builder) Link(id int) (Link, bool) {
	if id < 0 || id >= len(b.strs) || !b.linked[id] {
		return Link{}, false
	}
	return b.links[id], true
}

// Build runs all phases, unless already done, and returns the Collection.
// The Collection shares the Builder's buffer; the Builder does not modify it
// after a successful build.
func (b *Builder) Build() (*Collection, error) {
	if err := b.build(); err != nil {
		return nil, err
	}
	return &Collection{spans: b.spans, data: b.data}, nil
}

func (b *Builder) build() error {
	if b.built {
		return nil
	}
	b.report(PhaseContainment)
	b.findContained()

	b.report(PhaseOverlap)
	b.chainOverlaps()

	b.report(PhaseLoose)
	b.appendLoose()

	b.report(PhaseResolve)
	if err := b.resolveContained(); err != nil {
		return err
	}

	b.report(PhaseDone)
	b.built = true
	return nil
}

func (b *Builder) report(p Phase) {
	if b.progress != nil {
		b.progress(p)
	}
}

// Verify builds if needed and checks that every string can be read back
// from its span. Mismatches are logged and reported as false.
func (b *Builder) Verify() (bool, error) {
	if err := b.build(); err != nil {
		return false, err
	}
	for id, s := range b.strs {
		span := b.spans[id]
		if !b.placed[id] || span.end() > len(b.data) || !bytes.Equal(s, b.data[span.Offset:span.end()]) {
			b.logger.LogAttrs(context.Background(), slog.LevelWarn, "verification failed",
				slog.Int("id", id),
				slog.String("detail", b.Describe(id)))
			return false, nil
		}
	}
	return true, nil
}

// findContained records, for every string occurring inside a different
// string, the first container found.
func (b *Builder) findContained() {
	m := newMatcher(b.strs)
	for text, s := range b.strs {
		m.findOverlapping(s, func(pattern uint32, start int) {
			p := int(pattern)
			if p == text || b.linked[p] || b.reaches(text, p) {
				return
			}
			b.links[p] = Link{Container: uint32(text), Offset: uint8(start)}
			b.linked[p] = true
		})
	}
}

// reaches reports whether following links from id arrives at target.
// Linking target into id would then close a cycle, which only duplicate
// strings can produce.
func (b *Builder) reaches(id, target int) bool {
	for {
		if id == target {
			return true
		}
		if !b.linked[id] {
			return false
		}
		id = int(b.links[id].Container)
	}
}

// appendLoose places every string neither linked nor chained.
func (b *Builder) appendLoose() {
	for id, s := range b.strs {
		if b.linked[id] || b.placed[id] {
			continue
		}
		b.place(id, len(b.data))
		b.data = append(b.data, s...)
	}
}

func (b *Builder) place(id, offset int) {
	b.spans[id] = Span{Offset: uint32(offset), Length: uint8(len(b.strs[id]))}
	b.placed[id] = true
}

// resolveContained positions linked strings relative to their containers.
// A pass that resolves nothing while links remain ends the build with an
// *UnresolvedError.
func (b *Builder) resolveContained() error {
	for {
		var pending []int
		progress := false
		for id := range b.strs {
			if !b.linked[id] || b.placed[id] {
				continue
			}
			link := b.links[id]
			if !b.placed[link.Container] {
				pending = append(pending, id)
				continue
			}
			b.place(id, int(b.spans[link.Container].Offset)+int(link.Offset))
			progress = true
		}
		if len(pending) == 0 {
			return nil
		}
		if !progress {
			return &UnresolvedError{IDs: pending}
		}
	}
}

// Describe returns a one-line diagnostic for id: the string, its span and
// up to ten bytes of buffer context on each side.
func (b *Builder) Describe(id int) string {
	if id < 0 || id >= len(b.strs) {
		return fmt.Sprintf("[%d] out of range", id)
	}
	out := fmt.Sprintf("%q [%d]", b.strs[id], id)
	if b.placed[id] {
		s := b.spans[id]
		lo := max(int(s.Offset)-10, 0)
		hi := min(s.end()+10, len(b.data))
		for lo > 0 && lo < len(b.data) && !utf8.RuneStart(b.data[lo]) {
			lo--
		}
		for hi < len(b.data) && !utf8.RuneStart(b.data[hi]) {
			hi++
		}
		if s.end() <= len(b.data) {
			out += fmt.Sprintf(" len: %d offset: %d -> ...%s(%s)%s...",
				s.Length, s.Offset, b.data[lo:s.Offset], b.data[s.Offset:s.end()], b.data[s.end():hi])
		} else {
			out += fmt.Sprintf(" len: %d offset: %d -> out of bounds", s.Length, s.Offset)
		}
	}
	if b.linked[id] {
		out += fmt.Sprintf(" contained in [%d] at %d", b.links[id].Container, b.links[id].Offset)
	}
	return out
}
