// Package substr stores many short strings in one shared buffer.
//
// # Overview
//
// A Collection keeps every string as an (offset, length) span into a single
// byte buffer. While building, strings that occur verbatim inside other
// strings are not stored again, and strings whose beginning matches the end
// of another string are chained so the shared bytes are stored once. For
// example "substring" also stores "sub" and "ring", and placing "cationary"
// after "application" stores only "ary" for the second string.
//
// # When to Use substr
//
// substr suits read-mostly sets of short, overlapping strings:
//   - Symbol and identifier tables
//   - Dictionaries and word lists
//   - Tag and label sets
//
// # Limitations
//
//   - The Collection is immutable; strings cannot be added or changed
//   - Construction is time consuming and may be superlinear in input size
//   - Strings are limited to MaxStringLen (255) bytes
//   - Savings depend on the input and may be small
//   - The layout is a heuristic, not a shortest common superstring
//
// # Basic Usage
//
//	b, err := substr.NewBuilderStrings([]string{"cat", "cats", "category"})
//	if err != nil {
//	    return err
//	}
//	c, err := b.Build()
//	if err != nil {
//	    return err
//	}
//	s, _ := c.String(0) // "cat"
//	_ = c.StorageLen()  // 12, instead of 15
//
//	// Check every string reads back
//	ok, _ := b.Verify()
//
//	// Serialize for reuse
//	var buf bytes.Buffer
//	c.WriteTo(&buf)
//	var c2 substr.Collection
//	c2.ReadFrom(&buf)
//
// # Build Phases
//
// Containment: an Aho-Corasick automaton over all strings finds, for each
// string, the first other string containing it.
//
// Overlap: strings not contained anywhere are placed in input order; after
// each, the next unplaced string starting with one of its suffixes
// (longest first) is appended with only its non-shared tail.
//
// Loose: remaining strings are appended as they are.
//
// Resolve: contained strings take their container's offset plus their own
// offset inside it, repeated until chains of containment are resolved.
//
// Builders are silent; pass WithProgress to observe the phases.
package substr
