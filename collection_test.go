package substr

import (
	"slices"
	"testing"
	"unicode/utf8"
)

func TestCollectionAccessors(t *testing.T) {
	_, c := build(t, "cat", "cats", "category")
	if c.Len() != 3 || c.IsEmpty() {
		t.Fatalf("Len() = %d, IsEmpty() = %v", c.Len(), c.IsEmpty())
	}
	if c.StorageLen() != 12 || c.NaiveLen() != 15 {
		t.Fatalf("StorageLen() = %d, NaiveLen() = %d", c.StorageLen(), c.NaiveLen())
	}
	for _, id := range []int{-1, 3, 100} {
		if _, ok := c.Get(id); ok {
			t.Fatalf("Get(%d) should fail", id)
		}
		if _, ok := c.String(id); ok {
			t.Fatalf("String(%d) should fail", id)
		}
		if _, ok := c.Before(id, 4); ok {
			t.Fatalf("Before(%d) should fail", id)
		}
		if _, ok := c.After(id, 4); ok {
			t.Fatalf("After(%d) should fail", id)
		}
	}
	if s, ok := c.String(2); !ok || s != "category" {
		t.Fatalf("String(2) = %q, %v", s, ok)
	}

	var empty Collection
	if !empty.IsEmpty() || empty.Len() != 0 || empty.StorageLen() != 0 {
		t.Fatal("zero Collection should be empty")
	}
}

func TestGetDoesNotExposeBuffer(t *testing.T) {
	_, c := build(t, "cat", "cats", "category")
	got, _ := c.Get(0)
	_ = append(got, 'X')
	if s, _ := c.String(1); s != "cats" {
		t.Fatalf("append through Get clobbered the buffer: %q", s)
	}
}

func TestIterationRestartable(t *testing.T) {
	inputs := []string{"application", "cationary", "cat"}
	_, c := build(t, inputs...)
	for range 2 {
		var ids []int
		var got []string
		for id, b := range c.All() {
			ids = append(ids, id)
			got = append(got, string(b))
		}
		if !slices.Equal(ids, []int{0, 1, 2}) || !slices.Equal(got, inputs) {
			t.Fatalf("All() = %v %v", ids, got)
		}
	}
	if got := slices.Collect(c.Strings()); !slices.Equal(got, inputs) {
		t.Fatalf("Strings() = %v", got)
	}
	for range c.All() {
		break
	}
}

func TestBeforeAfterClamp(t *testing.T) {
	_, c := build(t, "application", "cationary")
	tests := []struct {
		id            int
		maxLen        int
		before, after string
	}{
		{0, 5, "", "ary"},
		{0, 0, "", ""},
		{0, -3, "", ""},
		{1, 2, "li", ""},
		{1, 100, "appli", ""},
	}
	for _, tt := range tests {
		before, _ := c.Before(tt.id, tt.maxLen)
		after, _ := c.After(tt.id, tt.maxLen)
		if string(before) != tt.before || string(after) != tt.after {
			t.Errorf("id %d maxLen %d: got %q/%q, want %q/%q",
				tt.id, tt.maxLen, before, after, tt.before, tt.after)
		}
	}
}

func TestBeforeAfterCharacterBoundaries(t *testing.T) {
	// "ü" and "€" are multi-byte; every cut must keep them whole.
	inputs := []string{"a€b", "üx", "y€", "zü"}
	_, c := build(t, inputs...)
	for id := range inputs {
		for maxLen := range 8 {
			before, _ := c.Before(id, maxLen)
			after, _ := c.After(id, maxLen)
			if len(before) > maxLen || len(after) > maxLen {
				t.Fatalf("id %d maxLen %d: context longer than requested", id, maxLen)
			}
			if !utf8.Valid(before) || !utf8.Valid(after) {
				t.Fatalf("id %d maxLen %d: split character: %q / %q", id, maxLen, before, after)
			}
		}
	}
}

func TestBeforeShrinksToCharacterStart(t *testing.T) {
	// Buffer "a€bcd": the span of "bcd" starts at 4, and one byte back lands
	// inside "€", so the context is cut to nothing.
	c := &Collection{
		spans: []Span{{Offset: 0, Length: 4}, {Offset: 4, Length: 3}},
		data:  []byte("a€bcd"),
	}
	if b, _ := c.Before(1, 1); len(b) != 0 {
		t.Fatalf("Before(1, 1) = %q, want empty", b)
	}
	if b, _ := c.Before(1, 3); string(b) != "€" {
		t.Fatalf("Before(1, 3) = %q, want €", b)
	}
	c = &Collection{
		spans: []Span{{Offset: 0, Length: 1}},
		data:  []byte("a€"),
	}
	if a, _ := c.After(0, 2); len(a) != 0 {
		t.Fatalf("After(0, 2) = %q, want empty", a)
	}
	if a, _ := c.After(0, 3); string(a) != "€" {
		t.Fatalf("After(0, 3) = %q, want €", a)
	}
}

func BenchmarkGet(b *testing.B) {
	_, c := build(b, "application", "cationary", "cat", "cats", "category")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(i % 5)
	}
}
