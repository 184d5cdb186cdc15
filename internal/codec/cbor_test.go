package codec

import (
	"bytes"
	"strings"
	"testing"
)

type sampleSpan struct {
	_      struct{} `cbor:",toarray"`
	Offset uint32
	Length uint8
}

type sampleMessage struct {
	Spans  []sampleSpan `cbor:"spans"`
	String []byte       `cbor:"string"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleMessage{
		Spans:  []sampleSpan{{Offset: 0, Length: 3}, {Offset: 3, Length: 255}},
		String: []byte("catscategory"),
	}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleMessage
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded.Spans) != 2 || decoded.Spans[1] != original.Spans[1] {
		t.Fatalf("spans mismatch: got %+v", decoded.Spans)
	}
	if !bytes.Equal(decoded.String, original.String) {
		t.Fatalf("string mismatch: got %q", decoded.String)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	message := sampleMessage{Spans: []sampleSpan{{Offset: 7, Length: 1}}, String: []byte("xxxxxxxx")}
	first, err := Marshal(message)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(message)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestSpanEncodesAsArray(t *testing.T) {
	data, err := Marshal(sampleSpan{Offset: 5, Length: 9})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diag, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if diag != "[5, 9]" {
		t.Fatalf("got %s, want [5, 9]", diag)
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var message sampleMessage
	err := Unmarshal([]byte{0xff, 0xfe}, &message)
	if err == nil {
		t.Fatal("expected error for invalid CBOR")
	}
	if !strings.Contains(err.Error(), "cbor") {
		t.Fatalf("unexpected error: %v", err)
	}
}
