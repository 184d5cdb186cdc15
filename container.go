package substr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/axiomhq/substr/internal/compress"
)

// formatVersion identifies the container layout written by WriteTo.
const formatVersion uint64 = 1

// maxPayloadSize is a sanity cap on the header lengths read by ReadFrom.
// Allocation is bounded by the stored bytes actually read and the ratio limit
// of the payload compression, not by this constant.
const maxPayloadSize = 1 << 36

// Compression selects how WriteTo compresses the payload.
type Compression = compress.Tag

// Supported payload compressions.
const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZstd = compress.Zstd
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	return compress.Parse(name)
}

// Encoder writes Collections in the container format.
type Encoder struct {
	w           io.Writer
	compression Compression
}

// NewEncoder returns an Encoder writing to w with the given compression.
// Payloads that do not shrink are stored uncompressed.
func NewEncoder(w io.Writer, compression Compression) *Encoder {
	return &Encoder{w: w, compression: compression}
}

// Encode writes c to the underlying writer.
func (e *Encoder) Encode(c *Collection) error {
	_, err := c.writeTo(e.w, e.compression)
	return err
}

// WriteTo serializes the Collection to w with zstd compression.
// Layout:
//   - 8 bytes version word: (version<<32)|(compression<<8)|1
//   - 8 bytes raw payload length
//   - 8 bytes stored payload length
//   - 32 bytes BLAKE3 digest of the raw payload
//   - stored payload: the CBOR encoding from MarshalBinary, compressed
//
// All integers are little-endian.
func (c *Collection) WriteTo(w io.Writer) (int64, error) {
	return c.writeTo(w, CompressionZstd)
}

func (c *Collection) writeTo(w io.Writer, compression Compression) (int64, error) {
	raw, err := c.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("encoding collection: %w", err)
	}
	stored, used, err := compress.Auto(raw, compression)
	if err != nil {
		return 0, err
	}
	digest := blake3.Sum256(raw)

	var hdr [56]byte
	binary.LittleEndian.PutUint64(hdr[0:], formatVersion<<32|uint64(used)<<8|1)
	binary.LittleEndian.PutUint64(hdr[8:], uint64(len(raw)))
	binary.LittleEndian.PutUint64(hdr[16:], uint64(len(stored)))
	copy(hdr[24:], digest[:])

	var n int64
	if nn, err := w.Write(hdr[:]); err != nil {
		return n, err
	} else {
		n += int64(nn)
	}
	if nn, err := w.Write(stored); err != nil {
		return n, err
	} else {
		n += int64(nn)
	}
	return n, nil
}

// ReadFrom deserializes a Collection written by WriteTo or an Encoder.
func (c *Collection) ReadFrom(r io.Reader) (int64, error) {
	var (
		n   int64
		hdr [56]byte
	)
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return n, fmt.Errorf("reading header: %w", err)
	}
	n += int64(len(hdr))
	ver := binary.LittleEndian.Uint64(hdr[0:])
	if ver>>32 != formatVersion {
		return n, ErrBadVersion
	}
	tag := Compression((ver >> 8) & 0xFF)
	rawLen := binary.LittleEndian.Uint64(hdr[8:])
	storedLen := binary.LittleEndian.Uint64(hdr[16:])
	if rawLen > maxPayloadSize || storedLen > maxPayloadSize {
		return n, fmt.Errorf("%w: payload of %d bytes (%d stored) too large", ErrCorrupt, rawLen, storedLen)
	}
	bound := compress.MaxDecompressedSize(tag, int(storedLen))
	if bound < 0 {
		return n, fmt.Errorf("%w: unknown compression %s", ErrCorrupt, tag)
	}
	if rawLen > uint64(bound) || (tag == CompressionNone && rawLen != storedLen) {
		return n, fmt.Errorf("%w: %d raw bytes cannot come from %d stored as %s", ErrCorrupt, rawLen, storedLen, tag)
	}

	var stored bytes.Buffer
	copied, err := io.CopyN(&stored, r, int64(storedLen))
	n += copied
	if err != nil {
		return n, fmt.Errorf("reading payload: %w", err)
	}
	raw, err := compress.Decompress(stored.Bytes(), tag, int(rawLen))
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if blake3.Sum256(raw) != [32]byte(hdr[24:56]) {
		return n, ErrChecksum
	}
	return n, c.UnmarshalBinary(raw)
}

// Decoder reads Collections in the container format.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the next Collection.
func (d *Decoder) Decode() (*Collection, error) {
	c := &Collection{}
	if _, err := c.ReadFrom(d.r); err != nil {
		return nil, err
	}
	return c, nil
}
