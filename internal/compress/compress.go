// Package compress implements the payload compression used by the substr
// container format.
package compress

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Tag identifies the compression algorithm of a payload. Tags are stored in
// the container header; changing the values breaks format compatibility.
type Tag uint8

const (
	// None stores the payload as is.
	None Tag = 0
	// LZ4 is LZ4 block compression: fast, modest ratio.
	LZ4 Tag = 1
	// Zstd is zstd at the default level: better ratio on text.
	Zstd Tag = 2
)

// String returns the human-readable name of a tag.
func (tag Tag) String() string {
	switch tag {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// Parse parses a tag from its string representation.
func Parse(name string) (Tag, error) {
	switch name {
	case "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// ErrIncompressible is returned when compressed output would not be smaller
// than the input. Callers fall back to None.
var ErrIncompressible = errors.New("data is incompressible")

// Compress compresses data with the given algorithm. For None it returns
// data unchanged.
func Compress(data []byte, tag Tag) ([]byte, error) {
	switch tag {
	case None:
		return data, nil
	case LZ4:
		return compressLZ4(data)
	case Zstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// Auto compresses data with tag, falling back to None when the data does
// not shrink. It returns the stored bytes and the tag actually used.
func Auto(data []byte, tag Tag) ([]byte, Tag, error) {
	compressed, err := Compress(data, tag)
	if errors.Is(err, ErrIncompressible) {
		return data, None, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return compressed, tag, nil
}

// ErrSizeBound is returned when a declared decompressed size is larger than
// any payload of the given compressed length can produce.
var ErrSizeBound = errors.New("declared size exceeds compression bound")

// MaxDecompressedSize returns the largest output a payload of storedLen
// bytes can decompress to under tag, or -1 for an unknown tag.
func MaxDecompressedSize(tag Tag, storedLen int) int {
	switch tag {
	case None:
		return storedLen
	case LZ4:
		// An LZ4 block encodes at most 255 output bytes per input byte.
		return 255*storedLen + 16
	case Zstd:
		// An RLE block spends four bytes on at most 128 KiB of output.
		return (storedLen/4 + 1) << 17
	default:
		return -1
	}
}

// Decompress reverses Compress. The result must be exactly size bytes. size
// is checked against MaxDecompressedSize before anything is allocated.
func Decompress(compressed []byte, tag Tag, size int) ([]byte, error) {
	bound := MaxDecompressedSize(tag, len(compressed))
	if bound < 0 {
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
	if size < 0 || size > bound {
		return nil, fmt.Errorf("%w: %d bytes from %d stored as %s", ErrSizeBound, size, len(compressed), tag)
	}
	switch tag {
	case None:
		if len(compressed) != size {
			return nil, fmt.Errorf("uncompressed payload: size %d does not match expected %d", len(compressed), size)
		}
		return compressed, nil
	case LZ4:
		return decompressLZ4(compressed, size)
	case Zstd:
		return decompressZstd(compressed, size)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, ErrIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	destination := make([]byte, size)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return destination, nil
}

// zstd.Encoder is safe for concurrent use via EncodeAll, so one is shared.
// Decoders are created per call because the memory limit depends on the
// expected size.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, ErrIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, size int) ([]byte, error) {
	// Frames from compressZstd declare a window of at most twice the content
	// size and never below 1 KiB; the limit must admit that window.
	limit := max(2*uint64(size), 1<<10)
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(limit))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	defer decoder.Close()
	result, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
	}
	return result, nil
}
