package specio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
)

// CompressedSuffix marks zstd-compressed documents.
const CompressedSuffix = ".zst"

// ErrDecode indicates a malformed document.
var ErrDecode = errors.New("specio: malformed document")

// json keeps full float64 precision; ConfigFastest would truncate to six
// decimal places.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("specio: create zstd decoder: %v", err))
		}
		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("specio: create zstd encoder: %v", err))
		}
		return encoder
	},
}

// Compressed reports whether path names a zstd document.
func Compressed(path string) bool {
	return strings.HasSuffix(path, CompressedSuffix)
}

// Encode writes v as JSON, zstd-compressed when compress is set.
func Encode(w io.Writer, v any, compress bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("specio: encode: %w", err)
	}
	if compress {
		encoder := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(encoder)
		data = encoder.EncodeAll(data, nil)
	}
	_, err = w.Write(data)
	return err
}

// Decode reads JSON from r into v, decompressing first when compress is set.
func Decode(r io.Reader, v any, compress bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if compress {
		decoder := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(decoder)
		data, err = decoder.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("%w: zstd: %w", ErrDecode, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// ReadFile decodes the document at path into v.
func ReadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Decode(bytes.NewReader(data), v, Compressed(path)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteFile encodes v to path, replacing any existing file.
func WriteFile(path string, v any) error {
	var buf bytes.Buffer
	if err := Encode(&buf, v, Compressed(path)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
