// Package codec decodes ".vrcaz" asset-bundle envelopes into the
// canonical ".vrca" payload the Service accepts, per spec §4.3 and §6.
//
// A ".vrcaz" envelope is a single codec-tag byte followed by a stream
// compressed with that codec. The dispatch table mirrors the shape of
// bureau-foundation-bureau's artifactstore compression layer (one tag
// per algorithm, explicit switch, no reflection), generalized here to
// streaming Reader/Writer pairs since bundle payloads may be gigabytes.
package codec

import (
	"fmt"
	"io"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

// Tag identifies the inner compression codec declared by a ".vrcaz"
// envelope's header byte.
type Tag byte

const (
	TagNone Tag = 0x00
	TagLZ4  Tag = 0x01
	TagXZ   Tag = 0x02
	TagZstd Tag = 0x03
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagLZ4:
		return "lz4"
	case TagXZ:
		return "xz"
	case TagZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

func (t Tag) valid() bool {
	switch t {
	case TagNone, TagLZ4, TagXZ, TagZstd:
		return true
	default:
		return false
	}
}

// NewDecoder returns a streaming reader that decompresses r according to
// tag. The returned io.ReadCloser's Close must always be called,
// including on early-exit/error paths, to release codec resources (the
// zstd decoder holds worker goroutines and buffers; Close is a no-op
// for the other codecs).
func NewDecoder(tag Tag, r io.Reader) (io.ReadCloser, error) {
	if !tag.valid() {
		return nil, fmt.Errorf("%w: 0x%02x", errsx.ErrUnsupportedCodec, byte(tag))
	}
	switch tag {
	case TagNone:
		return noopReadCloser{r}, nil
	case TagLZ4:
		return newLZ4Decoder(r)
	case TagXZ:
		return newXZDecoder(r)
	case TagZstd:
		return newZstdDecoder(r)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", errsx.ErrUnsupportedCodec, byte(tag))
	}
}

// NewEncoder returns a streaming writer that compresses into w according
// to tag. Close must be called to flush trailing codec frames.
func NewEncoder(tag Tag, w io.Writer) (io.WriteCloser, error) {
	if !tag.valid() {
		return nil, fmt.Errorf("%w: 0x%02x", errsx.ErrUnsupportedCodec, byte(tag))
	}
	switch tag {
	case TagNone:
		return noopWriteCloser{w}, nil
	case TagLZ4:
		return newLZ4Encoder(w), nil
	case TagXZ:
		return newXZEncoder(w)
	case TagZstd:
		return newZstdEncoder(w)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", errsx.ErrUnsupportedCodec, byte(tag))
	}
}

type noopReadCloser struct{ io.Reader }

func (noopReadCloser) Close() error { return nil }

type noopWriteCloser struct{ io.Writer }

func (noopWriteCloser) Close() error { return nil }
