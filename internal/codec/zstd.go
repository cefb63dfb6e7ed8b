package codec

import (
	"io"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// newZstdDecoder returns a streaming zstd decoder. Per spec §4.3, the
// Zstandard codec may use a multi-threaded decoder when available;
// WithDecoderConcurrency mirrors that, bounded by GOMAXPROCS.
func newZstdDecoder(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		return nil, err
	}
	return &zstdReadCloser{dec}, nil
}

type zstdReadCloser struct{ dec *zstd.Decoder }

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return nil
}

func newZstdEncoder(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}
