package codec

import (
	"io"

	"github.com/ulikunitz/xz"
)

func newXZDecoder(r io.Reader) (io.ReadCloser, error) {
	dec, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return noopReadCloser{dec}, nil
}

func newXZEncoder(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}
