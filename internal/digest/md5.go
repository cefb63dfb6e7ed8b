// Package digest computes streaming MD5 digests of files without loading
// them fully into memory, per spec §4.1.
package digest

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"io"
	"os"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

// chunkSize is the read buffer size recommended by spec §4.1.
const chunkSize = 1 << 20 // 1 MiB

// Result holds both wire encodings of an MD5 digest: hex for API request
// bodies, base64 for the Content-MD5 upload header.
type Result struct {
	Hex    string
	Base64 string
	Size   int64
}

// File computes the streaming MD5 digest and byte size of the file at
// path. It never loads the whole file into memory.
func File(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, errsx.NewIOFailure(path, err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, chunkSize)
	size, err := io.CopyBuffer(h, f, buf)
	if err != nil {
		return Result{}, errsx.NewIOFailure(path, err)
	}

	sum := h.Sum(nil)
	return Result{
		Hex:    hex.EncodeToString(sum),
		Base64: base64.StdEncoding.EncodeToString(sum),
		Size:   size,
	}, nil
}
