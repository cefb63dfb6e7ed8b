// Package rsync generates and verifies librsync-compatible block
// signatures, per spec §4.1 and §6. Each version uploaded to the
// Service carries a signature file so later versions could in principle
// be transmitted as librsync deltas (spec §9 notes that delta upload is
// never actually exercised by the pipeline, but the signature is still
// required on every version).
//
// The format follows librsync's MD4 signature layout: a 4-byte magic, a
// 4-byte block length, a 4-byte strong-sum length, then one (weak
// checksum, truncated strong hash) pair per block of the source file.
package rsync

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	"os"

	"golang.org/x/crypto/md4"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

const (
	// sigMagicMD4 is librsync's RS_MD4_SIG_MAGIC.
	sigMagicMD4 = 0x72730136

	minBlockLen     = 512
	maxBlockLen     = 128 * 1024
	strongSumLength = 8
)

// blockLength picks librsync's default block size: sqrt(fileSize)
// rounded up to the next power of two, clamped to [minBlockLen, maxBlockLen].
func blockLength(fileSize int64) uint32 {
	if fileSize <= 0 {
		return minBlockLen
	}
	raw := math.Sqrt(float64(fileSize))
	length := nextPowerOfTwo(uint32(math.Ceil(raw)))
	if length < minBlockLen {
		return minBlockLen
	}
	if length > maxBlockLen {
		return maxBlockLen
	}
	return length
}

func nextPowerOfTwo(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len32(n-1)
}

// rollsum computes the rsync rolling weak checksum over a block, as used
// by the original Tridgell rsync algorithm: s1 is the byte sum, s2 is the
// position-weighted byte sum, combined into a single 32-bit value.
func rollsum(block []byte) uint32 {
	var s1, s2 uint32
	n := uint32(len(block))
	for i, b := range block {
		s1 += uint32(b)
		s2 += (n - uint32(i)) * uint32(b)
	}
	s1 &= 0xffff
	s2 &= 0xffff
	return s2<<16 | s1
}

// Generate writes a librsync-style signature of the file at srcPath to
// dstPath, following the orchestrator's "{source}.sig" convention
// (spec §4.1). Generation streams the source in block-sized chunks; it
// never loads the whole file into memory.
func Generate(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errsx.NewIOFailure(srcPath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return errsx.NewIOFailure(srcPath, err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return errsx.NewIOFailure(dstPath, err)
	}
	defer dst.Close()

	if err := generateStream(src, info.Size(), dst); err != nil {
		return &errsx.SignatureFailure{Cause: err}
	}
	return dst.Sync()
}

func generateStream(src io.Reader, size int64, dst io.Writer) error {
	blockLen := blockLength(size)

	header := make([]byte, 12)
	binary.BigEndian.PutUint32(header[0:4], sigMagicMD4)
	binary.BigEndian.PutUint32(header[4:8], blockLen)
	binary.BigEndian.PutUint32(header[8:12], strongSumLength)
	if _, err := dst.Write(header); err != nil {
		return err
	}

	buf := make([]byte, blockLen)
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if werr := writeBlockSignature(dst, buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeBlockSignature(dst io.Writer, block []byte) error {
	weak := rollsum(block)

	h := md4.New()
	h.Write(block)
	strong := h.Sum(nil)[:strongSumLength]

	entry := make([]byte, 4+strongSumLength)
	binary.BigEndian.PutUint32(entry[0:4], weak)
	copy(entry[4:], strong)

	_, err := dst.Write(entry)
	return err
}

// Header describes the parsed preamble of a signature file.
type Header struct {
	Magic           uint32
	BlockLength     uint32
	StrongSumLength uint32
}

// Verify recomputes the signature of the file at srcPath and checks it
// against the signature file at sigPath, byte for byte. It is the
// self-consistency check named in spec §8 invariant 3.
func Verify(srcPath, sigPath string) (bool, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return false, errsx.NewIOFailure(srcPath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return false, errsx.NewIOFailure(srcPath, err)
	}

	want, err := os.ReadFile(sigPath)
	if err != nil {
		return false, errsx.NewIOFailure(sigPath, err)
	}

	var got bytes.Buffer
	if err := generateStream(src, info.Size(), &got); err != nil {
		return false, &errsx.SignatureFailure{Cause: err}
	}

	return got.String() == string(want), nil
}

// ParseHeader reads just the 12-byte preamble of a signature file,
// useful for diagnostics without re-reading the whole file.
func ParseHeader(sigPath string) (Header, error) {
	f, err := os.Open(sigPath)
	if err != nil {
		return Header{}, errsx.NewIOFailure(sigPath, err)
	}
	defer f.Close()

	buf := make([]byte, 12)
	if _, err := io.ReadFull(f, buf); err != nil {
		return Header{}, errsx.NewIOFailure(sigPath, err)
	}

	return Header{
		Magic:           binary.BigEndian.Uint32(buf[0:4]),
		BlockLength:     binary.BigEndian.Uint32(buf[4:8]),
		StrongSumLength: binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}
