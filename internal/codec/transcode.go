package codec

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

// Transcode reads the ".vrcaz" envelope at srcPath and writes the
// decompressed canonical bundle to dstPath, per spec §4.3. The
// operation streams in bounded memory and writes to "{dest}.tmp" before
// an atomic rename into place, so a crash mid-transcode never leaves a
// partial canonical file at dstPath.
func Transcode(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errsx.NewIOFailure(srcPath, err)
	}
	defer src.Close()

	br := bufio.NewReader(src)
	tagByte, err := br.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: %v", errsx.ErrEnvelopeInvalid, err)
	}

	tmpPath := dstPath + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o660)
	if err != nil {
		return errsx.NewIOFailure(tmpPath, err)
	}

	if err := transcodeBody(Tag(tagByte), br, out); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return errsx.NewIOFailure(tmpPath, err)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		os.Remove(tmpPath)
		return errsx.NewIOFailure(dstPath, err)
	}
	return nil
}

func transcodeBody(tag Tag, r io.Reader, w io.Writer) error {
	decoder, err := NewDecoder(tag, r)
	if err != nil {
		return err
	}
	defer decoder.Close()

	if _, err := io.Copy(w, decoder); err != nil {
		return fmt.Errorf("%w: %v", errsx.ErrCodecFailure, err)
	}
	return nil
}

// Envelope writes srcPath's contents into dstPath wrapped as a ".vrcaz"
// envelope compressed with tag. This is the inverse of Transcode; it
// exists primarily to build test fixtures and to support a future
// publish-side re-compression step, not as a spec-mandated operation.
func Envelope(tag Tag, srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errsx.NewIOFailure(srcPath, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dstPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o660)
	if err != nil {
		return errsx.NewIOFailure(dstPath, err)
	}
	defer out.Close()

	if _, err := out.Write([]byte{byte(tag)}); err != nil {
		return errsx.NewIOFailure(dstPath, err)
	}

	encoder, err := NewEncoder(tag, out)
	if err != nil {
		return err
	}

	if _, err := io.Copy(encoder, src); err != nil {
		encoder.Close()
		return errsx.NewIOFailure(dstPath, err)
	}
	return encoder.Close()
}
