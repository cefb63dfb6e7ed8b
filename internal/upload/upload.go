// Package upload drives pre-signed-URL uploads against the Service's
// storage backend, per spec §4.5: a single PUT for small payloads, or a
// caller-driven sequence of byte-range PUTs for multipart ones. Neither
// driver retries; a failed part surfaces immediately so the orchestrator
// can decide whether to restart the whole file version.
package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

// Driver issues the HTTP PUT requests a pre-signed upload URL expects.
type Driver struct {
	httpClient *http.Client
	userAgent  string
}

// PartURLFunc requests the pre-signed URL for a single 1-based part
// number, typically backed by serviceclient.Client.StartFileUpload.
type PartURLFunc func(ctx context.Context, partNumber int) (string, error)

// ProgressFunc reports that partsDone of totalParts have completed.
type ProgressFunc func(partsDone, totalParts int)

// New builds a Driver. client is expected to have no default timeout
// tight enough to abort a large multipart PUT; callers control
// cancellation via the context passed to each call instead.
func New(client *http.Client, userAgent string) *Driver {
	return &Driver{httpClient: client, userAgent: userAgent}
}

// PutSimple uploads the whole file at path in a single PUT, per the
// "simple" FileCategory. contentMD5 is the base64-encoded MD5 digest of
// the file, sent as the Content-MD5 header so the storage backend can
// reject a corrupted transfer itself. onProgress, if non-nil, fires
// once with (0, 1) before the request and once with (1, 1) on success,
// mirroring PutMultipart's per-part shape for a single-part upload.
func (d *Driver) PutSimple(ctx context.Context, url, path, contentType, contentMD5 string, onProgress ProgressFunc) (etag string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errsx.NewIOFailure(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errsx.NewIOFailure(path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("User-Agent", d.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if contentMD5 != "" {
		req.Header.Set("Content-MD5", contentMD5)
	}

	if onProgress != nil {
		onProgress(0, 1)
	}
	etag, err = d.do(req)
	if err != nil {
		return "", err
	}
	if onProgress != nil {
		onProgress(1, 1)
	}
	return etag, nil
}

// PartCount returns how many parts a file of the given size splits into
// at partSize bytes per part, per spec §4.5's multipart sizing.
func PartCount(size, partSize int64) int {
	if size <= 0 {
		return 1
	}
	count := size / partSize
	if size%partSize != 0 {
		count++
	}
	return int(count)
}

// PutMultipart uploads the file at path in partSize-sized chunks,
// requesting each part's URL lazily via getPartURL and returning the
// collected ETags in part order, ready to hand to
// serviceclient.Client.FinishFileUpload.
func (d *Driver) PutMultipart(ctx context.Context, path string, partSize int64, getPartURL PartURLFunc, onProgress ProgressFunc) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errsx.NewIOFailure(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errsx.NewIOFailure(path, err)
	}

	totalParts := PartCount(info.Size(), partSize)
	etags := make([]string, 0, totalParts)

	if onProgress != nil {
		onProgress(0, totalParts)
	}

	for part := 1; part <= totalParts; part++ {
		if err := ctx.Err(); err != nil {
			return nil, errsx.ErrCancelled
		}

		offset := int64(part-1) * partSize
		length := partSize
		if remaining := info.Size() - offset; remaining < length {
			length = remaining
		}

		url, err := getPartURL(ctx, part)
		if err != nil {
			return nil, fmt.Errorf("request part %d url: %w", part, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, errsx.ErrCancelled
		}

		section := io.NewSectionReader(f, offset, length)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, section)
		if err != nil {
			return nil, fmt.Errorf("build part %d request: %w", part, err)
		}
		req.ContentLength = length
		req.Header.Set("User-Agent", d.userAgent)

		etag, err := d.do(req)
		if err != nil {
			return nil, fmt.Errorf("upload part %d: %w", part, err)
		}
		etags = append(etags, etag)

		if onProgress != nil {
			onProgress(part, totalParts)
		}
	}

	if len(etags) != totalParts {
		return nil, errsx.ErrPartsIncomplete
	}
	return etags, nil
}

// do issues req and extracts the response ETag, stripped of its
// surrounding quotes (storage backends return ETag as a quoted string).
func (d *Driver) do(req *http.Request) (string, error) {
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &errsx.UploadFailure{Status: resp.StatusCode, Body: string(body)}
	}

	etag := resp.Header.Get("ETag")
	if etag == "" {
		return "", errsx.ErrEtagMissing
	}
	return strings.Trim(etag, `"'`), nil
}
