package serviceclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

// Subresource names the part of a file version a multi-step upload
// targets: the primary payload, its librsync signature, or a delta
// against a prior version. Per spec §4.4/§6, delta is modeled but never
// driven end-to-end by the orchestrator.
type Subresource string

const (
	SubresourceFile      Subresource = "file"
	SubresourceSignature Subresource = "signature"
	SubresourceDelta     Subresource = "delta"
)

// FileCategory distinguishes a single-PUT upload from one split into
// pre-signed parts.
type FileCategory string

const (
	FileCategorySimple    FileCategory = "simple"
	FileCategoryMultipart FileCategory = "multipart"
	FileCategoryQueued    FileCategory = "queued"
)

// FileVersionStatus is the server-reported lifecycle state of a single
// version's upload. Only FileVersionStatusComplete is a terminal
// success; every other value, including ones the Service has not yet
// defined, is treated as incomplete by IsComplete.
type FileVersionStatus string

const (
	FileVersionStatusComplete FileVersionStatus = "complete"
	FileVersionStatusWaiting  FileVersionStatus = "waiting"
	FileVersionStatusNone     FileVersionStatus = "none"
)

// IsComplete reports whether this status represents a finished upload.
func (s FileVersionStatus) IsComplete() bool { return s == FileVersionStatusComplete }

// FileAsset is one subresource (file, signature, or delta) of a file
// version: its eventual download URL, checksum, and upload status.
type FileAsset struct {
	FileName    string            `json:"fileName,omitempty"`
	MD5         string            `json:"md5,omitempty"`
	SizeInBytes int64             `json:"sizeInBytes,omitempty"`
	Status      FileVersionStatus `json:"status,omitempty"`
	URL         string            `json:"url,omitempty"`
	Category    FileCategory      `json:"category,omitempty"`
}

// FileVersion is one entry in a File's version history.
type FileVersion struct {
	Version   int                `json:"version"`
	Status    FileVersionStatus  `json:"status"`
	File      *FileAsset         `json:"file,omitempty"`
	Signature *FileAsset         `json:"signatureFile,omitempty"`
	Delta     *FileAsset         `json:"deltaFile,omitempty"`
}

// File is a Service-tracked uploadable file and its version history.
type File struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	MimeType string        `json:"mimeType"`
	Extension string       `json:"extension"`
	Versions []FileVersion `json:"versions"`
}

// LatestVersion returns the highest-numbered version, if any.
func (f *File) LatestVersion() (FileVersion, bool) {
	if len(f.Versions) == 0 {
		return FileVersion{}, false
	}
	latest := f.Versions[0]
	for _, v := range f.Versions[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	return latest, true
}

// CreateFile registers a new file record with the Service.
func (c *Client) CreateFile(ctx context.Context, name, mimeType, extension string) (*File, error) {
	body := map[string]string{"name": name, "mimeType": mimeType, "extension": extension}
	resp, err := c.do(ctx, "POST", "/file", body, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, asServiceError(resp)
	}
	var file File
	if err := json.Unmarshal(resp.Body, &file); err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	return &file, nil
}

// CreateFileVersionInput describes the subresources a new version will
// carry, each identified by its MD5 digest and size so the Service can
// hand back matching pre-signed upload targets.
type CreateFileVersionInput struct {
	SignatureMD5   string
	SignatureSize  int64
	FileMD5        string
	FileSize       int64
}

// CreateFileVersion starts a new version for an existing file.
func (c *Client) CreateFileVersion(ctx context.Context, fileID string, in CreateFileVersionInput) (*File, error) {
	body := map[string]any{
		"signatureMd5":        in.SignatureMD5,
		"signatureSizeInBytes": in.SignatureSize,
		"fileMd5":             in.FileMD5,
		"fileSizeInBytes":     in.FileSize,
	}
	resp, err := c.do(ctx, "POST", fmt.Sprintf("/file/%s", fileID), body, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, asServiceError(resp)
	}
	var file File
	if err := json.Unmarshal(resp.Body, &file); err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	return &file, nil
}

// StartFileUpload requests a pre-signed URL for one part of a
// subresource upload. partNumber is nil for a simple (single-part)
// upload and 1-based for a multipart one.
func (c *Client) StartFileUpload(ctx context.Context, fileID string, version int, sub Subresource, partNumber *int) (string, error) {
	path := fmt.Sprintf("/file/%s/%d/%s/start", fileID, version, sub)
	if partNumber != nil {
		path = fmt.Sprintf("%s?partNumber=%d", path, *partNumber)
	}
	resp, err := c.do(ctx, "PUT", path, nil, nil)
	if err != nil {
		return "", err
	}
	if !isSuccess(resp.StatusCode) {
		return "", asServiceError(resp)
	}
	var decoded struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return "", fmt.Errorf("decode upload url: %w", err)
	}
	if decoded.URL == "" {
		return "", errsx.ErrEtagMissing
	}
	return decoded.URL, nil
}

// FinishFileUpload reports the collected ETags (in part order; a
// single entry for a simple upload) back to the Service, completing a
// subresource's upload.
func (c *Client) FinishFileUpload(ctx context.Context, fileID string, version int, sub Subresource, etags []string) (*File, error) {
	if len(etags) == 0 {
		return nil, errsx.ErrEtagMissing
	}
	path := fmt.Sprintf("/file/%s/%d/%s/finish", fileID, version, sub)
	resp, err := c.do(ctx, "PUT", path, map[string]any{"etags": etags}, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, asServiceError(resp)
	}
	var file File
	if err := json.Unmarshal(resp.Body, &file); err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	return &file, nil
}

// ShowFile fetches a file's current record, including version history.
// A 404 is reported as (nil, nil), not an error: a missing file is an
// expected branch of the file-version reuse check in spec §4.6.
func (c *Client) ShowFile(ctx context.Context, fileID string) (*File, error) {
	resp, err := c.do(ctx, "GET", fmt.Sprintf("/file/%s", fileID), nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 404 {
		return nil, nil
	}
	if !isSuccess(resp.StatusCode) {
		return nil, asServiceError(resp)
	}
	var file File
	if err := json.Unmarshal(resp.Body, &file); err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	return &file, nil
}

// DeleteFileVersion removes a version that was abandoned mid-upload, so
// a retried publish can create a fresh one in its place.
func (c *Client) DeleteFileVersion(ctx context.Context, fileID string, version int) error {
	resp, err := c.do(ctx, "DELETE", fmt.Sprintf("/file/%s/%d", fileID, version), nil, nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return asServiceError(resp)
	}
	return nil
}
