package publish

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Kavex/Third3D-uploader/internal/digest"
	"github.com/Kavex/Third3D-uploader/internal/rsync"
	"github.com/Kavex/Third3D-uploader/internal/serviceclient"
	"github.com/Kavex/Third3D-uploader/internal/upload"
)

// fileUploadResult is what a completed uploadFile call hands back to
// the orchestrator: the Service's file id (for later reuse) and the
// final asset URL, per spec §4.6 step "showFile -> return the latest
// version's file URL."
type fileUploadResult struct {
	FileID   string
	AssetURL string
}

// uploadFile drives one file through the full lifecycle described in
// spec §4.6's "File upload internals": digest, signature, file-id
// acquisition, version reconciliation, concurrent file+signature
// upload, and a final showFile to recover the asset URL.
//
// reuseFileID, if non-empty, names a file whose latest non-complete
// version should be discarded before a new one is created; otherwise a
// fresh file is created.
func (p *Publisher) uploadFile(ctx context.Context, name, path, mimeType, reuseFileID string, onProgress upload.ProgressFunc) (fileUploadResult, error) {
	fileDigest, err := digest.File(path)
	if err != nil {
		return fileUploadResult{}, err
	}

	sigPath := path + ".sig"
	if err := rsync.Generate(path, sigPath); err != nil {
		return fileUploadResult{}, err
	}
	sigDigest, err := digest.File(sigPath)
	if err != nil {
		return fileUploadResult{}, err
	}

	fileID, err := p.resolveFileID(ctx, name, mimeType, reuseFileID)
	if err != nil {
		return fileUploadResult{}, err
	}

	versioned, err := p.client.CreateFileVersion(ctx, fileID, serviceclient.CreateFileVersionInput{
		FileMD5:       fileDigest.Hex,
		FileSize:      fileDigest.Size,
		SignatureMD5:  sigDigest.Hex,
		SignatureSize: sigDigest.Size,
	})
	if err != nil {
		return fileUploadResult{}, err
	}

	latest, ok := versioned.LatestVersion()
	if !ok {
		return fileUploadResult{}, fmt.Errorf("createFileVersion for %s returned no versions", fileID)
	}

	category := serviceclient.FileCategorySimple
	if latest.File != nil && latest.File.Category != "" {
		category = latest.File.Category
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return p.uploadFileSubresource(gctx, fileID, latest.Version, category, path, mimeType, fileDigest, onProgress)
	})
	group.Go(func() error {
		return p.uploadSignature(gctx, fileID, latest.Version, sigPath, sigDigest)
	})
	if err := group.Wait(); err != nil {
		return fileUploadResult{}, err
	}

	final, err := p.client.ShowFile(ctx, fileID)
	if err != nil {
		return fileUploadResult{}, err
	}
	finalVersion, ok := final.LatestVersion()
	if !ok || finalVersion.File == nil {
		return fileUploadResult{}, fmt.Errorf("showFile for %s returned no file asset", fileID)
	}

	return fileUploadResult{FileID: fileID, AssetURL: finalVersion.File.URL}, nil
}

// resolveFileID acquires the Service file id a new version will be
// created on: reuseFileID if given (after reconciling any incomplete
// trailing version per the reuse rule of spec §4.6), or a fresh file.
func (p *Publisher) resolveFileID(ctx context.Context, name, mimeType, reuseFileID string) (string, error) {
	if reuseFileID == "" {
		created, err := p.client.CreateFile(ctx, name, mimeType, extensionFor(mimeType))
		if err != nil {
			return "", err
		}
		return created.ID, nil
	}

	existing, err := p.client.ShowFile(ctx, reuseFileID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if latest, ok := existing.LatestVersion(); ok && !latest.Status.IsComplete() {
			if err := p.client.DeleteFileVersion(ctx, reuseFileID, latest.Version); err != nil {
				return "", err
			}
		}
	}
	return reuseFileID, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	default:
		return "vrca"
	}
}

// uploadFileSubresource uploads the primary file payload, branching on
// the version's declared upload category. "queued" carries no further
// protocol detail in the Service's contract observed so far, so it is
// handled as a simple PUT, the same as the default case.
func (p *Publisher) uploadFileSubresource(ctx context.Context, fileID string, version int, category serviceclient.FileCategory, path, mimeType string, fileDigest digest.Result, onProgress upload.ProgressFunc) error {
	switch category {
	case serviceclient.FileCategoryMultipart:
		etags, err := p.uploader.PutMultipart(ctx, path, p.cfg.PartSize, func(ctx context.Context, part int) (string, error) {
			return p.client.StartFileUpload(ctx, fileID, version, serviceclient.SubresourceFile, &part)
		}, onProgress)
		if err != nil {
			return err
		}
		_, err = p.client.FinishFileUpload(ctx, fileID, version, serviceclient.SubresourceFile, etags)
		return err

	default:
		url, err := p.client.StartFileUpload(ctx, fileID, version, serviceclient.SubresourceFile, nil)
		if err != nil {
			return err
		}
		etag, err := p.uploader.PutSimple(ctx, url, path, mimeType, fileDigest.Base64, onProgress)
		if err != nil {
			return err
		}
		_, err = p.client.FinishFileUpload(ctx, fileID, version, serviceclient.SubresourceFile, []string{etag})
		return err
	}
}

// uploadSignature uploads the librsync signature as a simple PUT. Every
// version carries a signature regardless of the primary file's
// category, per spec §4.6.
func (p *Publisher) uploadSignature(ctx context.Context, fileID string, version int, sigPath string, sigDigest digest.Result) error {
	url, err := p.client.StartFileUpload(ctx, fileID, version, serviceclient.SubresourceSignature, nil)
	if err != nil {
		return err
	}
	etag, err := p.uploader.PutSimple(ctx, url, sigPath, "application/octet-stream", sigDigest.Base64, nil)
	if err != nil {
		return err
	}
	_, err = p.client.FinishFileUpload(ctx, fileID, version, serviceclient.SubresourceSignature, []string{etag})
	return err
}
