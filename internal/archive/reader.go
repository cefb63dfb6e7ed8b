// Package archive reads and validates ".3b" avatar bundle archives
// (plain ZIP files), per spec §4.2. Every entry is extracted into a
// fresh per-invocation temporary directory; the caller is responsible
// for releasing it (see Unpacked.Close).
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

const (
	manifestEntry  = "metadata.json"
	thumbnailEntry = "thumbnail.png"
)

// PlatformFile describes where a platform's payload lives on disk after
// extraction, and whether it still needs transcoding.
type PlatformFile struct {
	Path       string
	Compressed bool // true if the source entry was "{platform}.vrcaz"
}

// Unpacked is the handle returned by Open: the unpack directory, the
// validated manifest, the thumbnail path, and one PlatformFile per
// platform declared in the manifest.
type Unpacked struct {
	Dir          string
	Manifest     Manifest
	ThumbnailPath string
	Platforms    map[Platform]PlatformFile
}

// Close removes the unpack directory. It is safe to call multiple
// times and is the single point of deletion the orchestrator must
// invoke on every exit path (success, error, cancel, or process close),
// per spec §9's "graceful shutdown" design note.
func (u *Unpacked) Close() error {
	if u == nil || u.Dir == "" {
		return nil
	}
	err := os.RemoveAll(u.Dir)
	u.Dir = ""
	if err != nil {
		return errsx.NewIOFailure(u.Dir, err)
	}
	return nil
}

// Open extracts the ".3b" archive at path into a fresh temporary
// directory and validates its contents against the Bundle Manifest
// invariants of spec §3/§4.2. On any validation failure the temporary
// directory is removed before returning.
func Open(path string) (*Unpacked, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errsx.ErrArchiveCorrupt, err)
	}
	defer r.Close()

	dir, err := os.MkdirTemp("", "third-uploader-"+uuid.NewString())
	if err != nil {
		return nil, errsx.NewIOFailure(dir, err)
	}

	u, err := extractAndValidate(&r.Reader, dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return u, nil
}

func extractAndValidate(r *zip.Reader, dir string) (*Unpacked, error) {
	manifestSeen := false
	var manifest Manifest
	thumbnailPath := ""
	platformPaths := map[Platform]PlatformFile{}

	for _, entry := range r.File {
		dest := filepath.Join(dir, filepath.Clean("/"+entry.Name))
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o770); err != nil {
				return nil, errsx.NewIOFailure(dest, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o770); err != nil {
			return nil, errsx.NewIOFailure(dest, err)
		}

		if entry.Name == manifestEntry {
			if manifestSeen {
				return nil, fmt.Errorf("%w: duplicate %s", errsx.ErrManifestInvalid, manifestEntry)
			}
			manifestSeen = true
			m, err := readManifest(entry)
			if err != nil {
				return nil, err
			}
			manifest = m
		}

		if err := extractEntry(entry, dest); err != nil {
			return nil, err
		}

		if entry.Name == thumbnailEntry {
			thumbnailPath = dest
		}

		if platform, compressed, ok := platformEntry(entry.Name); ok {
			platformPaths[platform] = PlatformFile{Path: dest, Compressed: compressed}
		}
	}

	if !manifestSeen {
		return nil, errsx.ErrManifestMissing
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	if thumbnailPath == "" {
		return nil, errsx.ErrThumbnailMissing
	}

	for platform := range manifest.AssetBundles {
		if _, ok := platformPaths[platform]; !ok {
			return nil, fmt.Errorf("%w: platform %s", errsx.ErrMissingPlatformPayload, platform)
		}
	}

	return &Unpacked{
		Dir:           dir,
		Manifest:      manifest,
		ThumbnailPath: thumbnailPath,
		Platforms:     platformPaths,
	}, nil
}

func readManifest(entry *zip.File) (Manifest, error) {
	f, err := entry.Open()
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", errsx.ErrArchiveCorrupt, err)
	}
	defer f.Close()

	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", errsx.ErrManifestInvalid, err)
	}
	return m, nil
}

func extractEntry(entry *zip.File, dest string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", errsx.ErrArchiveCorrupt, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o660)
	if err != nil {
		return errsx.NewIOFailure(dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return errsx.NewIOFailure(dest, err)
	}
	return nil
}

// platformEntry recognizes "{platform}.vrca" / "{platform}.vrcaz" entry
// names and reports whether the entry needs transcoding.
func platformEntry(name string) (Platform, bool, bool) {
	for _, platform := range []Platform{PlatformWindows, PlatformAndroid, PlatformIOS} {
		if name == string(platform)+".vrca" {
			return platform, false, true
		}
		if name == string(platform)+".vrcaz" {
			return platform, true, true
		}
	}
	return "", false, false
}
