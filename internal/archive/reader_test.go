package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

type zipEntry struct {
	name string
	data []byte
}

func buildArchive(t *testing.T, entries []zipEntry) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		require.NoError(t, err)
		_, err = f.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "bundle.3b")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func validManifestJSON(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"name":        "Alice",
		"blueprintId": "avtr_00000000-0000-0000-0000-000000000001",
		"assetBundles": map[string]any{
			"windows": map[string]any{"performance": "good", "unityVersion": "2022.3.6f1"},
		},
	})
	require.NoError(t, err)
	return b
}

func TestOpen_Valid(t *testing.T) {
	path := buildArchive(t, []zipEntry{
		{manifestEntry, validManifestJSON(t)},
		{thumbnailEntry, []byte("fake-png")},
		{"windows.vrca", []byte("fake-bundle")},
	})

	u, err := Open(path)
	require.NoError(t, err)
	defer u.Close()

	assert.Equal(t, "Alice", u.Manifest.Name)
	assert.FileExists(t, u.ThumbnailPath)
	platform, ok := u.Platforms[PlatformWindows]
	require.True(t, ok)
	assert.False(t, platform.Compressed)
	assert.FileExists(t, platform.Path)

	dir := u.Dir
	require.NoError(t, u.Close())
	assert.NoDirExists(t, dir)
}

func TestOpen_CompressedPlatformEntry(t *testing.T) {
	path := buildArchive(t, []zipEntry{
		{manifestEntry, validManifestJSON(t)},
		{thumbnailEntry, []byte("fake-png")},
		{"windows.vrcaz", []byte{0x00, 'r', 'a', 'w'}},
	})

	u, err := Open(path)
	require.NoError(t, err)
	defer u.Close()

	platform := u.Platforms[PlatformWindows]
	assert.True(t, platform.Compressed)
}

func TestOpen_MissingManifest(t *testing.T) {
	path := buildArchive(t, []zipEntry{
		{thumbnailEntry, []byte("fake-png")},
		{"windows.vrca", []byte("x")},
	})

	_, err := Open(path)
	assert.ErrorIs(t, err, errsx.ErrManifestMissing)
}

func TestOpen_MissingThumbnail(t *testing.T) {
	path := buildArchive(t, []zipEntry{
		{manifestEntry, validManifestJSON(t)},
		{"windows.vrca", []byte("x")},
	})

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpen_MissingPlatformPayload(t *testing.T) {
	path := buildArchive(t, []zipEntry{
		{manifestEntry, validManifestJSON(t)},
		{thumbnailEntry, []byte("fake-png")},
	})

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpen_CorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.3b")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestManifestValidate_RejectsUnknownPlatform(t *testing.T) {
	m := Manifest{
		Name:        "x",
		BlueprintID: "avtr_x",
		AssetBundles: map[Platform]AssetBundleEntry{
			"macos": {Performance: PerformanceGood, UnityVersion: "2022.3.6f1"},
		},
	}
	assert.Error(t, m.Validate())
}

func TestManifestValidate_RejectsBadPerformance(t *testing.T) {
	m := Manifest{
		Name:        "x",
		BlueprintID: "avtr_x",
		AssetBundles: map[Platform]AssetBundleEntry{
			PlatformWindows: {Performance: "ultra", UnityVersion: "2022.3.6f1"},
		},
	}
	assert.Error(t, m.Validate())
}

func TestManifestValidate_RequiresAtLeastOnePlatform(t *testing.T) {
	m := Manifest{Name: "x", BlueprintID: "avtr_x"}
	assert.Error(t, m.Validate())
}
