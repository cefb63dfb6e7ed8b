package archive

import (
	"fmt"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

var errManifestInvalid = errsx.ErrManifestInvalid

// Platform identifies one of the three supported target platforms for an
// avatar's asset bundle, per the Data Model table's Asset Bundle Entry.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// Performance is one of the five literal performance ratings an asset
// bundle entry may declare.
type Performance string

const (
	PerformanceExcellent Performance = "excellent"
	PerformanceGood      Performance = "good"
	PerformanceMedium    Performance = "medium"
	PerformancePoor      Performance = "poor"
	PerformanceVeryPoor  Performance = "verypoor"
)

func (p Performance) valid() bool {
	switch p {
	case PerformanceExcellent, PerformanceGood, PerformanceMedium, PerformancePoor, PerformanceVeryPoor:
		return true
	default:
		return false
	}
}

// AssetBundleEntry describes one platform's declared bundle metadata in
// metadata.json.
type AssetBundleEntry struct {
	Performance Performance `json:"performance"`
	UnityVersion string     `json:"unityVersion"`
}

// Manifest is the parsed, validated content of a bundle archive's
// metadata.json.
type Manifest struct {
	Name         string                          `json:"name"`
	BlueprintID  string                           `json:"blueprintId"`
	AssetBundles map[Platform]AssetBundleEntry    `json:"assetBundles"`
}

// Validate checks the Bundle Manifest invariants from spec §3: non-empty
// name and blueprint id, at least one platform present, every platform's
// performance literal valid and unity version non-empty, and no
// unrecognized platform keys.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is empty", errManifestInvalid)
	}
	if m.BlueprintID == "" {
		return fmt.Errorf("%w: blueprintId is empty", errManifestInvalid)
	}
	if len(m.AssetBundles) == 0 {
		return fmt.Errorf("%w: no platforms declared", errManifestInvalid)
	}

	for platform, entry := range m.AssetBundles {
		switch platform {
		case PlatformWindows, PlatformAndroid, PlatformIOS:
		default:
			return fmt.Errorf("%w: unrecognized platform %q", errManifestInvalid, platform)
		}
		if !entry.Performance.valid() {
			return fmt.Errorf("%w: invalid performance %q for platform %s", errManifestInvalid, entry.Performance, platform)
		}
		if entry.UnityVersion == "" {
			return fmt.Errorf("%w: empty unityVersion for platform %s", errManifestInvalid, platform)
		}
	}

	return nil
}
